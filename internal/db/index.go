package db

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the indexing algorithm for vector fields in FT.CREATE.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses the FLAT (brute-force) algorithm.
	VectorFlat VectorAlgorithm = "FLAT"
)

// IndexDefinition describes the FT index over chunk entry hashes.
// The schema is fixed: one vector field plus the document tag and ordinal.
type IndexDefinition struct {
	Name     string
	Prefix   string
	Dim      int
	Distance DistanceMetric
	Algo     VectorAlgorithm

	// HNSW build parameters; zero means engine defaults.
	M           int
	EFConstruct int
}
