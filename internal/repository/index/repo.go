package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/kailas-cloud/docuchat/internal/db"
	"github.com/kailas-cloud/docuchat/internal/domain"
)

// store is the consumer interface for the chunk index (ISP).
//
//nolint:interfacebloat // the index repo needs hash + index management + search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	DelMulti(ctx context.Context, keys []string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the vector index used by the ingest and retrieve usecases.
type Repo struct {
	store  store
	hnsw   HNSWConfig
	prefix string
}

// New creates a chunk index repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 16, EFConstruct: 200}, prefix: domain.KeyPrefix}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// WithKeyPrefix overrides the key namespace for all collection, index and
// chunk keys.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// EnsureCollection creates the collection metadata and FT index if they do
// not exist yet. An existing collection with a different vector dimension is
// rejected, never silently recreated.
func (r *Repo) EnsureCollection(ctx context.Context, name string, dim int, metric domain.Metric) error {
	meta, err := r.store.HGetAll(ctx, r.metaKey(name))
	if err != nil {
		return fmt.Errorf("hgetall collection %s: %w", name, storeFailure(err))
	}
	if len(meta) > 0 {
		stored, err := strconv.Atoi(meta[metaFieldDim])
		if err != nil {
			return fmt.Errorf("parse stored dim for %s: %w", name, err)
		}
		if stored != dim {
			return fmt.Errorf("collection %s expects dim %d, got %d: %w",
				name, stored, dim, domain.ErrDimensionMismatch)
		}
		return nil
	}

	hash := map[string]string{
		metaFieldDim:       strconv.Itoa(dim),
		metaFieldMetric:    string(metric),
		metaFieldCreatedAt: strconv.FormatInt(time.Now().Unix(), 10),
	}

	// Step 1: HSET metadata
	if err := r.store.HSet(ctx, r.metaKey(name), hash); err != nil {
		return fmt.Errorf("hset collection %s: %w", name, storeFailure(err))
	}

	def := &db.IndexDefinition{
		Name:        r.indexName(name),
		Prefix:      r.chunkPrefix(name),
		Dim:         dim,
		Distance:    distanceFor(metric),
		Algo:        db.VectorHNSW,
		M:           r.hnsw.M,
		EFConstruct: r.hnsw.EFConstruct,
	}

	// FT.CREATE — rollback HSET on error
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		cleanupErr := r.store.Del(ctx, r.metaKey(name))
		return errors.Join(storeFailure(err), cleanupErr)
	}

	return nil
}

// Upsert writes chunk entries in one pipelined batch. Re-upserting the same
// chunk IDs overwrites in place. On a partial write failure the batch's keys
// are deleted so the collection never carries a half-written document.
func (r *Repo) Upsert(ctx context.Context, collection string, entries []domain.IndexEntry) error {
	if len(entries) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(entries))
	keys := make([]string, 0, len(entries))
	for i := range entries {
		key := r.chunkKey(collection, entries[i].Chunk.ID)
		items = append(items, db.HashSetItem{Key: key, Fields: buildHashFields(&entries[i])})
		keys = append(keys, key)
	}

	if err := r.store.HSetMulti(ctx, items); err != nil {
		cleanupErr := r.store.DelMulti(ctx, keys)
		return errors.Join(fmt.Errorf("hset chunks %s: %w", collection, storeFailure(err)), cleanupErr)
	}
	return nil
}

// Search runs a KNN query and returns up to k chunks ordered by score
// descending, ties broken by ordinal ascending.
func (r *Repo) Search(ctx context.Context, collection string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	meta, err := r.store.HGetAll(ctx, r.metaKey(collection))
	if err != nil {
		return nil, fmt.Errorf("hgetall collection %s: %w", collection, storeFailure(err))
	}
	if len(meta) == 0 {
		return nil, domain.ErrCollectionNotFound
	}
	if stored, err := strconv.Atoi(meta[metaFieldDim]); err == nil && stored != len(vector) {
		return nil, fmt.Errorf("collection %s expects dim %d, got %d: %w",
			collection, stored, len(vector), domain.ErrDimensionMismatch)
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName(collection),
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldText, fieldDocID, fieldOrdinal},
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, fmt.Errorf("knn search %s: %w", collection, storeFailure(err))
	}

	chunks := make([]domain.ScoredChunk, 0, len(res.Entries))
	for _, entry := range res.Entries {
		chunks = append(chunks, r.parseEntry(collection, entry))
	}

	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].Score != chunks[j].Score {
			return chunks[i].Score > chunks[j].Score
		}
		return chunks[i].Chunk.Ordinal < chunks[j].Chunk.Ordinal
	})

	return chunks, nil
}

// Count returns the number of chunk entries in a collection.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.store.SearchCount(ctx, r.indexName(collection), "*")
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, domain.ErrCollectionNotFound
		}
		return 0, fmt.Errorf("search count %s: %w", collection, storeFailure(err))
	}
	return n, nil
}

// DeleteDocument removes every chunk of one document. Returns the number of
// deleted entries.
func (r *Repo) DeleteDocument(ctx context.Context, collection, documentID string) (int, error) {
	keys, err := r.store.Scan(ctx, r.chunkPrefix(collection)+documentID+":*")
	if err != nil {
		return 0, fmt.Errorf("scan chunks %s: %w", documentID, storeFailure(err))
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := r.store.DelMulti(ctx, keys); err != nil {
		return 0, fmt.Errorf("del chunks %s: %w", documentID, storeFailure(err))
	}
	return len(keys), nil
}

// Reset drops the collection: FT.DROPINDEX DD removes the index together
// with its chunk hashes, then the metadata hash goes.
func (r *Repo) Reset(ctx context.Context, collection string) error {
	meta, err := r.store.HGetAll(ctx, r.metaKey(collection))
	if err != nil {
		return fmt.Errorf("hgetall collection %s: %w", collection, storeFailure(err))
	}
	if len(meta) == 0 {
		return domain.ErrCollectionNotFound
	}

	if err := r.store.DropIndex(ctx, r.indexName(collection)); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", collection, storeFailure(err))
	}

	if err := r.store.Del(ctx, r.metaKey(collection)); err != nil {
		return fmt.Errorf("del collection %s: %w", collection, storeFailure(err))
	}
	return nil
}

// storeFailure marks a vector store transport failure as retryable for the
// caller. The db sentinels pass through untouched so their specific mapping
// (missing index, existing index, missing key) is preserved.
func storeFailure(err error) error {
	if errors.Is(err, db.ErrIndexNotFound) ||
		errors.Is(err, db.ErrIndexExists) ||
		errors.Is(err, db.ErrKeyNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
}

func distanceFor(metric domain.Metric) db.DistanceMetric {
	if metric == domain.MetricDot {
		return db.DistanceIP
	}
	return db.DistanceCosine
}

// Redis key patterns: docuchat:collection:{name}, docuchat:{name}:idx, docuchat:{name}:chunk:

func (r *Repo) metaKey(name string) string {
	return fmt.Sprintf("%scollection:%s", r.prefix, name)
}

func (r *Repo) indexName(name string) string {
	return fmt.Sprintf("%s%s:idx", r.prefix, name)
}

func (r *Repo) chunkPrefix(name string) string {
	return fmt.Sprintf("%s%s:chunk:", r.prefix, name)
}

func (r *Repo) chunkKey(collection, chunkID string) string {
	return r.chunkPrefix(collection) + chunkID
}
