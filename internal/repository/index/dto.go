package index

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docuchat/internal/db"
	"github.com/kailas-cloud/docuchat/internal/domain"
)

// Hash field names, aligned with the FT index schema.
const (
	fieldText    = "__text"
	fieldVector  = "__vector"
	fieldDocID   = "__doc_id"
	fieldOrdinal = "__ordinal"

	metaFieldDim       = "__dim"
	metaFieldMetric    = "__metric"
	metaFieldCreatedAt = "__created_at"
)

// buildHashFields converts an index entry into a flat map[string]string for HSET.
func buildHashFields(e *domain.IndexEntry) map[string]string {
	return map[string]string{
		fieldText:    e.Chunk.Text,
		fieldDocID:   e.Chunk.DocumentID,
		fieldOrdinal: strconv.Itoa(e.Chunk.Ordinal),
		fieldVector:  vectorToBytes(e.Vector),
	}
}

// parseEntry converts a search hit back into a scored chunk.
func (r *Repo) parseEntry(collection string, entry db.SearchEntry) domain.ScoredChunk {
	id := strings.TrimPrefix(entry.Key, r.chunkPrefix(collection))
	ordinal, _ := strconv.Atoi(entry.Fields[fieldOrdinal])
	return domain.ScoredChunk{
		Chunk: domain.Chunk{
			ID:         id,
			DocumentID: entry.Fields[fieldDocID],
			Text:       entry.Fields[fieldText],
			Ordinal:    ordinal,
		},
		Score: entry.Score,
	}
}

// vectorToBytes serializes []float32 to a binary string (4 bytes per float, little-endian).
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// bytesToVector deserializes a binary string back to []float32.
func bytesToVector(s string) []float32 {
	b := []byte(s)
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
