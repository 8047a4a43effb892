package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/kailas-cloud/docuchat/internal/db"
)

// Entry hash field names shared by the index schema and search queries.
const (
	FieldText    = "__text"
	FieldVector  = "__vector"
	FieldDocID   = "__doc_id"
	FieldOrdinal = "__ordinal"
	fieldScore   = "__score"
)

// CreateIndex creates the FT index for a chunk collection.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name, deleting the indexed hashes too (DD).
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name, "DD").Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpDropIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if def.Prefix == "" {
		return nil, errors.New("index prefix is required")
	}
	if def.Dim <= 0 {
		return nil, errors.New("vector DIM must be positive")
	}

	distance := def.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	algo := def.Algo
	if algo == "" {
		algo = db.VectorHNSW
	}

	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(def.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if algo == db.VectorHNSW {
		if def.M > 0 {
			attrs = append(attrs, "M", strconv.Itoa(def.M))
		}
		if def.EFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(def.EFConstruct))
		}
	}

	args := []string{
		def.Name,
		"ON", "HASH",
		"PREFIX", "1", def.Prefix,
		"SCHEMA",
		FieldDocID, "TAG",
		FieldOrdinal, "NUMERIC",
		FieldVector, "VECTOR", string(algo), strconv.Itoa(len(attrs)),
	}
	args = append(args, attrs...)

	return args, nil
}
