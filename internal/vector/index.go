// Package vector provides vector index implementations and similarity search.
package vector

import (
	"context"
	"errors"
)

// Index defines vector storage and top-k similarity search over
// L2-normalized vectors, scoped by an optional ID allow-list.
type Index interface {
	// Add inserts vectors under external IDs with optional per-vector metadata.
	// Vectors are L2-normalized on insertion.
	Add(ctx context.Context, ids []string, vectors [][]float32, metadata []map[string]string) error
	// Search returns up to k hits ranked by descending similarity. When
	// filterIDs is non-empty it acts as an allow-list; fewer than k hits may
	// survive filtering and no re-query tops the result up.
	Search(ctx context.Context, query []float32, k int, filterIDs []string) ([]*Result, error)
	// Remove drops the given IDs from lookup so they can never be returned
	// by Search. Backends without true deletion keep the stored vectors.
	Remove(ctx context.Context, ids []string) error
	// Save and Load persist the index as an atomic unit.
	Save(path string) error
	Load(path string) error
	Stats() Stats
	Size() int
	Close() error
}

// Result is a single vector search hit (ID is the external entry ID).
type Result struct {
	ID       string
	Score    float64 // inner product over normalized vectors = cosine similarity
	Metadata map[string]string
}

// Stats describes index occupancy. After removals TotalVectors (backing
// store) may exceed UniqueIDs (live lookup entries); that divergence is
// documented behavior of the append-only backend, not a defect.
type Stats struct {
	TotalVectors int    `json:"total_vectors"`
	UniqueIDs    int    `json:"unique_ids"`
	Dimension    int    `json:"dimension"`
	Backend      string `json:"backend"`
}

var (
	// ErrDimensionMismatch is returned when a vector does not match the
	// index dimension. Callers must reject such vectors, never coerce them.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrIndexCorrupt is returned when persisted index files are missing or
	// inconsistent; the index must be treated as uninitialized, not
	// partially loaded.
	ErrIndexCorrupt = errors.New("index files missing or corrupt")
)
