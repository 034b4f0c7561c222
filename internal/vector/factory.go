package vector

import "fmt"

// IndexType represents the type of vector index to use.
type IndexType string

const (
	// IndexTypeFlat uses the in-process append-only index. Good for a
	// single node and datasets up to a few hundred thousand vectors.
	IndexTypeFlat IndexType = "flat"
	// IndexTypeQdrant uses a Qdrant server. Good when the index must be
	// shared across instances or needs true deletion.
	IndexTypeQdrant IndexType = "qdrant"
)

// QdrantOptions configures the qdrant backend. Ignored by other backends.
type QdrantOptions struct {
	URL        string
	Collection string
	APIKey     string
}

// NewIndex creates a vector index of the specified type.
// Supported types: "flat" (default), "qdrant".
func NewIndex(indexType string, dimension int, qdrant *QdrantOptions) (Index, error) {
	switch IndexType(indexType) {
	case IndexTypeFlat, "":
		return NewFlatIndex(dimension)
	case IndexTypeQdrant:
		if qdrant == nil {
			return nil, fmt.Errorf("qdrant backend requires connection options")
		}
		return NewQdrantIndex(dimension, *qdrant)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: flat, qdrant)", indexType)
	}
}
