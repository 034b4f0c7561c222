package vector

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantIndex implements Index against a Qdrant collection. Unlike the
// flat backend it deletes points for real, so Stats never diverges, and
// Save/Load are no-ops because persistence is the server's job.
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewQdrantIndex connects to Qdrant and creates the collection if it does
// not exist yet.
func NewQdrantIndex(dimension int, opts QdrantOptions) (*QdrantIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("dimension must be positive")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if opts.Collection == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}

	parsed := opts.URL
	if !strings.HasPrefix(parsed, "http://") && !strings.HasPrefix(parsed, "https://") {
		parsed = "https://" + parsed
	}
	u, err := url.Parse(parsed)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant url: %w", err)
	}
	port := 6334
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid qdrant port: %w", err)
		}
		port = p
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   u.Hostname(),
		Port:   port,
		APIKey: opts.APIKey,
		UseTLS: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}

	idx := &QdrantIndex{client: client, collection: opts.Collection, dimension: dimension}
	if err := idx.ensureCollection(context.Background()); err != nil {
		_ = client.Close()
		return nil, err
	}
	return idx, nil
}

func (q *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	return nil
}

// Type returns the index type identifier.
func (q *QdrantIndex) Type() string {
	return string(IndexTypeQdrant)
}

// Add upserts points keyed by the external entry UUIDs.
func (q *QdrantIndex) Add(ctx context.Context, ids []string, vectors [][]float32, metadata []map[string]string) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}
	if metadata != nil && len(metadata) != len(ids) {
		return fmt.Errorf("metadata length mismatch: %d vs %d", len(metadata), len(ids))
	}
	points := make([]*qdrant.PointStruct, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != q.dimension {
			return fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(vectors[i]), q.dimension)
		}
		payload := map[string]any{"entry_id": id}
		if metadata != nil {
			for k, v := range metadata[i] {
				payload[k] = v
			}
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payload),
		}
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert: %w", err)
	}
	return nil
}

// Search queries the collection, pushing the allow-list down as an ID filter.
func (q *QdrantIndex) Search(ctx context.Context, query []float32, k int, filterIDs []string) ([]*Result, error) {
	if len(query) != q.dimension {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrDimensionMismatch, len(query), q.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	var filter *qdrant.Filter
	if len(filterIDs) > 0 {
		pointIDs := make([]*qdrant.PointId, len(filterIDs))
		for i, id := range filterIDs {
			pointIDs[i] = qdrant.NewIDUUID(id)
		}
		filter = &qdrant.Filter{Must: []*qdrant.Condition{qdrant.NewHasID(pointIDs...)}}
	}

	limit := uint64(k)
	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		Filter:         filter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant query: %w", err)
	}

	results := make([]*Result, 0, len(points))
	for _, point := range points {
		res := &Result{Score: float64(point.Score)}
		if point.Id != nil {
			res.ID = point.Id.GetUuid()
		}
		if point.Payload != nil {
			res.Metadata = make(map[string]string, len(point.Payload))
			for key, value := range point.Payload {
				if key == "entry_id" {
					if res.ID == "" {
						res.ID = value.GetStringValue()
					}
					continue
				}
				if s := value.GetStringValue(); s != "" {
					res.Metadata[key] = s
				}
			}
		}
		results = append(results, res)
	}
	return results, nil
}

// Remove deletes points by ID.
func (q *QdrantIndex) Remove(ctx context.Context, ids []string) error {
	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDUUID(id)
	}
	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("qdrant delete: %w", err)
	}
	return nil
}

// Save is a no-op; the Qdrant server owns persistence.
func (q *QdrantIndex) Save(path string) error {
	return nil
}

// Load is a no-op; the Qdrant server owns persistence.
func (q *QdrantIndex) Load(path string) error {
	return nil
}

// Stats reports the live point count for both counters; Qdrant deletes for
// real so the counters never diverge.
func (q *QdrantIndex) Stats() Stats {
	count := q.Size()
	return Stats{
		TotalVectors: count,
		UniqueIDs:    count,
		Dimension:    q.dimension,
		Backend:      string(IndexTypeQdrant),
	}
}

// Size returns the collection point count, or 0 if the count fails.
func (q *QdrantIndex) Size() int {
	count, err := q.client.Count(context.Background(), &qdrant.CountPoints{
		CollectionName: q.collection,
	})
	if err != nil {
		return 0
	}
	return int(count)
}

// Close closes the underlying gRPC connection.
func (q *QdrantIndex) Close() error {
	return q.client.Close()
}
