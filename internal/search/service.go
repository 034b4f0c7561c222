// Package search implements semantic similarity search over a user's
// journal entries.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/embedding"
	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/store"
	"github.com/healinggarden/kokoro/internal/vector"
	"github.com/healinggarden/kokoro/pkg/utils"
)

// Config bounds the retrieval pipeline.
type Config struct {
	// CandidateLimit bounds how many recent entries are scored per search.
	// The search is "recent only" by design, not a global nearest-neighbor
	// scan over a user's full history.
	CandidateLimit int
	// PreviewLength is the hard character cut applied to result text.
	PreviewLength int
	// CacheTTL is how long computed query embeddings stay cached.
	CacheTTL time.Duration
}

// DefaultConfig returns the standard retrieval bounds.
func DefaultConfig() Config {
	return Config{
		CandidateLimit: 100,
		PreviewLength:  200,
		CacheTTL:       embedding.DefaultCacheTTL,
	}
}

// Service orchestrates query embedding, candidate retrieval, scoring,
// ranking, and truncation.
type Service struct {
	store    store.Store
	embedder embedding.Embedder
	cache    embedding.Cache
	cfg      Config
	logger   *zap.Logger
}

// NewService creates a search service with the given dependencies.
// The cache may be nil, in which case every query embedding is recomputed.
func NewService(st store.Store, embedder embedding.Embedder, cache embedding.Cache, cfg Config, logger *zap.Logger) *Service {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = 100
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = 200
	}
	return &Service{store: st, embedder: embedder, cache: cache, cfg: cfg, logger: logger}
}

// Embed returns the embedding for text, serving from the cache when the
// fingerprint is present and unexpired. Cache failures are never fatal:
// a failed Get recomputes, a failed Set is logged and the computed value
// is still returned.
func (s *Service) Embed(ctx context.Context, text string) (*embedding.CachedEmbedding, error) {
	if s.embedder == nil {
		return nil, embedding.ErrNotReady
	}
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, text); ok {
			return cached, nil
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}
	result := &embedding.CachedEmbedding{
		Vector:    vec,
		Dimension: len(vec),
		Model:     s.embedder.Model(),
		CreatedAt: time.Now(),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, text, result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("embedding cache set failed", zap.Error(err))
		}
	}
	return result, nil
}

// Search returns up to limit entries of the user ranked by descending
// cosine similarity to the query. A non-positive limit and a user with no
// embedded entries both yield an empty result, never an error.
func (s *Service) Search(ctx context.Context, query, userID string, limit int) ([]*models.SearchResult, error) {
	if limit <= 0 {
		return []*models.SearchResult{}, nil
	}

	queryEmbedding, err := s.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.FindEmbeddedEntries(ctx, userID, s.cfg.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load candidate entries: %w", err)
	}
	if len(entries) == 0 {
		return []*models.SearchResult{}, nil
	}

	results := make([]*models.SearchResult, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Embedding) != queryEmbedding.Dimension {
			// One corrupt row must not take down retrieval.
			s.logger.Warn("skipping entry with mismatched embedding dimension",
				zap.String("entry_id", entry.ID),
				zap.Int("got", len(entry.Embedding)),
				zap.Int("expected", queryEmbedding.Dimension),
			)
			continue
		}
		results = append(results, &models.SearchResult{
			EntryID:    entry.ID,
			Preview:    utils.Preview(entry.Text, s.cfg.PreviewLength),
			Mood:       entry.Mood,
			Similarity: vector.CosineSimilarity(queryEmbedding.Vector, entry.Embedding),
			CreatedAt:  entry.CreatedAt,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}
