// Package profile maintains per-user vector profiles, the element-wise
// mean of a user's recent entry embeddings.
package profile

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/store"
	"github.com/healinggarden/kokoro/pkg/utils"
)

// Config bounds the aggregation window.
type Config struct {
	// WindowDays is how far back entries contribute to the profile.
	WindowDays int
	// MaxEntries caps how many recent entries are averaged.
	MaxEntries int
}

// DefaultConfig returns the standard aggregation window.
func DefaultConfig() Config {
	return Config{
		WindowDays: 30,
		MaxEntries: 50,
	}
}

// Aggregator computes and persists user vector profiles.
type Aggregator struct {
	store  store.Store
	cfg    Config
	logger *zap.Logger
}

// NewAggregator creates a profile aggregator.
func NewAggregator(st store.Store, cfg Config, logger *zap.Logger) *Aggregator {
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 30
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 50
	}
	return &Aggregator{store: st, cfg: cfg, logger: logger}
}

// Refresh recomputes the user's profile from their recent embedded entries
// and upserts it. A user with no embedded entries in the window yields
// (nil, nil) and the stored profile, if any, is left untouched.
func (a *Aggregator) Refresh(ctx context.Context, userID string) (*models.VectorProfile, error) {
	since := time.Now().AddDate(0, 0, -a.cfg.WindowDays)
	entries, err := a.store.FindRecentEmbeddedEntries(ctx, userID, since, a.cfg.MaxEntries)
	if err != nil {
		return nil, fmt.Errorf("load recent entries: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(entries))
	dim := len(entries[0].Embedding)
	for _, entry := range entries {
		if len(entry.Embedding) != dim {
			a.logger.Warn("skipping entry with mismatched embedding dimension",
				zap.String("entry_id", entry.ID),
				zap.Int("got", len(entry.Embedding)),
				zap.Int("expected", dim),
			)
			continue
		}
		vectors = append(vectors, entry.Embedding)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	profile := &models.VectorProfile{
		UserID:          userID,
		ProfileVector:   utils.MeanVector(vectors),
		EmbeddingsCount: len(vectors),
		LastUpdated:     time.Now(),
	}
	if err := a.store.UpsertProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	a.logger.Debug("profile refreshed",
		zap.String("user_id", userID),
		zap.Int("embeddings_count", profile.EmbeddingsCount),
	)
	return profile, nil
}

// Get returns the stored profile for the user, or store.ErrNotFound.
func (a *Aggregator) Get(ctx context.Context, userID string) (*models.VectorProfile, error) {
	return a.store.GetProfile(ctx, userID)
}

// RefreshAll recomputes profiles for every active user. Per-user failures
// are logged and skipped so one user cannot block the rest. Returns the
// number of profiles written.
func (a *Aggregator) RefreshAll(ctx context.Context) (int, error) {
	users, err := a.store.ListActiveUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active users: %w", err)
	}
	refreshed := 0
	for _, userID := range users {
		profile, err := a.Refresh(ctx, userID)
		if err != nil {
			a.logger.Warn("profile refresh failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			continue
		}
		if profile != nil {
			refreshed++
		}
	}
	return refreshed, nil
}
