// Package store defines persistence for journal entries, vector profiles,
// and the AI interaction log.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/healinggarden/kokoro/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines entry, profile, and interaction persistence operations.
// Entry reads used by search and aggregation only ever see live entries
// (deletion marker unset) that carry an embedding.
type Store interface {
	// Entry operations
	CreateEntry(ctx context.Context, entry *models.Entry) error
	GetEntry(ctx context.Context, id string) (*models.Entry, error)
	UpdateEntryEmbedding(ctx context.Context, id string, embedding []float32) error
	SoftDeleteEntry(ctx context.Context, id string) error

	// FindEmbeddedEntries returns up to limit live, embedded entries for the
	// user, most recent first.
	FindEmbeddedEntries(ctx context.Context, userID string, limit int) ([]*models.Entry, error)
	// FindRecentEmbeddedEntries is FindEmbeddedEntries restricted to entries
	// created at or after since.
	FindRecentEmbeddedEntries(ctx context.Context, userID string, since time.Time, limit int) ([]*models.Entry, error)
	// FindRecentEntries returns up to limit live entries created at or after
	// since, embedded or not. Summaries and trend scoring must not lose
	// entries whose embedding failed.
	FindRecentEntries(ctx context.Context, userID string, since time.Time, limit int) ([]*models.Entry, error)

	// Profile operations. UpsertProfile keeps exactly one row per user.
	UpsertProfile(ctx context.Context, profile *models.VectorProfile) error
	GetProfile(ctx context.Context, userID string) (*models.VectorProfile, error)

	// User operations
	ListActiveUsers(ctx context.Context) ([]string, error)

	// Interaction log
	SaveInteraction(ctx context.Context, interaction *models.Interaction) error
	// DeleteOldInteractions removes interactions created before cutoff,
	// keeping emotional assessments. Returns the number deleted.
	DeleteOldInteractions(ctx context.Context, cutoff time.Time) (int64, error)

	// Stats
	CountEntries(ctx context.Context) (int64, error)

	Close() error
}
