// Package store provides the SQLite implementation of the Store interface.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/healinggarden/kokoro/internal/models"
	"github.com/healinggarden/kokoro/internal/vector"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		account_status TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		text TEXT NOT NULL,
		mood TEXT,
		embedding BLOB,
		sentiment TEXT,
		sentiment_score REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		deleted_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_entries_user_created ON journal_entries(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_entries_deleted ON journal_entries(deleted_at);

	CREATE TABLE IF NOT EXISTS user_vector_profiles (
		user_id TEXT PRIMARY KEY,
		profile_vector BLOB NOT NULL,
		embeddings_count INTEGER NOT NULL,
		last_updated TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ai_interactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		context TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_interactions_user ON ai_interactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_created ON ai_interactions(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateEntry inserts an entry, registering its user as active if unseen.
func (s *SQLiteStore) CreateEntry(ctx context.Context, entry *models.Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id) VALUES (?)`, entry.UserID,
	); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	var embedding []byte
	if entry.HasEmbedding() {
		embedding = vector.Float32SliceToBytes(entry.Embedding)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journal_entries (id, user_id, text, mood, embedding, sentiment, sentiment_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.Text, entry.Mood, embedding,
		entry.Sentiment, entry.SentimentScore, entry.CreatedAt,
	)
	return err
}

// GetEntry returns an entry by ID, including soft-deleted ones.
func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*models.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, text, mood, embedding, sentiment, sentiment_score, created_at, deleted_at
		 FROM journal_entries WHERE id = ?`, id,
	)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	return entry, err
}

// UpdateEntryEmbedding stores the embedding for an existing entry.
func (s *SQLiteStore) UpdateEntryEmbedding(ctx context.Context, id string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journal_entries SET embedding = ? WHERE id = ?`,
		vector.Float32SliceToBytes(embedding), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	return nil
}

// SoftDeleteEntry sets the deletion marker; the row stays behind.
func (s *SQLiteStore) SoftDeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE journal_entries SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: entry %s", ErrNotFound, id)
	}
	return nil
}

// FindEmbeddedEntries returns up to limit live, embedded entries for the
// user, most recent first.
func (s *SQLiteStore) FindEmbeddedEntries(ctx context.Context, userID string, limit int) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text, mood, embedding, sentiment, sentiment_score, created_at, deleted_at
		 FROM journal_entries
		 WHERE user_id = ? AND embedding IS NOT NULL AND deleted_at IS NULL
		 ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// FindRecentEmbeddedEntries restricts FindEmbeddedEntries to entries
// created at or after since.
func (s *SQLiteStore) FindRecentEmbeddedEntries(ctx context.Context, userID string, since time.Time, limit int) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text, mood, embedding, sentiment, sentiment_score, created_at, deleted_at
		 FROM journal_entries
		 WHERE user_id = ? AND embedding IS NOT NULL AND deleted_at IS NULL AND created_at >= ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// FindRecentEntries returns live entries in the window regardless of
// embedding state.
func (s *SQLiteStore) FindRecentEntries(ctx context.Context, userID string, since time.Time, limit int) ([]*models.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text, mood, embedding, sentiment, sentiment_score, created_at, deleted_at
		 FROM journal_entries
		 WHERE user_id = ? AND deleted_at IS NULL AND created_at >= ?
		 ORDER BY created_at DESC LIMIT ?`,
		userID, since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// UpsertProfile creates or overwrites the user's single profile row.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *models.VectorProfile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_vector_profiles (user_id, profile_vector, embeddings_count, last_updated)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			profile_vector = excluded.profile_vector,
			embeddings_count = excluded.embeddings_count,
			last_updated = excluded.last_updated`,
		profile.UserID, vector.Float32SliceToBytes(profile.ProfileVector),
		profile.EmbeddingsCount, profile.LastUpdated,
	)
	return err
}

// GetProfile returns the user's profile, or ErrNotFound.
func (s *SQLiteStore) GetProfile(ctx context.Context, userID string) (*models.VectorProfile, error) {
	var profile models.VectorProfile
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, profile_vector, embeddings_count, last_updated
		 FROM user_vector_profiles WHERE user_id = ?`, userID,
	).Scan(&profile.UserID, &blob, &profile.EmbeddingsCount, &profile.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: profile for user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, err
	}
	profile.ProfileVector = vector.BytesToFloat32Slice(blob)
	return &profile, nil
}

// ListActiveUsers returns the IDs of all active users.
func (s *SQLiteStore) ListActiveUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM users WHERE account_status = 'active'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

// SaveInteraction appends to the AI interaction log.
func (s *SQLiteStore) SaveInteraction(ctx context.Context, interaction *models.Interaction) error {
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}
	content, err := json.Marshal(interaction.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction content: %w", err)
	}
	meta, err := json.Marshal(interaction.Context)
	if err != nil {
		return fmt.Errorf("failed to marshal interaction context: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ai_interactions (id, user_id, type, content, context, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		interaction.ID, interaction.UserID, interaction.Type,
		string(content), string(meta), interaction.CreatedAt,
	)
	return err
}

// DeleteOldInteractions removes interactions created before cutoff, except
// emotional assessments, which are kept for longitudinal analysis.
func (s *SQLiteStore) DeleteOldInteractions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ai_interactions WHERE created_at < ? AND type != ?`,
		cutoff, models.InteractionEmotionalAssessment,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountEntries returns the number of live entries.
func (s *SQLiteStore) CountEntries(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM journal_entries WHERE deleted_at IS NULL`).Scan(&count)
	return count, err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var entry models.Entry
	var mood, sentiment sql.NullString
	var score sql.NullFloat64
	var embedding []byte
	var deletedAt sql.NullTime
	err := row.Scan(&entry.ID, &entry.UserID, &entry.Text, &mood, &embedding,
		&sentiment, &score, &entry.CreatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	entry.Mood = mood.String
	entry.Sentiment = sentiment.String
	entry.SentimentScore = score.Float64
	if len(embedding) > 0 {
		entry.Embedding = vector.BytesToFloat32Slice(embedding)
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		entry.DeletedAt = &t
	}
	return &entry, nil
}

func scanEntries(rows *sql.Rows) ([]*models.Entry, error) {
	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

var _ Store = (*SQLiteStore)(nil)
