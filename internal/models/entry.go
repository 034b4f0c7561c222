// Package models defines the core data types shared across Kokoro.
package models

import "time"

// Entry is a journal entry. Embedding is nil until the entry has been
// embedded; DeletedAt is nil for live entries (soft deletion).
type Entry struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Text           string     `json:"text"`
	Mood           string     `json:"mood,omitempty"`
	Embedding      []float32  `json:"-"`
	Sentiment      string     `json:"sentiment,omitempty"`
	SentimentScore float64    `json:"sentiment_score,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

// HasEmbedding reports whether the entry carries a stored embedding.
func (e *Entry) HasEmbedding() bool {
	return len(e.Embedding) > 0
}

// Interaction is a logged AI interaction (generated questions, daily
// summaries, trend assessments, risk detections).
type Interaction struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Type      string         `json:"type"`
	Content   map[string]any `json:"content"`
	Context   map[string]any `json:"context,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Interaction types stored in the interaction log.
const (
	InteractionDailySummary        = "daily_summary"
	InteractionEmotionalAssessment = "emotional_assessment"
	InteractionSuggestedQuestion   = "suggested_question"
	InteractionRiskDetection       = "risk_detection"
)
