package models

import "time"

// SearchQuery is a semantic search request over a user's entries.
type SearchQuery struct {
	Query  string `json:"query"`
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// SearchResult is a single ranked hit. Preview is a hard character cut of
// the entry text; Similarity is cosine similarity against the query, with
// 0 standing in for "undefined" when either vector has zero norm.
type SearchResult struct {
	EntryID    string    `json:"entry_id"`
	Preview    string    `json:"text"`
	Mood       string    `json:"mood,omitempty"`
	Similarity float64   `json:"similarity"`
	CreatedAt  time.Time `json:"created_at"`
}

// SearchResponse wraps ranked results for the HTTP API.
type SearchResponse struct {
	Results []*SearchResult `json:"results"`
	TookMS  int64           `json:"took_ms"`
}
