package models

import "time"

// VectorProfile is one record per user holding the element-wise mean of
// their recent entry embeddings. Upserted by the profile aggregator;
// there is never more than one row per user.
type VectorProfile struct {
	UserID          string    `json:"user_id"`
	ProfileVector   []float32 `json:"profile_vector"`
	EmbeddingsCount int       `json:"embeddings_count"`
	LastUpdated     time.Time `json:"last_updated"`
}
