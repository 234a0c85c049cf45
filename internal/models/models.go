package models

import "time"

// User represents a chat user with their profile and preferences
type User struct {
	ID           string         `json:"id"`
	Name         string         `json:"name,omitempty"`
	Preferences  map[string]any `json:"preferences,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActiveAt time.Time      `json:"last_active_at"`
}

// InteractionRecord is one stored exchange between a user and the assistant.
// Records are immutable once written; they are removed only by bulk user-data
// erasure.
//
// Embedding convention: a record's embedding is computed over the combined
// transcript "User: <input>\nAI: <output>". Query embeddings are computed over
// the query text alone. Both sides must use the same provider and dimension.
type InteractionRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Emotion   Emotion   `json:"emotion"`
	Risk      RiskTier  `json:"risk"`
	Embedding []float32 `json:"embedding,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EmbeddingText returns the text a record's embedding is computed over.
func (r *InteractionRecord) EmbeddingText() string {
	return "User: " + r.Input + "\nAI: " + r.Output
}

// InsightRecord is a derived observation about a user's emotional or
// behavioral patterns, produced by the insight aggregator. Append-only;
// newer insights never overwrite older ones.
type InsightRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}
