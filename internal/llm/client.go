// Package llm holds the thin clients for the engine's external
// collaborators: an embedding provider and a text generator. The engine
// only sees these interfaces, so tests inject mocks and deployments can
// swap providers without touching retrieval or aggregation logic.
package llm

import "context"

// EmbedderClient maps text to a fixed-length vector. The dimension is
// fixed per deployment and validated by the record store.
type EmbedderClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerationClient produces free text for a prompt. Used only by the
// insight aggregator; failures there are always non-fatal.
type GenerationClient interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
