package engine

import (
	"context"

	"github.com/oralabs/ora-memory/internal/models"
	"github.com/oralabs/ora-memory/internal/storage"
)

// MockEmbedder returns canned vectors keyed by input text, falling back
// to Vector, or Err when set.
type MockEmbedder struct {
	Vector  []float32
	Vectors map[string][]float32
	Err     error
	Calls   int
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if vec, ok := m.Vectors[text]; ok {
		return vec, nil
	}
	return m.Vector, nil
}

// MockGenerator replays a fixed response, or Err when set.
type MockGenerator struct {
	Response string
	Err      error
	Calls    int
	Prompts  []string
}

func (m *MockGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// failingStorage wraps a working store and fails selected operations,
// for exercising error propagation.
type failingStorage struct {
	storage.Storage
	appendErr error
	touchErr  error
	countErr  error
}

func (f *failingStorage) AppendRecord(ctx context.Context, record *models.InteractionRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	return f.Storage.AppendRecord(ctx, record)
}

func (f *failingStorage) TouchUser(ctx context.Context, userID string) (*models.User, error) {
	if f.touchErr != nil {
		return nil, f.touchErr
	}
	return f.Storage.TouchUser(ctx, userID)
}

func (f *failingStorage) CountRecords(ctx context.Context, userID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.Storage.CountRecords(ctx, userID)
}
