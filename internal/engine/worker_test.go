package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralabs/ora-memory/internal/storage"
)

func TestWorkerGeneratesOffTheRequestPath(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Response: "- talks through problems out loud"}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	appendN(t, eng, "u1", 5)

	worker := NewInsightWorker(eng, 8, time.Second, nil)
	worker.Start()
	assert.True(t, worker.Enqueue("u1"))
	worker.Stop()

	insights, err := store.ListInsights(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Len(t, insights, 1)
}

func TestWorkerSkipsWhenNotDue(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Response: "- pattern"}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	appendN(t, eng, "u1", 3)

	worker := NewInsightWorker(eng, 8, time.Second, nil)
	worker.Start()
	worker.Enqueue("u1")
	worker.Stop()

	assert.Zero(t, generator.Calls)

	insights, err := store.ListInsights(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, insights)
}

func TestWorkerDropsWhenQueueFull(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, &MockGenerator{})

	// Never started, so the buffer fills and the overflow is dropped
	worker := NewInsightWorker(eng, 1, time.Second, nil)
	assert.True(t, worker.Enqueue("u1"))
	assert.False(t, worker.Enqueue("u2"))
}
