package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralabs/ora-memory/internal/models"
	"github.com/oralabs/ora-memory/internal/storage"
)

func TestConcurrentAppendsAcrossUsers(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, &MockGenerator{})

	const users = 8
	const perUser = 20

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		wg.Add(1)
		go func(u int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", u)
			for i := 0; i < perUser; i++ {
				_, err := eng.AppendInteraction(context.Background(), userID,
					fmt.Sprintf("message %d", i), "reply", models.EmotionNeutral, models.RiskNone)
				assert.NoError(t, err)
			}
		}(u)
	}
	wg.Wait()

	for u := 0; u < users; u++ {
		count, err := store.CountRecords(context.Background(), fmt.Sprintf("user-%d", u))
		require.NoError(t, err)
		assert.Equal(t, perUser, count)
	}
}

func TestConcurrentReadsDuringAppends(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, &MockGenerator{})

	ctx := context.Background()
	_, err := eng.AppendInteraction(ctx, "u1", "seed", "reply", models.EmotionNeutral, models.RiskNone)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := eng.AppendInteraction(ctx, "u1",
				fmt.Sprintf("message %d", i), "reply", models.EmotionNeutral, models.RiskNone)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			bundle, err := eng.BuildContext(ctx, "u1", "seed")
			assert.NoError(t, err)
			assert.NotNil(t, bundle)
		}
	}()
	wg.Wait()
}
