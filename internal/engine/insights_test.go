package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oralabs/ora-memory/internal/models"
	"github.com/oralabs/ora-memory/internal/storage"
)

func appendN(t *testing.T, eng *Engine, userID string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := eng.AppendInteraction(ctx, userID, fmt.Sprintf("message %d", i), "reply", models.EmotionNeutral, models.RiskNone)
		require.NoError(t, err)
	}
}

func TestInsightsNotDueBetweenIntervals(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Response: "- some pattern"}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	ctx := context.Background()
	for count := 1; count <= 9; count++ {
		appendN(t, eng, "u1", 1)
		insights := eng.GenerateInsightsIfDue(ctx, "u1")
		if count%5 == 0 {
			assert.NotEmpty(t, insights, "count %d should trigger generation", count)
		} else {
			assert.Empty(t, insights, "count %d should not trigger generation", count)
		}
	}
	assert.Equal(t, 1, generator.Calls)
}

func TestInsightsZeroRecordsNotDue(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Response: "- some pattern"}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	assert.Empty(t, eng.GenerateInsightsIfDue(context.Background(), "u1"))
	assert.Zero(t, generator.Calls)
}

func TestInsightsParsedAndPersisted(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Response: "Here are my observations:\n" +
		"- expresses stress around work deadlines\n" +
		"2. mood improves after social contact\n" +
		"• sleep trouble recurs on Sundays\n" +
		"ignored trailing prose"}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	appendN(t, eng, "u1", 5)
	ctx := context.Background()
	insights := eng.GenerateInsightsIfDue(ctx, "u1")
	require.Len(t, insights, 3)

	texts := []string{insights[0].Text, insights[1].Text, insights[2].Text}
	assert.Equal(t, []string{
		"expresses stress around work deadlines",
		"mood improves after social contact",
		"sleep trouble recurs on Sundays",
	}, texts)

	for _, insight := range insights {
		assert.Equal(t, "pattern", insight.Kind)
		assert.Equal(t, "u1", insight.UserID)
		assert.Equal(t, insightConfidence, insight.Confidence)
		assert.NotEmpty(t, insight.ID)
	}

	stored, err := store.ListInsights(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
}

func TestInsightsPromptCarriesTranscript(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Response: "- fine"}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	appendN(t, eng, "u1", 5)
	eng.GenerateInsightsIfDue(context.Background(), "u1")

	require.Len(t, generator.Prompts, 1)
	prompt := generator.Prompts[0]
	assert.Contains(t, prompt, "Conversation 1:")
	assert.Contains(t, prompt, "Conversation 5:")
	assert.Contains(t, prompt, "User (neutral): message 0")
	assert.Contains(t, prompt, "AI: reply")
}

func TestInsightsGenerationFailureIsNonFatal(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Err: errors.New("model overloaded")}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	appendN(t, eng, "u1", 5)
	ctx := context.Background()
	assert.Empty(t, eng.GenerateInsightsIfDue(ctx, "u1"))

	stored, err := store.ListInsights(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestInsightsUnparsableResponseIsNonFatal(t *testing.T) {
	store := storage.NewMemoryStorage(2)
	generator := &MockGenerator{Response: "The user seems fine overall, nothing stands out."}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	appendN(t, eng, "u1", 5)
	assert.Empty(t, eng.GenerateInsightsIfDue(context.Background(), "u1"))
}

func TestInsightsCountFailureIsNonFatal(t *testing.T) {
	store := &failingStorage{
		Storage:  storage.NewMemoryStorage(2),
		countErr: storage.ErrUnavailable,
	}
	generator := &MockGenerator{Response: "- fine"}
	eng := newTestEngine(store, &MockEmbedder{Vector: []float32{1, 0}}, generator)

	assert.Empty(t, eng.GenerateInsightsIfDue(context.Background(), "u1"))
	assert.Zero(t, generator.Calls)
}

func TestParseInsightsMarkers(t *testing.T) {
	cases := map[string][]string{
		"- dash":                  {"dash"},
		"• bullet":                {"bullet"},
		"* star":                  {"star"},
		"1. numbered dot":         {"numbered dot"},
		"12) numbered paren":      {"numbered paren"},
		"no marker here":          nil,
		"":                        nil,
		"- first\n\n- second":     {"first", "second"},
		"-  spaced   out  ":       {"spaced   out"},
		"3.5 decimals are prose":  nil,
		"2024 was a hard year":    nil,
	}
	for input, want := range cases {
		assert.Equal(t, want, parseInsights(input), "input %q", input)
	}
}
