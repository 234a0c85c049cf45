package engine

import (
	"context"
	"fmt"

	"github.com/oralabs/ora-memory/internal/models"
)

// BuildContext assembles the bounded context bundle for a query: profile
// facts, up to K recent and K similar records (deduplicated, duplicates
// attributed to the recent set), emotion frequencies over a capped recent
// window, a risk trend, and the latest insights.
//
// The bundle is deterministic for a fixed store state and query. A user
// with no history yields an empty bundle, never an error; only a storage
// failure is surfaced.
func (e *Engine) BuildContext(ctx context.Context, userID, query string) (*models.ContextBundle, error) {
	bundle := &models.ContextBundle{
		UserID:        userID,
		EmotionCounts: map[models.Emotion]int{},
	}

	user, err := e.storage.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}
	if user != nil {
		bundle.UserName = user.Name
		bundle.Preferences = user.Preferences
	}

	recent, err := e.storage.ListRecent(ctx, userID, e.config.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent records for user %s: %w", userID, err)
	}
	bundle.Recent = recent

	similar, err := e.Search(ctx, userID, query, e.config.SimilarLimit)
	if err != nil {
		return nil, fmt.Errorf("similarity search for user %s: %w", userID, err)
	}
	bundle.Similar = dropRecent(similar, recent)

	window, err := e.storage.ListRecent(ctx, userID, e.config.EmotionWindow)
	if err != nil {
		return nil, fmt.Errorf("listing aggregation window for user %s: %w", userID, err)
	}
	for _, record := range window {
		bundle.EmotionCounts[record.Emotion]++
	}
	bundle.Risk = riskTrend(window, e.config.TrendWindow)

	insights, err := e.storage.ListInsights(ctx, userID, e.config.InsightLimit)
	if err != nil {
		return nil, fmt.Errorf("listing insights for user %s: %w", userID, err)
	}
	bundle.Insights = insights

	return bundle, nil
}

// dropRecent removes records already present in the recent set, so each
// record appears in the bundle once and is attributed to recency.
func dropRecent(similar []models.ScoredRecord, recent []*models.InteractionRecord) []models.ScoredRecord {
	seen := make(map[string]struct{}, len(recent))
	for _, r := range recent {
		seen[r.ID] = struct{}{}
	}

	kept := similar[:0]
	for _, s := range similar {
		if _, dup := seen[s.Record.ID]; dup {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

// riskTrend averages the tiers of the newest window records (records is
// sorted most recent first) and flags escalation when the latest record
// sits above that average.
func riskTrend(records []*models.InteractionRecord, window int) models.RiskTrend {
	if len(records) == 0 {
		return models.RiskTrend{}
	}
	if len(records) > window {
		records = records[:window]
	}

	var sum int
	for _, record := range records {
		sum += int(record.Risk)
	}
	average := float64(sum) / float64(len(records))
	latest := records[0].Risk

	return models.RiskTrend{
		Average:    average,
		Latest:     latest,
		Escalating: float64(latest) > average,
		Window:     len(records),
	}
}
