package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oralabs/ora-memory/internal/models"
)

const insightSystemPrompt = "You are a therapeutic AI assistant. Based on the conversation history, " +
	"identify 2-3 key insights about the user's emotional patterns, potential therapeutic needs, " +
	"or behavioral trends. Format each insight as a separate point."

const insightConfidence = 0.7

// GenerateInsightsIfDue runs the periodic insight aggregation for a user.
// The cadence policy lives here, not in the caller: work is due only when
// the user's total record count is a positive multiple of the configured
// interval. When due, the aggregator reads the recent history, asks the
// generation collaborator for pattern observations, and persists each
// parsed observation as an insight record.
//
// Insight generation is best-effort. It never returns an error: any
// storage, generation or parsing failure is logged and yields an empty
// slice so the primary chat path is never blocked or failed by it.
func (e *Engine) GenerateInsightsIfDue(ctx context.Context, userID string) []*models.InsightRecord {
	count, err := e.storage.CountRecords(ctx, userID)
	if err != nil {
		e.logger.Error("Failed to count records for insight trigger",
			zap.Error(err),
			zap.String("user_id", userID))
		return nil
	}
	if count == 0 || count%e.config.InsightInterval != 0 {
		return nil
	}

	records, err := e.storage.ListRecent(ctx, userID, e.config.InsightHistory)
	if err != nil || len(records) == 0 {
		if err != nil {
			e.logger.Error("Failed to load history for insight generation",
				zap.Error(err),
				zap.String("user_id", userID))
		}
		return nil
	}

	response, err := e.generator.Generate(ctx, insightSystemPrompt, transcript(records))
	if err != nil {
		e.logger.Warn("Insight generation failed",
			zap.Error(err),
			zap.String("user_id", userID))
		return nil
	}

	texts := parseInsights(response)
	if len(texts) == 0 {
		e.logger.Warn("Insight response had no parsable points",
			zap.String("user_id", userID))
		return nil
	}

	var insights []*models.InsightRecord
	for _, text := range texts {
		insight := &models.InsightRecord{
			ID:         uuid.New().String(),
			UserID:     userID,
			Kind:       "pattern",
			Text:       text,
			Confidence: insightConfidence,
			CreatedAt:  time.Now(),
		}
		if err := e.storage.AddInsight(ctx, insight); err != nil {
			e.logger.Error("Failed to store insight",
				zap.Error(err),
				zap.String("user_id", userID))
			continue
		}
		insights = append(insights, insight)
	}
	return insights
}

// transcript formats records (given newest first) as a chronological
// conversation log for the generation prompt.
func transcript(records []*models.InteractionRecord) string {
	var b strings.Builder
	n := 0
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		n++
		fmt.Fprintf(&b, "Conversation %d:\n", n)
		fmt.Fprintf(&b, "User (%s): %s\n", record.Emotion, record.Input)
		fmt.Fprintf(&b, "AI: %s\n\n", record.Output)
	}
	return b.String()
}

// parseInsights extracts one insight per line from generated text.
// Only lines carrying a list marker count: "-", "•", "*", or a number
// followed by "." or ")". Everything else (headings, prose) is ignored,
// so an unparsable response simply yields no insights.
func parseInsights(text string) []string {
	var insights []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hasListMarker(line) {
			continue
		}
		insight := strings.TrimSpace(strings.TrimLeft(line, "-•*0123456789.) "))
		if insight != "" {
			insights = append(insights, insight)
		}
	}
	return insights
}

func hasListMarker(line string) bool {
	switch {
	case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "•"), strings.HasPrefix(line, "*"):
		return true
	}
	if len(line) >= 2 && line[0] >= '0' && line[0] <= '9' {
		rest := strings.TrimLeft(line, "0123456789")
		return strings.HasPrefix(rest, ". ") || strings.HasPrefix(rest, ") ") ||
			rest == "." || rest == ")"
	}
	return false
}
