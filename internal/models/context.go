package models

import (
	"fmt"
	"sort"
	"strings"
)

// ScoredRecord pairs a record with its cosine similarity to a query.
type ScoredRecord struct {
	Record     *InteractionRecord `json:"record"`
	Similarity float64            `json:"similarity"`
}

// RiskTrend summarizes the recent trajectory of a user's risk tiers.
type RiskTrend struct {
	// Average risk tier over the trend window, as a float so a slow
	// climb between tiers is still visible.
	Average float64 `json:"average"`
	// Latest is the most recent record's tier.
	Latest RiskTier `json:"latest"`
	// Escalating is set when the latest tier exceeds the running average.
	Escalating bool `json:"escalating"`
	// Window is the number of records the trend was computed over.
	Window int `json:"window"`
}

// ContextBundle is the assembled snapshot of a user's relevant history,
// statistics and insights handed to downstream response generation. It is
// ephemeral and never persisted.
type ContextBundle struct {
	UserID        string               `json:"user_id"`
	UserName      string               `json:"user_name,omitempty"`
	Preferences   map[string]any       `json:"preferences,omitempty"`
	Recent        []*InteractionRecord `json:"recent"`
	Similar       []ScoredRecord       `json:"similar"`
	EmotionCounts map[Emotion]int      `json:"emotion_counts"`
	Risk          RiskTrend            `json:"risk"`
	Insights      []*InsightRecord     `json:"insights"`
}

// Empty reports whether the bundle carries no history at all.
func (b *ContextBundle) Empty() bool {
	return len(b.Recent) == 0 && len(b.Similar) == 0 && len(b.Insights) == 0
}

// Render serializes the bundle into a stable textual context. The section
// order is fixed (profile, emotions, risk, recent, similar, insights) so
// that identical store states always produce identical prompts.
func (b *ContextBundle) Render() string {
	var parts []string

	if b.UserName != "" {
		parts = append(parts, "User name: "+b.UserName)
	}
	if len(b.Preferences) > 0 {
		keys := make([]string, 0, len(b.Preferences))
		for k := range b.Preferences {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s: %v", k, b.Preferences[k]))
		}
		parts = append(parts, "User preferences: "+strings.Join(pairs, ", "))
	}

	if len(b.EmotionCounts) > 0 {
		type emotionCount struct {
			emotion Emotion
			count   int
		}
		counts := make([]emotionCount, 0, len(b.EmotionCounts))
		for e, n := range b.EmotionCounts {
			counts = append(counts, emotionCount{e, n})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].count != counts[j].count {
				return counts[i].count > counts[j].count
			}
			return counts[i].emotion < counts[j].emotion
		})
		labels := make([]string, 0, len(counts))
		for _, c := range counts {
			labels = append(labels, fmt.Sprintf("%s (%d)", c.emotion, c.count))
		}
		parts = append(parts, "Common emotions: "+strings.Join(labels, ", "))
	}

	if b.Risk.Window > 0 {
		line := fmt.Sprintf("Risk trend: average %.2f over last %d, latest %s",
			b.Risk.Average, b.Risk.Window, b.Risk.Latest)
		if b.Risk.Escalating {
			line += " (escalating)"
		}
		parts = append(parts, line)
	}

	if len(b.Recent) > 0 {
		parts = append(parts, "Recent conversations:")
		// Recent is stored newest-first; render chronologically.
		for i := len(b.Recent) - 1; i >= 0; i-- {
			r := b.Recent[i]
			parts = append(parts, fmt.Sprintf("  User (%s): %s", r.Emotion, r.Input))
			parts = append(parts, "  AI: "+r.Output)
		}
	}

	if len(b.Similar) > 0 {
		parts = append(parts, "Relevant past conversations:")
		for i, s := range b.Similar {
			parts = append(parts, fmt.Sprintf("  %d. User: %s", i+1, s.Record.Input))
			parts = append(parts, "     AI: "+s.Record.Output)
		}
	}

	if len(b.Insights) > 0 {
		parts = append(parts, "Insights:")
		for _, ins := range b.Insights {
			parts = append(parts, "  - "+ins.Text)
		}
	}

	if len(parts) == 0 {
		return "No previous context available."
	}
	return strings.Join(parts, "\n")
}
