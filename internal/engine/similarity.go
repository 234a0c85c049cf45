package engine

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/oralabs/ora-memory/internal/models"
)

// Search embeds the query text and ranks the user's records by cosine
// similarity, most similar first; ties break by recency. This is a linear
// scan over the user's history, which is bounded in practice. The method
// is keyed by user and query only, so an approximate index could replace
// the scan without changing callers.
func (e *Engine) Search(ctx context.Context, userID, query string, limit int) ([]models.ScoredRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	queryVec := e.embed(ctx, query)

	records, err := e.storage.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing records for user %s: %w", userID, err)
	}

	return rankBySimilarity(records, queryVec, limit), nil
}

// rankBySimilarity scores records against the query vector and returns
// the top limit by similarity descending. records must already be sorted
// most recent first so that equal scores keep recency order.
func rankBySimilarity(records []*models.InteractionRecord, queryVec []float32, limit int) []models.ScoredRecord {
	scored := make([]models.ScoredRecord, 0, len(records))
	for _, record := range records {
		scored = append(scored, models.ScoredRecord{
			Record:     record,
			Similarity: cosineSimilarity(queryVec, record.Embedding),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// cosineSimilarity returns dot(a,b) / (|a| * |b|), defined as 0 when
// either vector has zero norm or the lengths disagree. Zero-vector
// sentinels therefore rank as maximally dissimilar instead of crashing
// the scan.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
