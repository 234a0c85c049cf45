// Package engine implements the semantic memory and risk-scoring core:
// appending interaction records with embeddings, similarity search over a
// user's history, emotion/risk aggregation and bounded context assembly.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oralabs/ora-memory/internal/llm"
	"github.com/oralabs/ora-memory/internal/models"
	"github.com/oralabs/ora-memory/internal/risk"
	"github.com/oralabs/ora-memory/internal/storage"
)

// ErrInvalidInput is returned when a caller passes arguments that are
// rejected before any I/O happens, such as an empty user ID or message.
var ErrInvalidInput = errors.New("invalid input")

// Config carries the engine's tunable limits. Zero values are replaced by
// the defaults below at construction.
type Config struct {
	// EmbeddingDimension is the fixed vector length D for this deployment.
	EmbeddingDimension int
	// RecentLimit is K for the most-recent record set of a context bundle.
	RecentLimit int
	// SimilarLimit is K for the similarity-ranked record set.
	SimilarLimit int
	// InsightLimit is M, the number of latest insights included in a bundle.
	InsightLimit int
	// EmotionWindow caps how many recent records feed the emotion
	// frequency table. Aggregation runs over this window, not the full
	// history, to bound cost.
	EmotionWindow int
	// TrendWindow is how many recent records the risk trend averages over.
	TrendWindow int
	// InsightInterval triggers insight generation every Nth stored record.
	InsightInterval int
	// InsightHistory is how many recent records the aggregator reads.
	InsightHistory int
}

func DefaultConfig() Config {
	return Config{
		EmbeddingDimension: 1536,
		RecentLimit:        3,
		SimilarLimit:       3,
		InsightLimit:       2,
		EmotionWindow:      200,
		TrendWindow:        10,
		InsightInterval:    5,
		InsightHistory:     10,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.EmbeddingDimension <= 0 {
		c.EmbeddingDimension = d.EmbeddingDimension
	}
	if c.RecentLimit <= 0 {
		c.RecentLimit = d.RecentLimit
	}
	if c.SimilarLimit <= 0 {
		c.SimilarLimit = d.SimilarLimit
	}
	if c.InsightLimit <= 0 {
		c.InsightLimit = d.InsightLimit
	}
	if c.EmotionWindow <= 0 {
		c.EmotionWindow = d.EmotionWindow
	}
	if c.TrendWindow <= 0 {
		c.TrendWindow = d.TrendWindow
	}
	if c.InsightInterval <= 0 {
		c.InsightInterval = d.InsightInterval
	}
	if c.InsightHistory <= 0 {
		c.InsightHistory = d.InsightHistory
	}
}

// Engine ties the record store, embedding provider, text generator and
// risk scorer together. All dependencies are injected; there is no shared
// process-wide state, so isolated instances can coexist (one per test).
type Engine struct {
	storage   storage.Storage
	embedder  llm.EmbedderClient
	generator llm.GenerationClient
	scorer    *risk.Scorer
	logger    *zap.Logger
	config    Config

	// Per-user append serialization keeps record counts and the
	// insight-trigger arithmetic race-free. Cross-user operations need
	// no coordination.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func New(store storage.Storage, embedder llm.EmbedderClient, generator llm.GenerationClient, scorer *risk.Scorer, config Config, logger *zap.Logger) *Engine {
	config.applyDefaults()
	if scorer == nil {
		scorer = risk.NewScorer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		storage:   store,
		embedder:  embedder,
		generator: generator,
		scorer:    scorer,
		logger:    logger,
		config:    config,
		userLocks: make(map[string]*sync.Mutex),
	}
}

func (e *Engine) lockUser(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, exists := e.userLocks[userID]
	if !exists {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

// ScoreRisk classifies text against the crisis lexicon. Pure and
// deterministic; it never fails.
func (e *Engine) ScoreRisk(text string) models.RiskTier {
	return e.scorer.Score(text)
}

// AppendInteraction stores one exchange for the user, creating the user
// row on first contact, and returns the new record's ID.
//
// An unavailable embedding provider does not fail the append: the record
// is stored with a zero vector sentinel, which similarity search treats
// as maximally dissimilar. A storage failure does fail the append and is
// surfaced to the caller.
func (e *Engine) AppendInteraction(ctx context.Context, userID, input, output string, emotion models.Emotion, tier models.RiskTier) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("user id is empty: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("input text is empty: %w", ErrInvalidInput)
	}
	if !tier.Valid() {
		return "", fmt.Errorf("unknown risk tier %d: %w", int(tier), ErrInvalidInput)
	}
	if emotion == "" {
		emotion = models.EmotionNeutral
	}

	lock := e.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := e.storage.TouchUser(ctx, userID); err != nil {
		return "", fmt.Errorf("touching user %s: %w", userID, err)
	}

	record := &models.InteractionRecord{
		ID:        uuid.New().String(),
		UserID:    userID,
		Input:     input,
		Output:    output,
		Emotion:   emotion,
		Risk:      tier,
		CreatedAt: time.Now(),
	}
	record.Embedding = e.embed(ctx, record.EmbeddingText())

	if err := e.storage.AppendRecord(ctx, record); err != nil {
		return "", fmt.Errorf("appending record for user %s: %w", userID, err)
	}

	return record.ID, nil
}

// UpdateUserProfile stores the user's display name and preferences.
func (e *Engine) UpdateUserProfile(ctx context.Context, userID, name string, preferences map[string]any) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is empty: %w", ErrInvalidInput)
	}
	return e.storage.UpdateUserProfile(ctx, userID, name, preferences)
}

// EraseUser removes the user and all stored records and insights.
func (e *Engine) EraseUser(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is empty: %w", ErrInvalidInput)
	}

	lock := e.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	return e.storage.DeleteUserData(ctx, userID)
}

// embed runs the embedding provider and degrades to a zero vector of the
// configured dimension when the provider fails, times out or returns a
// vector of the wrong length.
func (e *Engine) embed(ctx context.Context, text string) []float32 {
	vec, err := e.embedder.Embed(ctx, text)
	if err != nil {
		e.logger.Warn("Embedding provider unavailable, storing zero vector",
			zap.Error(err))
		return make([]float32, e.config.EmbeddingDimension)
	}
	if len(vec) != e.config.EmbeddingDimension {
		e.logger.Warn("Embedding has unexpected dimension, storing zero vector",
			zap.Int("got", len(vec)),
			zap.Int("want", e.config.EmbeddingDimension))
		return make([]float32, e.config.EmbeddingDimension)
	}
	return vec
}
