package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/oralabs/ora-memory/internal/engine"
	"github.com/oralabs/ora-memory/internal/llm"
	"github.com/oralabs/ora-memory/internal/models"
	"github.com/oralabs/ora-memory/internal/risk"
	"github.com/oralabs/ora-memory/internal/storage"
	"github.com/oralabs/ora-memory/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	userID := flag.String("user", "demo", "user id for the console session")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage(cfg.Engine.EmbeddingDimension)
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig, cfg.Engine.EmbeddingDimension, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize the OpenAI client, used both for embeddings and for
	// insight generation
	client := llm.NewOpenAIClient(
		cfg.OpenAI.APIKey,
		cfg.OpenAI.Model,
		cfg.OpenAI.EmbeddingModel,
		cfg.OpenAI.BaseURL,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
	)

	// Initialize the risk scorer
	scorerOpts := []risk.Option{
		risk.WithSingleHitTier(singleHitTier(cfg.Risk.SingleHitTier)),
	}
	if len(cfg.Risk.Phrases) > 0 {
		phrases := make([]risk.Phrase, len(cfg.Risk.Phrases))
		for i, p := range cfg.Risk.Phrases {
			phrases[i] = risk.Phrase{Text: p, Weight: 1}
		}
		scorerOpts = append(scorerOpts, risk.WithLexicon(phrases))
	}
	scorer := risk.NewScorer(scorerOpts...)

	// Initialize the engine
	eng := engine.New(store, client, client, scorer, engine.Config{
		EmbeddingDimension: cfg.Engine.EmbeddingDimension,
		RecentLimit:        cfg.Engine.RecentLimit,
		SimilarLimit:       cfg.Engine.SimilarLimit,
		InsightLimit:       cfg.Engine.InsightLimit,
		EmotionWindow:      cfg.Engine.EmotionWindow,
		TrendWindow:        cfg.Engine.TrendWindow,
		InsightInterval:    cfg.Engine.InsightInterval,
		InsightHistory:     cfg.Engine.InsightHistory,
	}, logger)

	// Insight generation runs off the request path
	worker := engine.NewInsightWorker(eng, cfg.Worker.QueueSize,
		time.Duration(cfg.Worker.TimeoutSeconds)*time.Second, logger)
	worker.Start()
	defer worker.Stop()

	runConsole(eng, worker, *userID, logger)
}

// runConsole reads messages from stdin and exercises the engine the way
// the chat shell would: score, assemble context, store the exchange,
// trigger the insight worker.
func runConsole(eng *engine.Engine, worker *engine.InsightWorker, userID string, logger *zap.Logger) {
	fmt.Println("ora-memory console. Type a message, Ctrl-D to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := scanner.Text()
		if input == "" {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		tier := eng.ScoreRisk(input)
		fmt.Printf("risk: %s\n", tier)

		bundle, err := eng.BuildContext(ctx, userID, input)
		if err != nil {
			logger.Error("Failed to build context", zap.Error(err))
			cancel()
			continue
		}
		fmt.Println("--- context ---")
		fmt.Println(bundle.Render())
		fmt.Println("---------------")

		recordID, err := eng.AppendInteraction(ctx, userID, input, "", models.EmotionNeutral, tier)
		if err != nil {
			logger.Error("Failed to append interaction", zap.Error(err))
			cancel()
			continue
		}
		fmt.Printf("stored: %s\n", recordID)

		worker.Enqueue(userID)
		cancel()
	}
}

func singleHitTier(name string) models.RiskTier {
	if name == "low" {
		return models.RiskLow
	}
	return models.RiskMedium
}
