package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InsightWorker runs insight generation off the request path. The chat
// shell enqueues a user ID after each append and returns immediately; the
// worker goroutine applies the cadence policy and calls the generation
// collaborator on its own deadline.
type InsightWorker struct {
	engine  *Engine
	logger  *zap.Logger
	timeout time.Duration

	queue chan string
	wg    sync.WaitGroup
	once  sync.Once
}

func NewInsightWorker(engine *Engine, buffer int, timeout time.Duration, logger *zap.Logger) *InsightWorker {
	if buffer <= 0 {
		buffer = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightWorker{
		engine:  engine,
		logger:  logger,
		timeout: timeout,
		queue:   make(chan string, buffer),
	}
}

// Start launches the worker goroutine. Safe to call once.
func (w *InsightWorker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for userID := range w.queue {
			w.run(userID)
		}
	}()
}

// Enqueue schedules an insight check for the user. Non-blocking: when the
// queue is full the request is dropped, since insight generation is
// best-effort and the next trigger will catch up.
func (w *InsightWorker) Enqueue(userID string) bool {
	select {
	case w.queue <- userID:
		return true
	default:
		w.logger.Warn("Insight queue full, dropping trigger",
			zap.String("user_id", userID))
		return false
	}
}

// Stop closes the queue and waits for in-flight work to finish.
func (w *InsightWorker) Stop() {
	w.once.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
}

func (w *InsightWorker) run(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	insights := w.engine.GenerateInsightsIfDue(ctx, userID)
	if len(insights) > 0 {
		w.logger.Info("Generated insights",
			zap.String("user_id", userID),
			zap.Int("count", len(insights)))
	}
}
