package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"PressWatch/internal/domain"
	"PressWatch/internal/infrastructure/metrics"
	"PressWatch/internal/ports"
)

// SummaryQueue is the bounded FIFO hand-off between the monitoring loop
// and the summarization worker. It is the only structure shared between
// the two loops.
type SummaryQueue struct {
	items  chan domain.Article
	logger *slog.Logger
}

// NewSummaryQueue builds a queue with the given capacity.
func NewSummaryQueue(size int, logger *slog.Logger) *SummaryQueue {
	if size <= 0 {
		size = 256
	}
	return &SummaryQueue{items: make(chan domain.Article, size), logger: logger}
}

// Enqueue hands a persisted article to the worker, blocking while the
// queue is full. Returns false only when the context is cancelled first.
func (q *SummaryQueue) Enqueue(ctx context.Context, article domain.Article) bool {
	select {
	case q.items <- article:
		q.logger.Debug("article queued for summarization", "id", article.ID, "title", article.Title)
		return true
	case <-ctx.Done():
		return false
	}
}

// SummaryWorker is the single consumer of the queue. It calls the external
// summarization endpoint and persists the result, dropping individual
// items on failure; the loop itself only stops with the context.
type SummaryWorker struct {
	queue      *SummaryQueue
	summarizer ports.Summarizer
	repository ports.Repository
	metrics    *metrics.Set
	logger     *slog.Logger
}

// NewSummaryWorker constructs the consumer.
func NewSummaryWorker(queue *SummaryQueue, summarizer ports.Summarizer, repository ports.Repository, m *metrics.Set, logger *slog.Logger) *SummaryWorker {
	return &SummaryWorker{
		queue:      queue,
		summarizer: summarizer,
		repository: repository,
		metrics:    m,
		logger:     logger,
	}
}

// Run consumes queued articles until the context is cancelled. An item
// being processed when cancellation arrives is finished first.
func (w *SummaryWorker) Run(ctx context.Context) error {
	w.logger.Info("summarization worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("summarization worker stopped")
			return nil
		case article := <-w.queue.items:
			w.process(ctx, article)
		}
	}
}

// EnqueueBacklog queues every stored article that has content but no
// summary yet, so the worker drains history before new arrivals.
func (w *SummaryWorker) EnqueueBacklog(ctx context.Context) error {
	articles, err := w.repository.UnsummarizedArticles(ctx)
	if err != nil {
		return fmt.Errorf("load unsummarized articles: %w", err)
	}

	w.logger.Info("queuing unsummarized backlog", "count", len(articles))
	for _, article := range articles {
		if !w.queue.Enqueue(ctx, article) {
			return ctx.Err()
		}
	}
	return nil
}

func (w *SummaryWorker) process(ctx context.Context, article domain.Article) {
	w.logger.Info("summarizing article", "id", article.ID, "title", article.Title)

	summary, err := w.summarizer.Summarize(ctx, article)
	if err != nil {
		w.logger.Warn("summarization failed, item dropped", "id", article.ID, "title", article.Title, "error", err)
		w.countFailure()
		return
	}

	if _, err := w.repository.SaveSummary(ctx, summary); err != nil {
		w.logger.Warn("summary not saved, item dropped", "id", article.ID, "title", article.Title, "error", err)
		w.countFailure()
		return
	}

	if w.metrics != nil {
		w.metrics.Summaries.Inc()
	}
	w.logger.Info("summary saved", "id", article.ID, "title", article.Title)
}

func (w *SummaryWorker) countFailure() {
	if w.metrics != nil {
		w.metrics.SummaryFailures.Inc()
	}
}
