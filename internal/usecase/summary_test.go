package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"PressWatch/internal/domain"
	"PressWatch/internal/logging"
	"PressWatch/internal/ports"
)

type scriptedSummarizer struct {
	failTitles map[string]bool
	calls      []int64
	processed  chan int64
}

func (s *scriptedSummarizer) Summarize(_ context.Context, article domain.Article) (domain.Summary, error) {
	s.calls = append(s.calls, article.ID)
	if s.processed != nil {
		defer func() { s.processed <- article.ID }()
	}
	if s.failTitles[article.Title] {
		return domain.Summary{}, fmt.Errorf("%w: endpoint returned 503", domain.ErrSummarization)
	}
	return domain.Summary{
		ArticleID: article.ID,
		Category:  "Earnings",
		Sentiment: "Positive",
		Text:      "summary of " + article.Title,
	}, nil
}

func newWorker(repo *fakeRepo, summarizer ports.Summarizer, queue *SummaryQueue) *SummaryWorker {
	return NewSummaryWorker(queue, summarizer, repo, nil, logging.New("error"))
}

func TestWorkerProcessesQueuedArticle(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	summarizer := &scriptedSummarizer{}
	queue := NewSummaryQueue(4, logging.New("error"))
	worker := newWorker(repo, summarizer, queue)

	article := domain.Article{ID: 7, Symbol: "ABC", Title: "Q1 Results", Content: "text"}
	worker.process(context.Background(), article)

	if len(summarizer.calls) != 1 || summarizer.calls[0] != 7 {
		t.Fatalf("unexpected summarizer calls: %v", summarizer.calls)
	}
	if len(repo.summaries) != 1 {
		t.Fatalf("expected 1 stored summary, got %d", len(repo.summaries))
	}
	stored := repo.summaries[0]
	if stored.ArticleID != 7 || stored.Text != "summary of Q1 Results" {
		t.Fatalf("unexpected stored summary: %+v", stored)
	}
}

func TestWorkerDropsFailedItemAndContinues(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	summarizer := &scriptedSummarizer{failTitles: map[string]bool{"Broken": true}}
	queue := NewSummaryQueue(4, logging.New("error"))
	worker := newWorker(repo, summarizer, queue)

	worker.process(context.Background(), domain.Article{ID: 1, Title: "Broken"})
	worker.process(context.Background(), domain.Article{ID: 2, Title: "Fine"})

	if len(summarizer.calls) != 2 {
		t.Fatalf("expected both items attempted, got %v", summarizer.calls)
	}
	if len(repo.summaries) != 1 || repo.summaries[0].ArticleID != 2 {
		t.Fatalf("only the second item should be stored: %+v", repo.summaries)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	summarizer := &scriptedSummarizer{}
	queue := NewSummaryQueue(4, logging.New("error"))
	worker := newWorker(repo, summarizer, queue)

	summarizer.processed = make(chan int64, 1)

	ctx, cancel := context.WithCancel(context.Background())
	queue.Enqueue(ctx, domain.Article{ID: 1, Title: "Only"})

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	select {
	case id := <-summarizer.processed:
		if id != 1 {
			t.Fatalf("unexpected article processed: %d", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker never processed the queued item")
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestEnqueueBacklog(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{unsummarized: []domain.Article{
		{ID: 1, Title: "Old one"},
		{ID: 2, Title: "Old two"},
	}}
	queue := NewSummaryQueue(4, logging.New("error"))
	worker := newWorker(repo, &scriptedSummarizer{}, queue)

	if err := worker.EnqueueBacklog(context.Background()); err != nil {
		t.Fatalf("backlog enqueue: %v", err)
	}
	if len(queue.items) != 2 {
		t.Fatalf("expected 2 queued items, got %d", len(queue.items))
	}
	first := <-queue.items
	if first.ID != 1 {
		t.Fatalf("backlog must keep order, got id %d first", first.ID)
	}
}

func TestEnqueueReturnsFalseOnCancelledContext(t *testing.T) {
	t.Parallel()

	queue := NewSummaryQueue(1, logging.New("error"))
	ctx, cancel := context.WithCancel(context.Background())

	if !queue.Enqueue(ctx, domain.Article{ID: 1}) {
		t.Fatal("enqueue into a free slot must succeed")
	}
	cancel()
	if queue.Enqueue(ctx, domain.Article{ID: 2}) {
		t.Fatal("enqueue into a full queue with a cancelled context must fail")
	}
}

func TestEnqueueBacklogPropagatesRepositoryError(t *testing.T) {
	t.Parallel()

	repo := &failingBacklogRepo{err: errors.New("connection reset")}
	queue := NewSummaryQueue(4, logging.New("error"))
	worker := NewSummaryWorker(queue, &scriptedSummarizer{}, repo, nil, logging.New("error"))

	if err := worker.EnqueueBacklog(context.Background()); err == nil {
		t.Fatal("expected an error when the backlog query fails")
	}
}

type failingBacklogRepo struct {
	fakeRepo
	err error
}

func (r *failingBacklogRepo) UnsummarizedArticles(context.Context) ([]domain.Article, error) {
	return nil, r.err
}
