package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"PressWatch/internal/domain"
	"PressWatch/internal/infrastructure/metrics"
	"PressWatch/internal/infrastructure/scheduler"
	"PressWatch/internal/monitor"
	"PressWatch/internal/ports"
)

// MonitoringDeps wires all driven adapters into the polling orchestrator.
type MonitoringDeps struct {
	Repository ports.Repository
	Fetcher    ports.PageFetcher
	Downloader ports.Downloader
	Converter  ports.Converter
	Monitors   map[string]monitor.Monitor
	Queue      *SummaryQueue
	Notifier   ports.Notifier
	Metrics    *metrics.Set
	Interval   time.Duration
	Logger     *slog.Logger
}

// MonitoringService drives one polling cycle across all watched symbols
// and loops indefinitely on a start-anchored schedule. Targets are
// processed sequentially; each gets its own fetch session, and a failing
// target never halts the cycle.
type MonitoringService struct {
	repository ports.Repository
	fetcher    ports.PageFetcher
	downloader ports.Downloader
	converter  ports.Converter
	monitors   map[string]monitor.Monitor
	queue      *SummaryQueue
	notifier   ports.Notifier
	metrics    *metrics.Set
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewMonitoringService constructs the orchestrator.
func NewMonitoringService(deps MonitoringDeps) *MonitoringService {
	return &MonitoringService{
		repository: deps.Repository,
		fetcher:    deps.Fetcher,
		downloader: deps.Downloader,
		converter:  deps.Converter,
		monitors:   deps.Monitors,
		queue:      deps.Queue,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		interval:   deps.Interval,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// RunLoop executes cycles until the context is cancelled. The next run is
// the smallest start + k*interval strictly after the cycle's end.
func (s *MonitoringService) RunLoop(ctx context.Context) error {
	for {
		stats := s.RunOnce(ctx)
		if ctx.Err() != nil {
			return nil
		}

		next := scheduler.NextRun(stats.StartTime, stats.EndTime, s.interval)
		wait := next.Sub(stats.EndTime)
		s.logger.Info("next cycle scheduled", "at", next.Format(time.RFC3339), "in", wait.Round(time.Second).String())
		if !scheduler.Wait(ctx, wait) {
			return nil
		}
	}
}

// RunOnce performs a single monitoring pass over the active watchlist and
// reports its statistics.
func (s *MonitoringService) RunOnce(ctx context.Context) domain.CycleStats {
	stats := domain.CycleStats{StartTime: s.now()}

	symbols, err := s.repository.ActiveSymbols(ctx)
	if err != nil {
		s.logger.Error("cannot snapshot watchlist", "error", err)
		stats.TargetErrors = append(stats.TargetErrors, domain.TargetError{Symbol: "*", Kind: domain.FailureKind(err)})
		stats.EndTime = s.now()
		s.report(ctx, stats)
		return stats
	}
	s.logger.Debug("watchlist snapshot", "symbols", len(symbols))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}
		s.processTarget(ctx, symbol, &stats)
	}

	stats.EndTime = s.now()
	s.report(ctx, stats)
	return stats
}

// processTarget runs one symbol's pipeline and records any failure at the
// target boundary.
func (s *MonitoringService) processTarget(ctx context.Context, symbol string, stats *domain.CycleStats) {
	mon, ok := s.monitors[symbol]
	if !ok {
		s.logger.Error("no extraction configuration for symbol", "symbol", symbol)
		stats.MissingConfigs = append(stats.MissingConfigs, symbol)
		return
	}

	if err := s.runTarget(ctx, mon, stats); err != nil {
		s.logger.Error("target abandoned for this cycle", "symbol", symbol, "error", err)
		stats.TargetErrors = append(stats.TargetErrors, domain.TargetError{
			Symbol: symbol,
			Kind:   domain.FailureKind(err),
		})
		return
	}
	stats.TargetsProcessed++
}

func (s *MonitoringService) runTarget(ctx context.Context, mon monitor.Monitor, stats *domain.CycleStats) error {
	symbol := mon.Symbol()

	session, err := s.fetcher.NewSession(ctx)
	if err != nil {
		return fmt.Errorf("new fetch session: %w", err)
	}
	defer session.Close()

	known, err := s.repository.KnownTitles(ctx, symbol)
	if err != nil {
		return fmt.Errorf("load known titles: %w", err)
	}
	knownSet := make(map[domain.TitleDate]struct{}, len(known))
	for _, td := range known {
		knownSet[td] = struct{}{}
	}

	candidates, err := mon.FetchAndExtract(ctx, session, knownSet)
	if err != nil {
		return err
	}
	s.logger.Info("found new articles", "symbol", symbol, "count", len(candidates))
	stats.CandidatesFound += len(candidates)

	for _, candidate := range candidates {
		retrieved := s.retrieve(ctx, candidate, symbol)

		article := domain.Article{
			Symbol:      symbol,
			Date:        retrieved.PublishedOn,
			Title:       retrieved.Title,
			ContentType: retrieved.ContentType,
			Content:     retrieved.Content,
			SourceURL:   retrieved.DocumentURL,
			RetrievedAt: retrieved.RetrievedAt,
		}

		id, err := s.repository.SaveArticle(ctx, article)
		if err != nil {
			s.logger.Error("article not saved", "symbol", symbol, "title", article.Title, "error", err)
			stats.PersistenceFailures++
			continue
		}
		article.ID = id

		s.queue.Enqueue(ctx, article)
	}

	return nil
}

// retrieve downloads and converts one candidate's document. Failures leave
// the content fields empty for this item only.
func (s *MonitoringService) retrieve(ctx context.Context, candidate domain.ArticleCandidate, symbol string) domain.RetrievedArticle {
	retrieved := domain.RetrievedArticle{ArticleCandidate: candidate}
	if candidate.DocumentURL == "" {
		return retrieved
	}

	path, err := s.downloader.Download(ctx, candidate.DocumentURL, symbol)
	if err != nil {
		s.logger.Warn("document download failed", "symbol", symbol, "title", candidate.Title, "error", err)
		return retrieved
	}

	content, contentType, err := s.converter.Convert(ctx, path)
	if err != nil {
		s.logger.Warn("document conversion failed", "symbol", symbol, "path", path, "error", err)
		return retrieved
	}

	retrievedAt := s.now()
	retrieved.Content = content
	retrieved.ContentType = contentType
	retrieved.RetrievedAt = &retrievedAt
	return retrieved
}

// report logs the cycle outcome, elevating severity when anything failed,
// publishes it out-of-band when a notifier is wired, and updates metrics.
func (s *MonitoringService) report(ctx context.Context, stats domain.CycleStats) {
	elapsed := stats.EndTime.Sub(stats.StartTime)
	fields := []any{
		"elapsed", elapsed.Round(time.Second).String(),
		"targets", stats.TargetsProcessed,
		"articles", stats.CandidatesFound,
		"persistence_failures", stats.PersistenceFailures,
		"target_errors", len(stats.TargetErrors),
		"missing_configs", len(stats.MissingConfigs),
	}
	if stats.Clean() {
		s.logger.Info("monitoring cycle finished", fields...)
	} else {
		s.logger.Warn("monitoring cycle finished with failures", fields...)
	}

	if s.metrics != nil {
		s.metrics.Cycles.Inc()
		s.metrics.CandidatesFound.Add(float64(stats.CandidatesFound))
		s.metrics.PersistenceFailures.Add(float64(stats.PersistenceFailures))
		s.metrics.TargetErrors.Add(float64(len(stats.TargetErrors)))
		s.metrics.CycleDuration.Set(elapsed.Seconds())
	}

	if s.notifier != nil {
		if err := s.notifier.PublishReport(ctx, buildCycleReport(stats)); err != nil {
			s.logger.Warn("cycle report not delivered", "error", err)
		}
	}
}

func buildCycleReport(stats domain.CycleStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "monitoring cycle finished in %ds\n", int(stats.EndTime.Sub(stats.StartTime).Seconds()))
	b.WriteString(" Targets | Articles | Failures |  Errors  \n")
	fmt.Fprintf(&b, "%9d|%10d|%10d|%10d",
		stats.TargetsProcessed, stats.CandidatesFound, stats.PersistenceFailures, len(stats.TargetErrors))

	if len(stats.MissingConfigs) > 0 {
		b.WriteString("\nConfigs not found:\n")
		b.WriteString(strings.Join(stats.MissingConfigs, "\n"))
	}
	if len(stats.TargetErrors) > 0 {
		b.WriteString("\nErrors:\n")
		for i, te := range stats.TargetErrors {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%s: %s", te.Symbol, te.Kind)
		}
	}
	return b.String()
}
