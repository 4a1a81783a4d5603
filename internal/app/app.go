package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"PressWatch/internal/config"
	"PressWatch/internal/infrastructure/convert"
	"PressWatch/internal/infrastructure/download"
	"PressWatch/internal/infrastructure/fetch"
	"PressWatch/internal/infrastructure/llm"
	"PressWatch/internal/infrastructure/metrics"
	"PressWatch/internal/infrastructure/parser"
	"PressWatch/internal/infrastructure/storage"
	"PressWatch/internal/infrastructure/telegram"
	"PressWatch/internal/monitor"
	"PressWatch/internal/ports"
	"PressWatch/internal/usecase"
)

// Application wires configuration to the two long-lived loops.
type Application struct {
	cfg        config.Config
	db         *sql.DB
	monitoring *usecase.MonitoringService
	worker     *usecase.SummaryWorker
	logger     *slog.Logger
}

// New builds a runnable application instance. All configuration problems
// surface here; past this point failures are per target or per item.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Application, error) {
	targets, err := config.LoadTargets(cfg.TargetsPath)
	if err != nil {
		return nil, err
	}

	engine := parser.NewEngine(logger.With("component", "engine"))
	registry := monitor.NewRegistry(parser.NewConfigMonitorFactory(engine, logger.With("component", "monitor")))
	monitors, err := registry.Build(targets)
	if err != nil {
		return nil, fmt.Errorf("build monitors: %w", err)
	}

	db, err := storage.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	repository := storage.NewPostgresRepository(db)

	var notifier ports.Notifier
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier = telegram.NewNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	}

	metricSet := metrics.New()
	if cfg.MetricsAddr != "" {
		metricSet.Serve(cfg.MetricsAddr, logger.With("component", "metrics"))
	}

	queue := usecase.NewSummaryQueue(cfg.QueueSize, logger.With("component", "queue"))

	monitoring := usecase.NewMonitoringService(usecase.MonitoringDeps{
		Repository: repository,
		Fetcher:    fetch.NewHTTPFetcher(time.Duration(cfg.FetchTimeout) * time.Second),
		Downloader: download.NewFileDownloader(cfg.DownloadDir, time.Duration(cfg.DownloadTimeout)*time.Second, logger.With("component", "downloader")),
		Converter:  convert.NewService("", logger.With("component", "converter")),
		Monitors:   monitors,
		Queue:      queue,
		Notifier:   notifier,
		Metrics:    metricSet,
		Interval:   cfg.Interval(),
		Logger:     logger.With("component", "monitoring"),
	})

	worker := usecase.NewSummaryWorker(
		queue,
		llm.NewClient(cfg.SummaryURL, time.Duration(cfg.SummaryTimeout)*time.Second),
		repository,
		metricSet,
		logger.With("component", "summary"),
	)

	return &Application{
		cfg:        cfg,
		db:         db,
		monitoring: monitoring,
		worker:     worker,
		logger:     logger,
	}, nil
}

// Run starts the summarization worker and the polling loop and blocks
// until the context is cancelled. The historical backlog is queued once
// at startup alongside both loops.
func (a *Application) Run(ctx context.Context) error {
	defer a.db.Close()

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- a.worker.Run(ctx)
	}()

	go func() {
		if err := a.worker.EnqueueBacklog(ctx); err != nil {
			a.logger.Warn("backlog enqueue incomplete", "error", err)
		}
	}()

	err := a.monitoring.RunLoop(ctx)
	if werr := <-workerDone; werr != nil && err == nil {
		err = werr
	}
	return err
}
