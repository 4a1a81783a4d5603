package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"PressWatch/internal/config"
	"PressWatch/internal/domain"
	"PressWatch/internal/monitor"
	"PressWatch/internal/ports"
)

// ConfigMonitor is the generic monitor: one implementation interpreting the
// declarative extraction config for any symbol. It replaces the one-type-
// per-symbol approach this codebase grew out of.
type ConfigMonitor struct {
	symbol string
	cfg    config.ExtractionConfig
	engine *Engine
	logger *slog.Logger
}

var _ monitor.Monitor = (*ConfigMonitor)(nil)

// NewConfigMonitorFactory returns the fallback factory used for every
// target that does not name a strategy.
func NewConfigMonitorFactory(engine *Engine, logger *slog.Logger) monitor.Factory {
	return func(symbol string, cfg config.ExtractionConfig) (monitor.Monitor, error) {
		if cfg.URL == "" {
			return nil, fmt.Errorf("source url is required")
		}
		symbol = strings.ToUpper(symbol)
		return &ConfigMonitor{
			symbol: symbol,
			cfg:    cfg,
			engine: engine,
			logger: logger.With("symbol", symbol),
		}, nil
	}
}

// Symbol identifies the watched entity.
func (m *ConfigMonitor) Symbol() string {
	return m.symbol
}

// FetchAndExtract loads the source page, runs the extraction engine against
// it, and, for targets that only expose the document link on a detail page,
// visits each candidate's page to pick up the actual document URL.
func (m *ConfigMonitor) FetchAndExtract(ctx context.Context, session ports.FetchSession, known map[domain.TitleDate]struct{}) ([]domain.ArticleCandidate, error) {
	doc, err := session.Fetch(ctx, m.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetch, m.cfg.URL, err)
	}

	candidates, err := m.engine.Extract(doc, m.cfg, known)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtraction, err)
	}
	m.logger.Debug("extracted candidates", "count", len(candidates))

	if m.cfg.RequiresArticleVisit && m.cfg.PDFLinkText != "" {
		for i := range candidates {
			m.resolveDocumentLink(ctx, session, &candidates[i])
		}
	}

	return candidates, nil
}

// resolveDocumentLink swaps the candidate's page URL for the document link
// found behind it. A miss clears the URL so retrieval is skipped for the
// item; it never fails the batch.
func (m *ConfigMonitor) resolveDocumentLink(ctx context.Context, session ports.FetchSession, c *domain.ArticleCandidate) {
	if c.DocumentURL == "" {
		return
	}

	page, err := session.Fetch(ctx, c.DocumentURL)
	if err != nil {
		m.logger.Warn("article page fetch failed", "url", c.DocumentURL, "title", clip(c.Title), "error", err)
		c.DocumentURL = ""
		return
	}

	href := LinkByText(page, m.cfg.PDFLinkText)
	if href == "" {
		m.logger.Warn("document link not found on article page", "title", clip(c.Title))
		c.DocumentURL = ""
		return
	}
	c.DocumentURL = resolveURL(href, c.DocumentURL)
}
