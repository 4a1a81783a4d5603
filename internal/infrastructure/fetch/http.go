package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"PressWatch/internal/ports"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// HTTPFetcher hands out per-target fetch sessions backed by plain HTTP.
// Each session carries its own cookie jar so state from one target never
// bleeds into the next.
type HTTPFetcher struct {
	timeout   time.Duration
	userAgent string
}

var _ ports.PageFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds the fetcher; timeout bounds every page load.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &HTTPFetcher{timeout: timeout, userAgent: defaultUserAgent}
}

// NewSession creates a fresh session scoped to one target.
func (f *HTTPFetcher) NewSession(ctx context.Context) (ports.FetchSession, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("new cookie jar: %w", err)
	}
	return &httpSession{
		client:    &http.Client{Timeout: f.timeout, Jar: jar},
		userAgent: f.userAgent,
	}, nil
}

type httpSession struct {
	client    *http.Client
	userAgent string
}

// Fetch downloads and parses one page.
func (s *httpSession) Fetch(ctx context.Context, pageURL string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("source returned %s", resp.Status)
	}

	doc, err := htmlquery.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}

// Close releases the session's connections.
func (s *httpSession) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
