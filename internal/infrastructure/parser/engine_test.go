package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"PressWatch/internal/config"
	"PressWatch/internal/domain"
)

func parseFixture(t *testing.T, page string) *html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

const newsPage = `
<html><body>
  <div id="news" class="release-list">
    <article>
      <div class="headline">Q1 Results</div>
      <div class="date-time">March 3, 2024</div>
      <a href="/files/q1.pdf">View PDF</a>
    </article>
    <article>
      <div class="headline">FDA Update</div>
      <div class="date-time">2024-02-14</div>
      <a href="https://cdn.example.com/fda.pdf">View PDF</a>
    </article>
  </div>
</body></html>`

func newsConfig() config.ExtractionConfig {
	return config.ExtractionConfig{
		URL:         "https://host.example/a/b",
		ContainerID: "news",
		ArticleTag:  "article",
		TitleXPath:  ".//div[@class='headline']",
		DateXPath:   ".//div[@class='date-time']",
		PDFLinkText: "View PDF",
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	doc := parseFixture(t, newsPage)

	candidates, err := engine.Extract(doc, newsConfig(), nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.Title != "Q1 Results" {
		t.Fatalf("unexpected title: %q", first.Title)
	}
	if first.Date != "March 3, 2024" {
		t.Fatalf("unexpected raw date: %q", first.Date)
	}
	want := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	if !first.PublishedOn.Equal(want) {
		t.Fatalf("unexpected parsed date: %v", first.PublishedOn)
	}
	if first.DocumentURL != "https://host.example/files/q1.pdf" {
		t.Fatalf("relative link not resolved: %q", first.DocumentURL)
	}
	if candidates[1].DocumentURL != "https://cdn.example.com/fda.pdf" {
		t.Fatalf("absolute link altered: %q", candidates[1].DocumentURL)
	}
}

func TestExtractDedupIsIdempotent(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	doc := parseFixture(t, newsPage)
	cfg := newsConfig()

	first, err := engine.Extract(doc, cfg, map[domain.TitleDate]struct{}{})
	if err != nil {
		t.Fatalf("first Extract error: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("expected candidates on first run")
	}

	known := make(map[domain.TitleDate]struct{}, len(first))
	for _, c := range first {
		known[c.Identity()] = struct{}{}
	}

	second, err := engine.Extract(doc, cfg, known)
	if err != nil {
		t.Fatalf("second Extract error: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected no candidates on second run, got %d", len(second))
	}
}

func TestExtractAbsentContainerYieldsEmpty(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	doc := parseFixture(t, `<html><body><article><div class="headline">X</div></article></body></html>`)

	cfg := newsConfig()
	candidates, err := engine.Extract(doc, cfg, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected empty result without container, got %d", len(candidates))
	}
}

func TestExtractContainerByClassSubstring(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	doc := parseFixture(t, newsPage)

	cfg := newsConfig()
	cfg.ContainerID = ""
	cfg.ContainerClass = "release"

	candidates, err := engine.Extract(doc, cfg, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates via class container, got %d", len(candidates))
	}
}

func TestExtractSkipsArticlesMissingTitleOrDate(t *testing.T) {
	t.Parallel()

	page := `
	<html><body><div id="news">
	  <article><div class="headline">No Date</div></article>
	  <article><div class="date-time">March 3, 2024</div></article>
	  <article>
	    <div class="headline">Complete</div>
	    <div class="date-time">March 4, 2024</div>
	  </article>
	</div></body></html>`

	engine := NewEngine(nil)
	candidates, err := engine.Extract(parseFixture(t, page), newsConfig(), nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Title != "Complete" {
		t.Fatalf("unexpected survivor: %q", candidates[0].Title)
	}
}

func TestExtractSkipsUnparsableDate(t *testing.T) {
	t.Parallel()

	page := `
	<html><body><div id="news">
	  <article>
	    <div class="headline">Bad Date</div>
	    <div class="date-time">not a date at all %%</div>
	  </article>
	  <article>
	    <div class="headline">Good Date</div>
	    <div class="date-time">January 5, 2024</div>
	  </article>
	</div></body></html>`

	engine := NewEngine(nil)
	candidates, err := engine.Extract(parseFixture(t, page), newsConfig(), nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Good Date" {
		t.Fatalf("expected only the parsable article, got %+v", candidates)
	}
}

func TestExtractDateJoin(t *testing.T) {
	t.Parallel()

	page := `
	<html><body><div id="news">
	  <article>
	    <div class="headline">Joined</div>
	    <span class="date-part">March</span>
	    <span class="date-part"> </span>
	    <span class="date-part">3,</span>
	    <span class="date-part">2024</span>
	  </article>
	</div></body></html>`

	cfg := newsConfig()
	cfg.DateXPath = ".//span[@class='date-part']"
	cfg.DateJoin = true

	engine := NewEngine(nil)
	candidates, err := engine.Extract(parseFixture(t, page), cfg, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Date != "March 3, 2024" {
		t.Fatalf("unexpected joined date: %q", candidates[0].Date)
	}
}

func TestExtractArticleXPathRewrittenRelativeToContainer(t *testing.T) {
	t.Parallel()

	page := `
	<html><body>
	  <div class="widget-list">
	    <article>
	      <div class="headline">Inside</div>
	      <div class="date-time">March 3, 2024</div>
	    </article>
	  </div>
	  <article>
	    <div class="headline">Outside</div>
	    <div class="date-time">March 4, 2024</div>
	  </article>
	</body></html>`

	cfg := newsConfig()
	cfg.ContainerID = ""
	cfg.ContainerClass = "widget-list"
	cfg.ArticleTag = ""
	cfg.ArticleXPath = "//article"

	engine := NewEngine(nil)
	candidates, err := engine.Extract(parseFixture(t, page), cfg, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Inside" {
		t.Fatalf("expected only the contained article, got %+v", candidates)
	}
}

func TestExtractURLXPathAttribute(t *testing.T) {
	t.Parallel()

	page := `
	<html><body><div id="news">
	  <article>
	    <div class="headline">Linked</div>
	    <div class="date-time">March 3, 2024</div>
	    <div class="file-link"><a href="/docs/linked.pdf">download</a></div>
	  </article>
	</div></body></html>`

	cfg := newsConfig()
	cfg.PDFLinkText = ""
	cfg.URLXPath = ".//div[@class='file-link']/a/@href"

	engine := NewEngine(nil)
	candidates, err := engine.Extract(parseFixture(t, page), cfg, nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].DocumentURL != "https://host.example/docs/linked.pdf" {
		t.Fatalf("unexpected url: %q", candidates[0].DocumentURL)
	}
}

func TestExtractMissingURLStillEmitsCandidate(t *testing.T) {
	t.Parallel()

	page := `
	<html><body><div id="news">
	  <article>
	    <div class="headline">No Link</div>
	    <div class="date-time">March 3, 2024</div>
	  </article>
	</div></body></html>`

	engine := NewEngine(nil)
	candidates, err := engine.Extract(parseFixture(t, page), newsConfig(), nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].DocumentURL != "" {
		t.Fatalf("expected empty document url, got %q", candidates[0].DocumentURL)
	}
}

func TestExtractDescendantTextFallback(t *testing.T) {
	t.Parallel()

	page := `
	<html><body><div id="news">
	  <article>
	    <div class="headline"><span><b>Nested</b> Title</span></div>
	    <div class="date-time">March 3, 2024</div>
	  </article>
	</div></body></html>`

	engine := NewEngine(nil)
	candidates, err := engine.Extract(parseFixture(t, page), newsConfig(), nil)
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Title != "Nested Title" {
		t.Fatalf("descendant text fallback failed: %q", candidates[0].Title)
	}
}

func TestResolveURL(t *testing.T) {
	t.Parallel()

	got := resolveURL("/x/y", "https://host.example/a/b")
	if got != "https://host.example/x/y" {
		t.Fatalf("unexpected resolution: %q", got)
	}

	if got := resolveURL("https://other.example/z", "https://host.example/a/b"); got != "https://other.example/z" {
		t.Fatalf("absolute url altered: %q", got)
	}
}
