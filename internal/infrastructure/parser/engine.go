package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/araddon/dateparse"
	"golang.org/x/net/html"

	"PressWatch/internal/config"
	"PressWatch/internal/domain"
)

// Engine turns a document plus a declarative extraction config into a
// deduplicated list of article candidates. It holds no per-target state;
// one engine serves every symbol.
type Engine struct {
	logger *slog.Logger
}

// NewEngine builds the shared extraction engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{logger: logger}
}

// Extract runs the config against the document and filters the result
// through the known (title, date) set. Candidates come back in document
// order. An absent container yields an empty list, not an error; a field
// or date that fails to parse skips that article only.
func (e *Engine) Extract(doc *html.Node, cfg config.ExtractionConfig, known map[domain.TitleDate]struct{}) ([]domain.ArticleCandidate, error) {
	container, ok := resolveContainer(doc, cfg)
	if !ok {
		return nil, nil
	}

	nodes, err := articleNodes(container, cfg, container != doc)
	if err != nil {
		return nil, err
	}

	var candidates []domain.ArticleCandidate
	for _, node := range nodes {
		title := fieldText(node, cfg.TitleXPath)
		date := dateText(node, cfg)
		if title == "" || date == "" {
			continue
		}

		published, err := dateparse.ParseAny(date)
		if err != nil {
			e.warn("unparsable article date", "date", date, "title", clip(title))
			continue
		}
		published = midnight(published)

		candidate := domain.ArticleCandidate{
			Title:       title,
			Date:        date,
			PublishedOn: published,
			DocumentURL: candidateURL(node, cfg),
		}
		if _, seen := known[candidate.Identity()]; seen {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// resolveContainer narrows the document to the configured container node.
// The second return is false only when a container was requested and the
// page does not carry it, which means no articles on this load.
func resolveContainer(doc *html.Node, cfg config.ExtractionConfig) (*html.Node, bool) {
	var selector string
	switch {
	case cfg.ContainerID != "":
		selector = fmt.Sprintf("[id=%q]", cfg.ContainerID)
	case cfg.ContainerClass != "":
		selector = fmt.Sprintf("[class*=%q]", cfg.ContainerClass)
	default:
		return doc, true
	}

	sel := goquery.NewDocumentFromNode(doc).Find(selector).First()
	if len(sel.Nodes) == 0 {
		return nil, false
	}
	return sel.Nodes[0], true
}

func articleNodes(container *html.Node, cfg config.ExtractionConfig, scoped bool) ([]*html.Node, error) {
	var expr string
	switch {
	case cfg.ArticleTag != "":
		expr = ".//" + cfg.ArticleTag
	case cfg.ArticleXPath != "":
		expr = cfg.ArticleXPath
		if scoped {
			expr = relativize(expr)
		}
	default:
		return nil, nil
	}

	nodes, err := htmlquery.QueryAll(container, expr)
	if err != nil {
		return nil, fmt.Errorf("article selector %q: %w", expr, err)
	}
	return nodes, nil
}

// relativize rewrites an absolute-root xpath so it evaluates against the
// resolved container instead of the document root.
func relativize(expr string) string {
	if strings.HasPrefix(expr, "/") {
		return "." + expr
	}
	return expr
}

// fieldText evaluates the selector and applies the text rule to the first
// match: attribute reads are used directly, elements contribute their
// direct text, falling back to the full descendant text when that is empty.
func fieldText(article *html.Node, expr string) string {
	if expr == "" {
		return ""
	}
	nodes, err := htmlquery.QueryAll(article, relativize(expr))
	if err != nil || len(nodes) == 0 {
		return ""
	}
	return nodeText(nodes[0])
}

// dateText handles the date_join form: every match contributes its text,
// empties are dropped, and the rest joins with single spaces in document
// order.
func dateText(article *html.Node, cfg config.ExtractionConfig) string {
	if cfg.DateXPath == "" {
		return ""
	}
	if !cfg.DateJoin {
		return fieldText(article, cfg.DateXPath)
	}

	nodes, err := htmlquery.QueryAll(article, relativize(cfg.DateXPath))
	if err != nil {
		return ""
	}
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if t := nodeText(n); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// candidateURL prefers the explicit URL selector, then the link-text
// fallback for targets that expose the document directly on the list page.
// An empty result is valid: retrieval is simply skipped for the item.
func candidateURL(article *html.Node, cfg config.ExtractionConfig) string {
	if cfg.URLXPath != "" {
		if nodes, err := htmlquery.QueryAll(article, relativize(cfg.URLXPath)); err == nil && len(nodes) > 0 {
			n := nodes[0]
			if href := strings.TrimSpace(htmlquery.SelectAttr(n, "href")); href != "" {
				return resolveURL(href, cfg.URL)
			}
			if v := nodeText(n); v != "" {
				return resolveURL(v, cfg.URL)
			}
		}
	}

	if cfg.PDFLinkText != "" && !cfg.RequiresArticleVisit {
		if href := LinkByText(article, cfg.PDFLinkText); href != "" {
			return resolveURL(href, cfg.URL)
		}
	}

	return ""
}

// LinkByText finds the first anchor under node whose text contains want
// and returns its href, or "".
func LinkByText(node *html.Node, want string) string {
	var href string
	goquery.NewDocumentFromNode(node).Find("a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(strings.TrimSpace(a.Text()), want) {
			href, _ = a.Attr("href")
			return false
		}
		return true
	})
	return strings.TrimSpace(href)
}

// resolveURL makes host-relative links absolute against the source page's
// scheme and host.
func resolveURL(raw, sourceURL string) string {
	if !strings.HasPrefix(raw, "/") {
		return raw
	}
	base, err := url.Parse(sourceURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return raw
	}
	return base.Scheme + "://" + base.Host + raw
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	if direct := strings.TrimSpace(b.String()); direct != "" {
		return direct
	}
	return strings.TrimSpace(htmlquery.InnerText(n))
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clip(s string) string {
	if len(s) > 32 {
		return s[:32]
	}
	return s
}

func (e *Engine) warn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
