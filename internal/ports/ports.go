package ports

import (
	"context"

	"golang.org/x/net/html"

	"PressWatch/internal/domain"
)

// Repository persists articles and summaries and answers the dedup
// and watchlist queries. All operations are atomic per call.
type Repository interface {
	ActiveSymbols(ctx context.Context) ([]string, error)
	KnownTitles(ctx context.Context, symbol string) ([]domain.TitleDate, error)
	SaveArticle(ctx context.Context, article domain.Article) (int64, error)
	SaveSummary(ctx context.Context, summary domain.Summary) (int64, error)
	UnsummarizedArticles(ctx context.Context) ([]domain.Article, error)
}

// ArticleReader is the point-lookup surface consumed by presentation
// layers outside this core. The latest summary by timestamp is
// authoritative.
type ArticleReader interface {
	ArticleByID(ctx context.Context, id int64) (domain.Article, error)
	ArticleBySymbolTitle(ctx context.Context, symbol, title string) (domain.Article, error)
	ArticleWithLatestSummary(ctx context.Context, id int64) (domain.Article, *domain.Summary, error)
}

// FetchSession retrieves rendered documents for one target. Sessions are
// not safe for concurrent use and must be closed when the target is done.
type FetchSession interface {
	Fetch(ctx context.Context, url string) (*html.Node, error)
	Close() error
}

// PageFetcher hands out a fresh fetch session per target so transient
// fetch state never leaks across targets or cycles.
type PageFetcher interface {
	NewSession(ctx context.Context) (FetchSession, error)
}

// Downloader saves a linked document to local storage and returns its path.
type Downloader interface {
	Download(ctx context.Context, url, symbol string) (string, error)
}

// Converter turns a downloaded document into normalized text plus its
// MIME content type.
type Converter interface {
	Convert(ctx context.Context, path string) (content, contentType string, err error)
}

// Summarizer calls the external model endpoint for one article.
type Summarizer interface {
	Summarize(ctx context.Context, article domain.Article) (domain.Summary, error)
}

// Notifier publishes cycle reports to an out-of-band channel.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}
