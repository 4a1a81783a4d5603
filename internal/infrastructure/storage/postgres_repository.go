package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"PressWatch/internal/domain"
	"PressWatch/internal/ports"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// PostgresRepository persists press releases and summaries.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var (
	_ ports.Repository    = (*PostgresRepository)(nil)
	_ ports.ArticleReader = (*PostgresRepository)(nil)
)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(db),
	}
}

// ActiveSymbols returns the watched symbols currently marked active.
func (r *PostgresRepository) ActiveSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.builder.
		Select("symbol").
		From("investing.watchlist").
		Where(sq.Eq{"active": true}).
		OrderBy("symbol").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return symbols, nil
}

// KnownTitles returns the (title, date) identities already stored for a
// symbol; the dedup gate checks candidates against this set.
func (r *PostgresRepository) KnownTitles(ctx context.Context, symbol string) ([]domain.TitleDate, error) {
	rows, err := r.builder.
		Select("title", "date").
		From("investing.press_release").
		Where(sq.Eq{"symbol": symbol}).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query known titles: %w", err)
	}
	defer rows.Close()

	var known []domain.TitleDate
	for rows.Next() {
		var (
			title string
			date  time.Time
		)
		if err := rows.Scan(&title, &date); err != nil {
			return nil, fmt.Errorf("scan title row: %w", err)
		}
		known = append(known, domain.TitleDate{Title: title, Date: date.Format(domain.DateLayout)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return known, nil
}

// SaveArticle inserts one press release and returns its id. Articles are
// never updated afterwards; a conflicting insert surfaces as a
// persistence failure.
func (r *PostgresRepository) SaveArticle(ctx context.Context, article domain.Article) (int64, error) {
	var id int64
	err := r.builder.
		Insert("investing.press_release").
		Columns("symbol", "date", "title", "content_type", "content", "url", "retrieved_ts").
		Values(
			article.Symbol,
			article.Date,
			article.Title,
			nullString(article.ContentType),
			nullString(article.Content),
			nullString(article.SourceURL),
			nullTime(article.RetrievedAt),
		).
		Suffix("RETURNING id").
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: insert article: %v", domain.ErrPersistence, err)
	}
	return id, nil
}

// SaveSummary appends one summary row and returns its id.
func (r *PostgresRepository) SaveSummary(ctx context.Context, summary domain.Summary) (int64, error) {
	var id int64
	err := r.builder.
		Insert("investing.pr_summary").
		Columns("pr_id", "category", "sentiment", "summary", "created_at", "model_used", "prompt").
		Values(
			summary.ArticleID,
			nullString(summary.Category),
			nullString(summary.Sentiment),
			summary.Text,
			summary.CreatedAt,
			nullString(summary.Model),
			nullString(summary.Prompt),
		).
		Suffix("RETURNING id").
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%w: insert summary: %v", domain.ErrPersistence, err)
	}
	return id, nil
}

// UnsummarizedArticles returns stored articles with content that have no
// summary yet; the worker drains this backlog at startup.
func (r *PostgresRepository) UnsummarizedArticles(ctx context.Context) ([]domain.Article, error) {
	rows, err := r.builder.
		Select(articleColumns("pr")...).
		From("investing.press_release pr").
		LeftJoin("investing.pr_summary ps ON ps.pr_id = pr.id").
		Where("ps.id IS NULL AND pr.content IS NOT NULL").
		OrderBy("pr.id").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query unsummarized: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// ArticleByID looks up one article.
func (r *PostgresRepository) ArticleByID(ctx context.Context, id int64) (domain.Article, error) {
	row := r.builder.
		Select(articleColumns("pr")...).
		From("investing.press_release pr").
		Where(sq.Eq{"pr.id": id}).
		QueryRowContext(ctx)
	return scanArticle(row)
}

// ArticleBySymbolTitle looks up one article by its external identity.
func (r *PostgresRepository) ArticleBySymbolTitle(ctx context.Context, symbol, title string) (domain.Article, error) {
	row := r.builder.
		Select(articleColumns("pr")...).
		From("investing.press_release pr").
		Where(sq.Eq{"pr.symbol": symbol, "pr.title": title}).
		QueryRowContext(ctx)
	return scanArticle(row)
}

// ArticleWithLatestSummary returns an article together with its most
// recent summary, or a nil summary when none exists yet.
func (r *PostgresRepository) ArticleWithLatestSummary(ctx context.Context, id int64) (domain.Article, *domain.Summary, error) {
	article, err := r.ArticleByID(ctx, id)
	if err != nil {
		return domain.Article{}, nil, err
	}

	row := r.builder.
		Select("id", "pr_id", "category", "sentiment", "summary", "created_at", "model_used", "prompt").
		From("investing.pr_summary").
		Where(sq.Eq{"pr_id": id}).
		OrderBy("created_at DESC").
		Limit(1).
		QueryRowContext(ctx)

	var (
		summary   domain.Summary
		category  sql.NullString
		sentiment sql.NullString
		model     sql.NullString
		prompt    sql.NullString
	)
	err = row.Scan(&summary.ID, &summary.ArticleID, &category, &sentiment,
		&summary.Text, &summary.CreatedAt, &model, &prompt)
	if errors.Is(err, sql.ErrNoRows) {
		return article, nil, nil
	}
	if err != nil {
		return domain.Article{}, nil, fmt.Errorf("scan summary: %w", err)
	}

	summary.Category = category.String
	summary.Sentiment = sentiment.String
	summary.Model = model.String
	summary.Prompt = prompt.String
	return article, &summary, nil
}

func articleColumns(alias string) []string {
	cols := []string{"id", "symbol", "date", "title", "content_type", "content", "url", "retrieved_ts"}
	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = alias + "." + c
	}
	return qualified
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article     domain.Article
		contentType sql.NullString
		content     sql.NullString
		sourceURL   sql.NullString
		retrievedAt sql.NullTime
	)
	err := row.Scan(&article.ID, &article.Symbol, &article.Date, &article.Title,
		&contentType, &content, &sourceURL, &retrievedAt)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	article.ContentType = contentType.String
	article.Content = content.String
	article.SourceURL = sourceURL.String
	if retrievedAt.Valid {
		t := retrievedAt.Time
		article.RetrievedAt = &t
	}
	return article, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
