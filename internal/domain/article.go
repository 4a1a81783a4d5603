package domain

import "time"

// DateLayout is the canonical day format used for dedup identity.
const DateLayout = "2006-01-02"

// ArticleCandidate is an extracted, not-yet-persisted press release.
// Date carries the raw text as found on the page; PublishedOn is its
// parsed calendar day.
type ArticleCandidate struct {
	Title       string
	Date        string
	PublishedOn time.Time
	DocumentURL string
}

// Identity returns the dedup key for a candidate.
func (c ArticleCandidate) Identity() TitleDate {
	return TitleDate{Title: c.Title, Date: c.PublishedOn.Format(DateLayout)}
}

// RetrievedArticle is a candidate plus the outcome of document retrieval.
// Content and ContentType are empty when retrieval or conversion failed,
// which is a valid terminal state for the item.
type RetrievedArticle struct {
	ArticleCandidate
	Content     string
	ContentType string
	RetrievedAt *time.Time
}

// Article is the persisted press release. Never mutated after insert.
type Article struct {
	ID          int64
	Symbol      string
	Date        time.Time
	Title       string
	ContentType string
	Content     string
	SourceURL   string
	RetrievedAt *time.Time
}

// Summary is one summarization result for an article. Summaries are
// append-only; the latest by CreatedAt is authoritative for reads.
type Summary struct {
	ID        int64
	ArticleID int64
	Category  string
	Sentiment string
	Text      string
	CreatedAt time.Time
	Model     string
	Prompt    string
}

// TitleDate is the dedup identity of an article within a symbol.
// Date uses DateLayout.
type TitleDate struct {
	Title string
	Date  string
}

// TargetError records which symbol failed during a cycle and how.
type TargetError struct {
	Symbol string
	Kind   string
}

// CycleStats aggregates the outcome of one monitoring pass. Built fresh
// each cycle, reported, then discarded.
type CycleStats struct {
	StartTime           time.Time
	EndTime             time.Time
	TargetsProcessed    int
	CandidatesFound     int
	PersistenceFailures int
	TargetErrors        []TargetError
	MissingConfigs      []string
}

// Clean reports whether the cycle finished without anything worth
// elevated logging.
func (s CycleStats) Clean() bool {
	return len(s.MissingConfigs) == 0 && s.PersistenceFailures == 0 && len(s.TargetErrors) == 0
}
