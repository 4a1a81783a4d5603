package domain

import "errors"

// Failure categories surfaced in cycle statistics. None of them is
// allowed to stop a cycle or either long-lived loop.
var (
	// ErrConfigurationMissing marks a watched symbol with no extraction config.
	ErrConfigurationMissing = errors.New("extraction configuration missing")
	// ErrFetch marks an unreachable or unparsable source page.
	ErrFetch = errors.New("source fetch failed")
	// ErrExtraction marks a field or date that failed to parse for one article.
	ErrExtraction = errors.New("article extraction failed")
	// ErrRetrieval marks a failed document download or conversion.
	ErrRetrieval = errors.New("document retrieval failed")
	// ErrPersistence marks a rejected insert.
	ErrPersistence = errors.New("persistence failed")
	// ErrSummarization marks an endpoint error or malformed model reply.
	ErrSummarization = errors.New("summarization failed")
)

// FailureKind classifies an error for CycleStats.TargetErrors.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrConfigurationMissing):
		return "ConfigurationMissing"
	case errors.Is(err, ErrFetch):
		return "FetchFailure"
	case errors.Is(err, ErrExtraction):
		return "ExtractionFailure"
	case errors.Is(err, ErrRetrieval):
		return "RetrievalFailure"
	case errors.Is(err, ErrPersistence):
		return "PersistenceFailure"
	case errors.Is(err, ErrSummarization):
		return "SummarizationFailure"
	default:
		return "TargetFailure"
	}
}
