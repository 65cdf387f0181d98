package watch

import (
	"context"
	"errors"
)

// ErrSourceNotFound is returned when a check targets a source that does
// not exist or is inactive. Callers use it to distinguish configuration
// problems from transient fetch failures.
var ErrSourceNotFound = errors.New("source not found")

// ErrAllSourcesFailed is returned by batch checks when every single
// source in the batch failed.
var ErrAllSourcesFailed = errors.New("all source checks failed")

// Fetcher is the fetch boundary of the check cycle.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (string, error)
}

// CheckOutcome is the per-source result of a batch check. Article is
// nil when no change was detected, Err is nil unless the cycle failed.
type CheckOutcome struct {
	SourceID string
	Article  *ArticleResult
	Err      error
}

// ArticleResult is the materialized article returned to callers.
type ArticleResult struct {
	ID           string
	WatchlogID   string
	Title        string
	URI          string
	Description  *string
	IsNewsworthy bool
}
