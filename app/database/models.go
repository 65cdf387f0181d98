package database

import (
	"time"
)

// Source represents a watched origin record in the database
type Source struct {
	ID           string // Database UUID
	SiteID       *string
	Type         SourceType
	URI          string
	Selector     string
	SelectorKind SelectorKind
	Locale       string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// WatchEntry is one link of a source's append-only watch-log chain.
// PreviousID is nil on the first entry for a source. ContentHash is
// nullable for historical rows but always set on rows produced now.
type WatchEntry struct {
	ID          string
	SourceID    string
	PreviousID  *string
	ContentHash *string
	Active      bool
	CreatedAt   time.Time
}

// Article is the artifact materialized when a check cycle detects change
type Article struct {
	ID                 string
	WatchlogID         string
	Title              string
	URI                string
	Description        *string
	Content            string
	ContentExtractedAt *time.Time
	IsNewsworthy       bool
	Active             bool
	CreatedAt          time.Time
}
