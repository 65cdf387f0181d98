package scraper

import (
	"errors"
	"fmt"
)

// Config tunes scraper behavior. Field names follow the recognized
// environment options (MAX_RETRIES, SCROLL_TIMEOUT_MS, LOAD_TIMEOUT_MS,
// DEFAULT_MAX_POSTS).
type Config struct {
	MaxRetries      int
	ScrollTimeoutMs int
	LoadTimeoutMs   int
	DefaultMaxPosts int
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      3,
		ScrollTimeoutMs: 500,
		LoadTimeoutMs:   500,
		DefaultMaxPosts: 50,
	}
}

// ErrNotInitialized is returned when a page is requested outside an
// open session scope.
var ErrNotInitialized = errors.New("browser session is not open")

// ErrNoProgress marks a collection pass that produced zero new unique
// items. The outer stall policy retries on it; it is never surfaced to
// the caller.
var ErrNoProgress = errors.New("no new items extracted")

// NavigationError is raised when navigating to the target URL fails.
// Exhausting its retries aborts the whole scrape.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("failed to navigate to %s: %v", e.URL, e.Err)
}

func (e *NavigationError) Unwrap() error {
	return e.Err
}

// ChunkError wraps a failure to extract the currently visible batch of
// items. It is retried by the chunk policy and otherwise skipped.
type ChunkError struct {
	Err error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("failed to extract item chunk: %v", e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// Page is the browser page surface the scraper drives. The rod-backed
// implementation lives in browser.go; tests substitute fakes.
type Page interface {
	Navigate(url string) error
	Elements(selector string) ([]Element, error)
	Scroll(deltaY float64) error
	Close() error
}

// Element is one DOM element handle.
type Element interface {
	Child(selector string) (Element, error)
	Text() (string, error)
	HTML() (string, error)
	TextContent() (string, error)
	Attr(name string) (string, error)
	ScrollIntoView() error
	Height() (float64, error)
}
