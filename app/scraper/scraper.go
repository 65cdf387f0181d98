package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/puteus/puteus/app/retry"
)

const defaultScrollOffset = 500

// Scraper extracts structured items from an infinite-scroll page by
// cycling extract-chunk, dedup-merge, scroll until the requested item
// count is reached or progress stalls out. Each concern carries its
// own retry policy so predicates never leak between layers.
type Scraper struct {
	ruleset *Ruleset
	session *Session
	config  Config

	navigatePolicy retry.Policy
	chunkPolicy    retry.Policy
	scrollPolicy   retry.Policy
	collectPolicy  retry.Policy
}

func New(ruleset *Ruleset, session *Session, config Config) *Scraper {
	return &Scraper{
		ruleset: ruleset,
		session: session,
		config:  config,
		navigatePolicy: retry.Policy{
			Name:        "navigate",
			MaxAttempts: 3,
			Schedule:    retry.Exponential(500*time.Millisecond, 10*time.Second, 2),
			RetryIf:     isNavigationError,
		},
		chunkPolicy: retry.Policy{
			Name:        "extract_chunk",
			MaxAttempts: 3,
			Schedule:    retry.Constant(500 * time.Millisecond),
			RetryIf:     isChunkError,
		},
		scrollPolicy: retry.Policy{
			Name:        "scroll",
			MaxAttempts: 2,
			Schedule:    retry.Constant(time.Second),
			Suppress:    true,
		},
		collectPolicy: retry.Policy{
			Name:        "collect",
			MaxAttempts: config.MaxRetries,
			Schedule:    retry.Exponential(100*time.Millisecond, 10*time.Second, 2),
			RetryIf:     func(err error) bool { return errors.Is(err, ErrNoProgress) },
		},
	}
}

func isNavigationError(err error) bool {
	var navErr *NavigationError
	return errors.As(err, &navErr)
}

func isChunkError(err error) bool {
	var chunkErr *ChunkError
	return errors.As(err, &chunkErr)
}

// Collect scrapes up to maxItems unique items from url. A negative
// maxItems falls back to the configured default. Partial results are
// returned when the page stops yielding new items before the target is
// reached; the result never exceeds maxItems.
func (s *Scraper) Collect(ctx context.Context, url string, maxItems int) ([]Item, error) {
	page, err := s.session.NewPage()
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("Error closing page", "error", closeErr)
		}
	}()

	return s.collectFromPage(ctx, page, url, maxItems)
}

func (s *Scraper) collectFromPage(ctx context.Context, page Page, url string, maxItems int) ([]Item, error) {
	if maxItems < 0 {
		maxItems = s.config.DefaultMaxPosts
	}
	slog.Info("Extracting items", "url", url, "max_items", maxItems, "ruleset", s.ruleset.Name)

	if err := s.navigate(ctx, page, url); err != nil {
		return nil, err
	}

	time.Sleep(time.Duration(s.config.LoadTimeoutMs) * time.Millisecond)

	if maxItems == 0 {
		return []Item{}, nil
	}

	items := s.collectItems(ctx, page, maxItems)
	slog.Info("Item extraction complete", "url", url, "count", len(items))
	return items, nil
}

func (s *Scraper) navigate(ctx context.Context, page Page, url string) error {
	return s.navigatePolicy.Run(ctx, func() error {
		slog.Debug("Navigating", "url", url)
		if err := page.Navigate(url); err != nil {
			return &NavigationError{URL: url, Err: err}
		}
		return nil
	})
}

func (s *Scraper) collectItems(ctx context.Context, page Page, maxItems int) []Item {
	items := make([]Item, 0, maxItems)
	seen := make(map[string]struct{})

	for len(items) < maxItems {
		err := s.collectPolicy.Run(ctx, func() error {
			return s.addNewItems(ctx, page, &items, seen, maxItems)
		})
		if err != nil {
			slog.Warn("Stopped collecting items", "collected", len(items), "error", err)
			break
		}
	}

	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

// addNewItems extracts one chunk, merges unseen items, and scrolls for
// more. It returns ErrNoProgress when the chunk added nothing new so
// the outer stall policy decides how many stall-then-scroll cycles to
// tolerate.
func (s *Scraper) addNewItems(ctx context.Context, page Page, items *[]Item, seen map[string]struct{}, maxItems int) error {
	chunk, err := s.extractChunk(ctx, page)
	if err != nil {
		slog.Warn("Skipping failed chunk", "error", err)
		chunk = nil
	}

	newCount := 0
	for _, item := range chunk {
		key := item.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		*items = append(*items, item)
		newCount++
	}

	slog.Info("Extracted chunk", "new", newCount, "total", len(*items), "target", maxItems)

	if newCount == 0 {
		if !s.scrollForMore(ctx, page) {
			slog.Debug("Scroll made no progress")
		}
		return ErrNoProgress
	}

	if len(*items) < maxItems && !s.scrollForMore(ctx, page) {
		slog.Warn("Failed to scroll, may not find more items")
	}

	return nil
}

// extractChunk pulls every currently visible post through the ruleset.
// Items that fail to extract are logged and skipped; a failure to query
// the page at all is retried by the chunk policy.
func (s *Scraper) extractChunk(ctx context.Context, page Page) ([]Item, error) {
	var chunk []Item

	err := s.chunkPolicy.Run(ctx, func() error {
		chunk = chunk[:0]

		elements, err := page.Elements(s.ruleset.PostSelector)
		if err != nil {
			return &ChunkError{Err: err}
		}

		for i, el := range elements {
			item, err := s.ruleset.extractItem(el)
			if err != nil {
				slog.Warn("Failed to extract item", "index", i, "error", err)
				continue
			}
			chunk = append(chunk, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return chunk, nil
}

// scrollForMore advances the page past the last visible post element.
// Failures are absorbed by the scroll policy; the return value only
// reports whether the page state advanced.
func (s *Scraper) scrollForMore(ctx context.Context, page Page) bool {
	advanced := false

	_ = s.scrollPolicy.Run(ctx, func() error {
		if err := s.scrollOnce(page); err != nil {
			return err
		}
		advanced = true
		return nil
	})

	return advanced
}

func (s *Scraper) scrollOnce(page Page) error {
	elements, err := page.Elements(s.ruleset.ScrollElementSelector)
	if err != nil {
		return fmt.Errorf("failed to find scroll element: %w", err)
	}
	if len(elements) == 0 {
		return fmt.Errorf("no elements match scroll selector %q", s.ruleset.ScrollElementSelector)
	}

	last := elements[len(elements)-1]
	if err := last.ScrollIntoView(); err != nil {
		return fmt.Errorf("failed to scroll element into view: %w", err)
	}

	offset := float64(defaultScrollOffset)
	if height, err := last.Height(); err != nil {
		slog.Warn("Error measuring scroll element, using default offset", "error", err)
	} else {
		offset = height + 100
	}

	if err := page.Scroll(offset); err != nil {
		return fmt.Errorf("failed to scroll page: %w", err)
	}

	time.Sleep(time.Duration(s.config.ScrollTimeoutMs) * time.Millisecond)
	return nil
}
