package watch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/puteus/puteus/app/database"
	"github.com/puteus/puteus/app/extract"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 200
	minDescriptionLength = 30
	defaultTitle         = "New content from source"
)

// Service drives the check cycle for watched sources: fetch, extract,
// hash, append to the watch-log chain, and materialize an article when
// the hash differs from the previous entry.
type Service struct {
	sources  database.SourceRepository
	entries  database.WatchLogRepository
	articles database.ArticleRepository
	fetcher  Fetcher
}

func NewService(sources database.SourceRepository, entries database.WatchLogRepository,
	articles database.ArticleRepository, fetcher Fetcher) *Service {
	return &Service{
		sources:  sources,
		entries:  entries,
		articles: articles,
		fetcher:  fetcher,
	}
}

// Check runs one cycle for a source. The chain grows on every cycle
// regardless of change; an article is created only when the new hash
// differs from the previous entry's hash, or when no previous entry
// exists.
func (s *Service) Check(ctx context.Context, sourceID string) (*ArticleResult, error) {
	slog.Info("Checking source for changes", "source_id", sourceID)

	source, err := s.sources.GetActiveSource(sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up source: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}

	rawContent, err := s.fetcher.Fetch(ctx, source.URI)
	if err != nil {
		return nil, err
	}

	extracted, err := s.extractContent(source, rawContent)
	if err != nil {
		return nil, err
	}

	contentHash := extract.Hash(extracted)
	slog.Debug("Calculated content hash", "source_id", sourceID, "hash", contentHash[:8])

	latest, err := s.entries.GetLatestEntry(sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest watch entry: %w", err)
	}

	newEntry := database.NewWatchEntry{SourceID: sourceID, ContentHash: contentHash}
	var previousHash *string
	if latest != nil {
		newEntry.PreviousID = &latest.ID
		previousHash = latest.ContentHash
	}

	entry, err := s.entries.InsertEntry(newEntry)
	if err != nil {
		return nil, fmt.Errorf("failed to append watch entry: %w", err)
	}

	// No previous hash means the previous state is unknown, which
	// counts as a change. The very first check always produces an
	// article.
	if previousHash != nil && *previousHash == contentHash {
		slog.Info("No content changes detected", "source_id", sourceID)
		return nil, nil
	}

	slog.Info("Content changed, creating article", "source_id", sourceID)
	return s.createArticle(entry.ID, source.URI, extracted)
}

// CheckBatch checks each source in turn. A failure on one source is
// recorded and does not abort the rest; the batch as a whole fails only
// when every source failed.
func (s *Service) CheckBatch(ctx context.Context, sourceIDs []string) ([]CheckOutcome, error) {
	outcomes := make([]CheckOutcome, 0, len(sourceIDs))
	failures := 0

	for _, sourceID := range sourceIDs {
		article, err := s.Check(ctx, sourceID)
		if err != nil {
			slog.Error("Error checking source", "source_id", sourceID, "error", err)
			failures++
		}
		outcomes = append(outcomes, CheckOutcome{SourceID: sourceID, Article: article, Err: err})
	}

	if len(sourceIDs) > 0 && failures == len(sourceIDs) {
		return outcomes, ErrAllSourcesFailed
	}

	return outcomes, nil
}

// CheckAll checks every active source
func (s *Service) CheckAll(ctx context.Context) ([]CheckOutcome, error) {
	sources, err := s.sources.ListActiveSources()
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	sourceIDs := make([]string, 0, len(sources))
	for _, source := range sources {
		sourceIDs = append(sourceIDs, source.ID)
	}

	slog.Info("Checking all sources", "count", len(sourceIDs))
	return s.CheckBatch(ctx, sourceIDs)
}

func (s *Service) extractContent(source *database.Source, rawContent string) (string, error) {
	content := rawContent

	// RSS bodies re-serialize with volatile noise on every fetch, so
	// unselected RSS sources are normalized to stable item lines first.
	if source.Type == database.SourceTypeRSS && source.Selector == "" {
		normalized, err := extract.FeedText(rawContent)
		if err != nil {
			slog.Warn("Failed to normalize feed, using raw content", "source_id", source.ID, "error", err)
		} else {
			content = normalized
		}
	}

	kind := source.SelectorKind
	if kind == "" {
		kind = database.SelectorKindCSS
	}

	return extract.Extract(content, source.Selector, kind)
}

func (s *Service) createArticle(watchlogID, sourceURI, content string) (*ArticleResult, error) {
	title := ""
	if lines := strings.Split(content, "\n"); len(lines) > 0 {
		title = strings.TrimSpace(truncate(lines[0], maxTitleLength))
	}
	if title == "" {
		title = defaultTitle
		slog.Warn("No title could be extracted, using default", "title", title)
	}

	// Thresholds count characters, not bytes, like the truncation
	var description *string
	if len([]rune(content)) > minDescriptionLength {
		d := strings.TrimSpace(truncate(content, maxDescriptionLength))
		description = &d
	}

	article, err := s.articles.InsertArticle(database.NewArticle{
		WatchlogID:   watchlogID,
		Title:        title,
		URI:          sourceURI,
		Description:  description,
		IsNewsworthy: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert article: %w", err)
	}

	slog.Info("Created article", "article_id", article.ID, "title", title)

	return &ArticleResult{
		ID:           article.ID,
		WatchlogID:   article.WatchlogID,
		Title:        article.Title,
		URI:          article.URI,
		Description:  article.Description,
		IsNewsworthy: article.IsNewsworthy,
	}, nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
