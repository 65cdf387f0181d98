package api

import (
	"context"

	"github.com/puteus/puteus/app/database"
	"github.com/puteus/puteus/app/scraper"
	"github.com/puteus/puteus/app/tasks"
	"github.com/puteus/puteus/app/watch"
)

// ScraperRunner drives on-demand scrapes against named rulesets.
type ScraperRunner interface {
	Scrape(ctx context.Context, rulesetName, url string, maxItems int) ([]scraper.Item, error)
	RulesetNames() []string
}

var _ ScraperRunner = (*scraper.Runner)(nil)

type Handler struct {
	watchService  *watch.Service
	sourceRepo    database.SourceRepository
	entryRepo     database.WatchLogRepository
	articleRepo   database.ArticleRepository
	scheduler     tasks.TaskSchedulerInterface
	scraperRunner ScraperRunner
}

// ArticleResponse is the JSON shape of a newly created article.
type ArticleResponse struct {
	ID           string  `json:"id"`
	WatchlogID   string  `json:"watchlog_id"`
	Title        string  `json:"title"`
	URI          string  `json:"uri"`
	Description  *string `json:"description,omitempty"`
	IsNewsworthy bool    `json:"is_newsworthy"`
}

// CheckResponse reports the outcome of a single source check.
type CheckResponse struct {
	SourceID string           `json:"source_id"`
	Changed  bool             `json:"changed"`
	Article  *ArticleResponse `json:"article,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// BatchCheckRequest is the body of a batch check call.
type BatchCheckRequest struct {
	SourceIDs []string `json:"source_ids" binding:"required"`
}

// ScrapeRequest is the body of an on-demand scrape call.
type ScrapeRequest struct {
	URL      string `json:"url" binding:"required"`
	MaxItems *int   `json:"max_items"`
}

// SourceResponse is the JSON shape of a watched source.
type SourceResponse struct {
	ID           string  `json:"id"`
	SiteID       *string `json:"site_id,omitempty"`
	Type         string  `json:"type"`
	URI          string  `json:"uri"`
	Selector     string  `json:"selector,omitempty"`
	SelectorKind string  `json:"selector_kind,omitempty"`
	Locale       string  `json:"locale,omitempty"`
	EntryCount   int     `json:"entry_count"`
}

func articleResponse(article *watch.ArticleResult) *ArticleResponse {
	if article == nil {
		return nil
	}
	return &ArticleResponse{
		ID:           article.ID,
		WatchlogID:   article.WatchlogID,
		Title:        article.Title,
		URI:          article.URI,
		Description:  article.Description,
		IsNewsworthy: article.IsNewsworthy,
	}
}
