package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/puteus/puteus/app/database"
	"github.com/puteus/puteus/app/extract"
)

// Fetcher retrieves the raw document behind a URI.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) (string, error)
}

// ExtractContentTask backfills the readable body of articles whose
// content has not been fetched yet.
type ExtractContentTask struct {
	Task
	articleRepo database.ArticleRepository
	fetcher     Fetcher
	batchSize   int
}

func NewExtractContentTask(articleRepo database.ArticleRepository, fetcher Fetcher, batchSize int) *ExtractContentTask {
	return &ExtractContentTask{
		Task:        NewTask(TaskTypeExtractContent, ""),
		articleRepo: articleRepo,
		fetcher:     fetcher,
		batchSize:   batchSize,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	articles, err := t.articleRepo.GetArticlesForExtraction(t.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get articles for content extraction: %w", err)
	}

	if len(articles) == 0 {
		slog.Debug("No articles need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := t.extractContentForArticle(ctx, article); err != nil {
			slog.Error("Failed to extract content for article", "article_id", article.ID, "url", article.URI, "error", err)
			errorCount++
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (t *ExtractContentTask) extractContentForArticle(ctx context.Context, article database.ArticleForExtraction) error {
	if article.URI == "" {
		return fmt.Errorf("article has no URI")
	}

	html, err := t.fetcher.Fetch(ctx, article.URI)
	if err != nil {
		return fmt.Errorf("failed to fetch article page: %w", err)
	}

	content, err := extract.ReadableContent(html)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	if err := t.articleRepo.UpdateArticleContent(article.ID, content); err != nil {
		return fmt.Errorf("failed to update article content: %w", err)
	}

	slog.Debug("Content extracted successfully", "article_id", article.ID, "url", article.URI, "content_length", len(content))
	return nil
}
