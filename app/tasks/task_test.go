package tasks

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/puteus/puteus/app/database"
)

func TestTaskRetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeCheckSource, "source-1")

	if task.GetRetryCount() != 0 {
		t.Errorf("Expected initial retry count 0, got %d", task.GetRetryCount())
	}
	if !task.CanRetry() {
		t.Error("Expected fresh task to be retryable")
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected task to be exhausted after max retries")
	}
}

func TestNewTaskUniqueIDs(t *testing.T) {
	a := NewTask(TaskTypeCheckSource, "source-1")
	b := NewTask(TaskTypeCheckSource, "source-1")

	if a.GetID() == b.GetID() {
		t.Errorf("Expected distinct task IDs, got %s twice", a.GetID())
	}
}

type fakeArticleStore struct {
	pending []database.ArticleForExtraction
	updated map[string]string
}

func (s *fakeArticleStore) InsertArticle(article database.NewArticle) (*database.Article, error) {
	return nil, errors.New("not implemented")
}

func (s *fakeArticleStore) GetArticleCount() (int, error) {
	return len(s.updated), nil
}

func (s *fakeArticleStore) GetArticlesForExtraction(limit int) ([]database.ArticleForExtraction, error) {
	if limit < len(s.pending) {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *fakeArticleStore) UpdateArticleContent(articleID string, content string) error {
	if s.updated == nil {
		s.updated = make(map[string]string)
	}
	s.updated[articleID] = content
	return nil
}

type fakePageFetcher struct {
	pages map[string]string
}

func (f *fakePageFetcher) Fetch(ctx context.Context, uri string) (string, error) {
	page, ok := f.pages[uri]
	if !ok {
		return "", errors.New("connection refused")
	}
	return page, nil
}

const articlePage = `<html><head><title>Article</title></head><body>
<article>
<p>This is the main content of the article. It has enough substance for the extraction algorithm to identify it as the primary content area.</p>
<p>A second paragraph keeps the body comfortably above the minimum size heuristics used during extraction.</p>
</article>
</body></html>`

func TestExtractContentTask(t *testing.T) {
	store := &fakeArticleStore{pending: []database.ArticleForExtraction{
		{ID: "a1", URI: "https://example.com/a1"},
		{ID: "a2", URI: "https://example.com/missing"},
	}}
	fetcher := &fakePageFetcher{pages: map[string]string{
		"https://example.com/a1": articlePage,
	}}

	task := NewExtractContentTask(store, fetcher, 10)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected per-article failures to be absorbed, got: %v", err)
	}

	content, ok := store.updated["a1"]
	if !ok {
		t.Fatal("Expected article a1 to be updated")
	}
	if !strings.Contains(content, "main content of the article") {
		t.Errorf("Expected readable body stored, got: %s", content)
	}
	if _, ok := store.updated["a2"]; ok {
		t.Error("Expected unfetchable article a2 to be left pending")
	}
}

func TestExtractContentTaskEmptyBatch(t *testing.T) {
	task := NewExtractContentTask(&fakeArticleStore{}, &fakePageFetcher{}, 10)
	if err := task.Execute(context.Background()); err != nil {
		t.Errorf("Expected no error for empty batch, got: %v", err)
	}
}
