package database

import (
	"database/sql"
	"fmt"
)

var _ ArticleRepository = (*ArticleRepo)(nil)

// ArticleRepo handles database operations for articles
type ArticleRepo struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *ArticleRepo {
	return &ArticleRepo{db: db}
}

// InsertArticle stores a newly materialized article
func (r *ArticleRepo) InsertArticle(article NewArticle) (*Article, error) {
	row := r.db.QueryRow(`
		INSERT INTO articles (watchlog_id, title, uri, description, is_newsworthy)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, watchlog_id, title, uri, description, COALESCE(content, ''),
		          content_extracted_at, is_newsworthy, active, created_at
	`, article.WatchlogID, article.Title, article.URI, article.Description, article.IsNewsworthy)

	inserted, err := scanArticle(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert article: %w", err)
	}

	return inserted, nil
}

// GetArticleCount returns the number of active articles
func (r *ArticleRepo) GetArticleCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM articles WHERE active = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get article count: %w", err)
	}
	return count, nil
}

// GetArticlesForExtraction returns active articles with no readable body yet
func (r *ArticleRepo) GetArticlesForExtraction(limit int) ([]ArticleForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, uri
		FROM articles
		WHERE active = true AND content_extracted_at IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles for extraction: %w", err)
	}
	defer rows.Close()

	var articles []ArticleForExtraction
	for rows.Next() {
		var a ArticleForExtraction
		if err := rows.Scan(&a.ID, &a.URI); err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// UpdateArticleContent stores the extracted readable body of an article
func (r *ArticleRepo) UpdateArticleContent(articleID string, content string) error {
	_, err := r.db.Exec(`
		UPDATE articles
		SET content = $2, content_extracted_at = NOW()
		WHERE id = $1
	`, articleID, content)

	if err != nil {
		return fmt.Errorf("failed to update article content: %w", err)
	}

	return nil
}

func scanArticle(row rowScanner) (*Article, error) {
	var article Article
	var description sql.NullString
	var extractedAt sql.NullTime
	err := row.Scan(
		&article.ID, &article.WatchlogID, &article.Title, &article.URI,
		&description, &article.Content, &extractedAt,
		&article.IsNewsworthy, &article.Active, &article.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		article.Description = &description.String
	}
	if extractedAt.Valid {
		article.ContentExtractedAt = &extractedAt.Time
	}

	return &article, nil
}
