package database

import (
	"database/sql"
	"fmt"

	"golang.org/x/text/language"
)

var _ SourceRepository = (*SourceRepo)(nil)

// SourceRepo handles database operations for sources
type SourceRepo struct {
	db *DB
}

// NewSourceRepository creates a new source repository
func NewSourceRepository(db *DB) *SourceRepo {
	return &SourceRepo{db: db}
}

// GetActiveSource returns an active source by id, or nil when no such
// source exists.
func (r *SourceRepo) GetActiveSource(sourceID string) (*Source, error) {
	row := r.db.QueryRow(`
		SELECT id, site_id, type, uri, COALESCE(selector, ''),
		       COALESCE(selector_kind, ''), COALESCE(locale, ''),
		       active, created_at, updated_at
		FROM sources
		WHERE id = $1 AND active = true
	`, sourceID)

	source, err := scanSource(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get source: %w", err)
	}

	return source, nil
}

// ListActiveSources returns all active sources ordered by creation time
func (r *SourceRepo) ListActiveSources() ([]Source, error) {
	rows, err := r.db.Query(`
		SELECT id, site_id, type, uri, COALESCE(selector, ''),
		       COALESCE(selector_kind, ''), COALESCE(locale, ''),
		       active, created_at, updated_at
		FROM sources
		WHERE active = true
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, *source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source rows: %w", err)
	}

	return sources, nil
}

// GetSourceCount returns the number of active sources
func (r *SourceRepo) GetSourceCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sources WHERE active = true").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get source count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSource(row rowScanner) (*Source, error) {
	var source Source
	var siteID sql.NullString
	err := row.Scan(
		&source.ID, &siteID, &source.Type, &source.URI, &source.Selector,
		&source.SelectorKind, &source.Locale,
		&source.Active, &source.CreatedAt, &source.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if siteID.Valid {
		source.SiteID = &siteID.String
	}

	source.Locale = normalizeLocale(source.Locale)

	return &source, nil
}

// normalizeLocale canonicalizes a stored locale tag ("EN-us" -> "en-US").
// Unparseable tags are passed through untouched.
func normalizeLocale(locale string) string {
	if locale == "" {
		return ""
	}

	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return tag.String()
}
