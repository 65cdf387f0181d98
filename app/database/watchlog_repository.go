package database

import (
	"database/sql"
	"fmt"
)

var _ WatchLogRepository = (*WatchLogRepo)(nil)

// WatchLogRepo handles database operations for the append-only watch log
type WatchLogRepo struct {
	db *DB
}

// NewWatchLogRepository creates a new watch log repository
func NewWatchLogRepository(db *DB) *WatchLogRepo {
	return &WatchLogRepo{db: db}
}

// GetLatestEntry returns the most recent active entry for a source, or
// nil when the source has no entries yet.
func (r *WatchLogRepo) GetLatestEntry(sourceID string) (*WatchEntry, error) {
	row := r.db.QueryRow(`
		SELECT id, source_id, previous_id, content_hash, active, created_at
		FROM watch_entries
		WHERE source_id = $1 AND active = true
		ORDER BY created_at DESC
		LIMIT 1
	`, sourceID)

	entry, err := scanWatchEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest watch entry: %w", err)
	}

	return entry, nil
}

// InsertEntry appends one entry to a source's chain. The append is a
// single INSERT, entries are never updated afterwards.
func (r *WatchLogRepo) InsertEntry(entry NewWatchEntry) (*WatchEntry, error) {
	row := r.db.QueryRow(`
		INSERT INTO watch_entries (source_id, previous_id, content_hash)
		VALUES ($1, $2, $3)
		RETURNING id, source_id, previous_id, content_hash, active, created_at
	`, entry.SourceID, entry.PreviousID, entry.ContentHash)

	inserted, err := scanWatchEntry(row)
	if err != nil {
		return nil, fmt.Errorf("failed to insert watch entry: %w", err)
	}

	return inserted, nil
}

// GetEntryCount returns the number of active entries for a source
func (r *WatchLogRepo) GetEntryCount(sourceID string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM watch_entries WHERE source_id = $1 AND active = true
	`, sourceID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get watch entry count: %w", err)
	}
	return count, nil
}

func scanWatchEntry(row rowScanner) (*WatchEntry, error) {
	var entry WatchEntry
	var previousID, contentHash sql.NullString
	err := row.Scan(
		&entry.ID, &entry.SourceID, &previousID, &contentHash,
		&entry.Active, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if previousID.Valid {
		entry.PreviousID = &previousID.String
	}
	if contentHash.Valid {
		entry.ContentHash = &contentHash.String
	}

	return &entry, nil
}
