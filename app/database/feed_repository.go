package database

import (
	"database/sql"
	"fmt"
	"time"
)

// FeedRepository handles database operations for feeds
type SQLFeedRepository struct {
	db *DB
}

var _ FeedRepository = (*SQLFeedRepository)(nil)

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *SQLFeedRepository {
	return &SQLFeedRepository{db: db}
}

const feedColumns = "id, url, status, error_message, auto_update, created_at, last_updated"

func scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.URL, &feed.Status, &feed.ErrorMessage,
		&feed.AutoUpdate, &feed.CreatedAt, &feed.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// GetFeed retrieves a feed by its database ID
func (r *SQLFeedRepository) GetFeed(id int64) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(
		"SELECT "+feedColumns+" FROM feeds WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return feed, nil
}

// GetFeedByURL retrieves a feed by its URL
func (r *SQLFeedRepository) GetFeedByURL(url string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(
		"SELECT "+feedColumns+" FROM feeds WHERE url = ?", url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}
	return feed, nil
}

// ListFeeds returns all feeds, newest first
func (r *SQLFeedRepository) ListFeeds() ([]Feed, error) {
	rows, err := r.db.Query(
		"SELECT " + feedColumns + " FROM feeds ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// GetFeedCount returns the total number of feeds
func (r *SQLFeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

// GetReadyFeedCount returns the count of feeds whose last processing succeeded
func (r *SQLFeedRepository) GetReadyFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds WHERE status = ?", StatusReady).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get ready feed count: %w", err)
	}
	return count, nil
}

// CreateFeed inserts a new feed for the URL, or returns the existing one.
// At most one feed row exists per URL.
func (r *SQLFeedRepository) CreateFeed(url string) (*Feed, bool, error) {
	existing, err := r.GetFeedByURL(url)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing feed: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	now := time.Now().UTC()
	result, err := r.db.Exec(
		"INSERT INTO feeds (url, status, created_at) VALUES (?, ?, ?)",
		url, StatusPending, now)
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert feed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	return &Feed{ID: id, URL: url, Status: StatusPending, CreatedAt: now}, true, nil
}

// BeginProcessing conditionally transitions the feed to 'processing'.
// The WHERE clause is the mutual-exclusion guard: two concurrent triggers
// on the same feed cannot both observe an affected row.
func (r *SQLFeedRepository) BeginProcessing(id int64) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE feeds
		SET status = ?, error_message = NULL
		WHERE id = ? AND status != ?
	`, StatusProcessing, id, StatusProcessing)
	if err != nil {
		return false, fmt.Errorf("failed to transition feed to processing: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return affected == 1, nil
}

// MarkFailed sets the feed status to 'failed' with a user-facing message.
// Previously stored inventory is left untouched.
func (r *SQLFeedRepository) MarkFailed(id int64, message string) error {
	_, err := r.db.Exec(
		"UPDATE feeds SET status = ?, error_message = ? WHERE id = ?",
		StatusFailed, message, id)
	if err != nil {
		return fmt.Errorf("failed to mark feed failed: %w", err)
	}
	return nil
}

// SetAutoUpdate toggles scheduled re-fetching for a feed
func (r *SQLFeedRepository) SetAutoUpdate(id int64, enabled bool) error {
	_, err := r.db.Exec(
		"UPDATE feeds SET auto_update = ? WHERE id = ?", enabled, id)
	if err != nil {
		return fmt.Errorf("failed to set auto-update: %w", err)
	}
	return nil
}

// GetFeedsForAutoUpdate returns feeds flagged for scheduled refresh that
// are not currently mid-processing.
func (r *SQLFeedRepository) GetFeedsForAutoUpdate() ([]Feed, error) {
	rows, err := r.db.Query(
		"SELECT "+feedColumns+" FROM feeds WHERE auto_update = 1 AND status != ? ORDER BY id",
		StatusProcessing)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds for auto-update: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// DeleteFeed removes a feed. Items and assets go with it via ON DELETE CASCADE.
func (r *SQLFeedRepository) DeleteFeed(id int64) error {
	_, err := r.db.Exec("DELETE FROM feeds WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}
