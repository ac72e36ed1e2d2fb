package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/classify/internal/models"
)

// TagCacheRepository implements services.TagCache on the tag_cache table.
//
// Entries older than the TTL are reported as misses; a zero TTL never expires entries.
type TagCacheRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// TagCacheStats summarizes the cache contents.
type TagCacheStats struct {
	Entries int `json:"entries"`
	Expired int `json:"expired"`
}

// NewTagCacheRepository creates a new TagCacheRepository with the given database connection
func NewTagCacheRepository(db *sql.DB, ttl time.Duration) *TagCacheRepository {
	return &TagCacheRepository{db: db, ttl: ttl, now: time.Now}
}

// Get returns cached tags for key. Missing or expired entries return found=false.
func (r *TagCacheRepository) Get(ctx context.Context, key string) ([]models.Tag, bool, error) {
	var (
		raw       string
		fetchedAt time.Time
	)

	err := r.db.QueryRowContext(ctx, `SELECT tags, fetched_at FROM tag_cache WHERE track_key = ?`, key).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query tag cache: %w", err)
	}

	if r.ttl > 0 && r.now().Sub(fetchedAt) > r.ttl {
		return nil, false, nil
	}

	tags := []models.Tag{}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached tags: %w", err)
	}

	return tags, true, nil
}

// Put inserts or replaces the entry for key.
func (r *TagCacheRepository) Put(ctx context.Context, key, artist, track string, tags []models.Tag) error {
	if tags == nil {
		tags = []models.Tag{}
	}

	data, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO tag_cache (track_key, artist, track, tags, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(track_key) DO UPDATE SET
			artist = excluded.artist,
			track = excluded.track,
			tags = excluded.tags,
			fetched_at = excluded.fetched_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, artist, track, string(data), r.now().UTC()); err != nil {
		return fmt.Errorf("failed to write tag cache: %w", err)
	}

	return nil
}

// Prune deletes entries older than the TTL and reports how many were removed.
func (r *TagCacheRepository) Prune(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM tag_cache WHERE fetched_at < ?`, r.cutoff())
	if err != nil {
		return 0, fmt.Errorf("failed to prune tag cache: %w", err)
	}

	return result.RowsAffected()
}

// Clear deletes every entry and reports how many were removed.
func (r *TagCacheRepository) Clear(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tag_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear tag cache: %w", err)
	}

	return result.RowsAffected()
}

// Stats counts all entries and those past the TTL.
func (r *TagCacheRepository) Stats(ctx context.Context) (*TagCacheStats, error) {
	var stats TagCacheStats

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tag_cache`).Scan(&stats.Entries); err != nil {
		return nil, fmt.Errorf("failed to count tag cache: %w", err)
	}

	if r.ttl > 0 {
		err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tag_cache WHERE fetched_at < ?`, r.cutoff()).Scan(&stats.Expired)
		if err != nil {
			return nil, fmt.Errorf("failed to count expired tags: %w", err)
		}
	}

	return &stats, nil
}

func (r *TagCacheRepository) cutoff() time.Time {
	return r.now().Add(-r.ttl).UTC()
}
