package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/trackx/internal/resolver"
	"github.com/desertthunder/trackx/internal/services"
	"github.com/desertthunder/trackx/internal/similarity"
)

const cacheSchema = `
CREATE TABLE IF NOT EXISTS resolution_cache (
	platform    TEXT NOT NULL,
	artist_key  TEXT NOT NULL,
	title_key   TEXT NOT NULL,
	tier        TEXT NOT NULL,
	track_id    TEXT NOT NULL,
	confidence  REAL NOT NULL,
	candidate   TEXT,
	resolved_at TIMESTAMP NOT NULL,
	PRIMARY KEY (platform, artist_key, title_key)
);`

// ResolutionCache persists accepted resolutions in SQLite.
type ResolutionCache struct {
	db *sql.DB
}

// NewResolutionCache wraps db and ensures the cache table exists.
// The caller retains ownership of the connection.
func NewResolutionCache(db *sql.DB) (*ResolutionCache, error) {
	if _, err := db.Exec(cacheSchema); err != nil {
		return nil, fmt.Errorf("failed to create resolution cache schema: %w", err)
	}
	return &ResolutionCache{db: db}, nil
}

// Lookup returns the stored resolution for a platform and track, or nil when
// the cache has never seen it.
func (c *ResolutionCache) Lookup(ctx context.Context, platform services.Platform, artist, title string) (*resolver.Result, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT tier, track_id, confidence, candidate
		FROM resolution_cache
		WHERE platform = ? AND artist_key = ? AND title_key = ?`,
		string(platform), similarity.Normalize(artist), similarity.Normalize(title))

	var tierName, trackID string
	var confidence float64
	var candidateJSON sql.NullString
	if err := row.Scan(&tierName, &trackID, &confidence, &candidateJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read resolution cache: %w", err)
	}

	tier, err := resolver.TierFromString(tierName)
	if err != nil {
		return nil, err
	}

	res := &resolver.Result{
		Platform:   platform,
		Tier:       tier,
		ID:         trackID,
		Confidence: confidence,
	}
	if candidateJSON.Valid && candidateJSON.String != "" {
		var candidate services.Candidate
		if err := json.Unmarshal([]byte(candidateJSON.String), &candidate); err == nil {
			res.Candidate = &candidate
		}
	}
	return res, nil
}

// Store saves an accepted resolution, replacing any previous row for the same
// platform and track.
func (c *ResolutionCache) Store(ctx context.Context, platform services.Platform, artist, title string, res resolver.Result) error {
	var candidateJSON any
	if res.Candidate != nil {
		encoded, err := json.Marshal(res.Candidate)
		if err != nil {
			return fmt.Errorf("failed to encode cached candidate: %w", err)
		}
		candidateJSON = string(encoded)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO resolution_cache
			(platform, artist_key, title_key, tier, track_id, confidence, candidate, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(platform), similarity.Normalize(artist), similarity.Normalize(title),
		res.Tier.String(), res.ID, res.Confidence, candidateJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write resolution cache: %w", err)
	}
	return nil
}

// Stats reports how many resolutions are cached per platform.
func (c *ResolutionCache) Stats(ctx context.Context) (map[services.Platform]int, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT platform, COUNT(*)
		FROM resolution_cache
		GROUP BY platform`)
	if err != nil {
		return nil, fmt.Errorf("failed to read resolution cache stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[services.Platform]int)
	for rows.Next() {
		var platform string
		var count int
		if err := rows.Scan(&platform, &count); err != nil {
			return nil, fmt.Errorf("failed to scan cache stats row: %w", err)
		}
		stats[services.Platform(platform)] = count
	}
	return stats, rows.Err()
}

// Clear drops every cached resolution and returns how many rows were removed.
func (c *ResolutionCache) Clear(ctx context.Context) (int64, error) {
	result, err := c.db.ExecContext(ctx, `DELETE FROM resolution_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear resolution cache: %w", err)
	}
	return result.RowsAffected()
}
