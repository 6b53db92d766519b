package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ibeckermayer/lisync/internal/types"
)

// Metrics are the per-post counters tracked over time
type Metrics struct {
	Impressions int
	Likes       int
	Comments    int
	Shares      int
}

// MetricsOf returns the counters of a scraped post
func MetricsOf(p types.Post) Metrics {
	return Metrics{
		Impressions: p.Impressions,
		Likes:       p.Likes,
		Comments:    p.Comments,
		Shares:      p.Shares,
	}
}

// Sub returns m - prev field by field
func (m Metrics) Sub(prev Metrics) Metrics {
	return Metrics{
		Impressions: m.Impressions - prev.Impressions,
		Likes:       m.Likes - prev.Likes,
		Comments:    m.Comments - prev.Comments,
		Shares:      m.Shares - prev.Shares,
	}
}

// PostRecord is a stored post with its live metrics
type PostRecord struct {
	ID          string
	UserID      string
	Key         string
	Content     string
	PostType    types.PostType
	PublishedAt time.Time
	Metrics     Metrics
}

// HistoryEntry is one dated metrics row of a post. Delta is nil on the
// first observation.
type HistoryEntry struct {
	PostID  string
	Date    time.Time
	Metrics Metrics
	Delta   *Metrics
}

// FindPost looks a post up by identity key. Missing live metrics read as 0.
func (c conn) FindPost(ctx context.Context, key string) (PostRecord, error) {
	var r PostRecord
	var published sql.NullTime
	var postType string

	err := c.queryRow(ctx, `
		SELECT id, user_id, linkedin_post_id, content, post_type, published_at,
			COALESCE(impressions, 0), COALESCE(likes, 0), COALESCE(comments, 0), COALESCE(shares, 0)
		FROM li_posts WHERE linkedin_post_id = ?
	`, key).Scan(&r.ID, &r.UserID, &r.Key, &r.Content, &postType, &published,
		&r.Metrics.Impressions, &r.Metrics.Likes, &r.Metrics.Comments, &r.Metrics.Shares)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("finding post %s: %w", key, err)
	}

	r.PostType = types.PostType(postType)
	r.PublishedAt = published.Time
	return r, nil
}

// InsertPost stores a newly seen post and returns its id
func (c conn) InsertPost(ctx context.Context, userID, key string, p types.Post) (string, error) {
	now := c.now()
	postType := p.PostType
	if postType == "" {
		postType = types.PostTypeText
	}

	id := newID()
	_, err := c.exec(ctx, `
		INSERT INTO li_posts (id, user_id, linkedin_post_id, content, post_type, published_at,
			impressions, likes, comments, shares, fetched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, userID, key, p.Content, string(postType), p.PublishedAt,
		p.Impressions, p.Likes, p.Comments, p.Shares, now, now, now)
	if err != nil {
		return "", fmt.Errorf("inserting post %s: %w", key, err)
	}
	return id, nil
}

// UpdatePostMetrics overwrites the live metric columns of a post
func (c conn) UpdatePostMetrics(ctx context.Context, postID string, m Metrics) error {
	now := c.now()
	_, err := c.exec(ctx, `
		UPDATE li_posts SET
			impressions = ?, likes = ?, comments = ?, shares = ?,
			fetched_at = ?, updated_at = ?
		WHERE id = ?
	`, m.Impressions, m.Likes, m.Comments, m.Shares, now, now, postID)
	if err != nil {
		return fmt.Errorf("updating post %s: %w", postID, err)
	}
	return nil
}

// InsertFirstHistory records the first observation of a post. An existing
// row for the same date is left alone. It reports whether a row was written.
func (c conn) InsertFirstHistory(ctx context.Context, postID string, date time.Time, m Metrics) (bool, error) {
	res, err := c.exec(ctx, `
		INSERT INTO post_metrics_history (id, post_id, date, impressions, likes, comments, shares, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (post_id, date) DO NOTHING
	`, newID(), postID, Day(date), m.Impressions, m.Likes, m.Comments, m.Shares, c.now())
	if err != nil {
		return false, fmt.Errorf("inserting history for %s: %w", postID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertHistory writes the day's metrics and deltas for a post, overwriting
// an earlier row for the same date.
func (c conn) UpsertHistory(ctx context.Context, postID string, date time.Time, m, delta Metrics) error {
	_, err := c.exec(ctx, `
		INSERT INTO post_metrics_history (id, post_id, date, impressions, likes, comments, shares,
			impressions_delta, likes_delta, comments_delta, shares_delta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (post_id, date) DO UPDATE SET
			impressions = excluded.impressions,
			likes = excluded.likes,
			comments = excluded.comments,
			shares = excluded.shares,
			impressions_delta = excluded.impressions_delta,
			likes_delta = excluded.likes_delta,
			comments_delta = excluded.comments_delta,
			shares_delta = excluded.shares_delta
	`, newID(), postID, Day(date), m.Impressions, m.Likes, m.Comments, m.Shares,
		delta.Impressions, delta.Likes, delta.Comments, delta.Shares, c.now())
	if err != nil {
		return fmt.Errorf("upserting history for %s: %w", postID, err)
	}
	return nil
}

// History returns a post's metrics rows, oldest first
func (c conn) History(ctx context.Context, postID string) ([]HistoryEntry, error) {
	rows, err := c.query(ctx, `
		SELECT post_id, date,
			COALESCE(impressions, 0), COALESCE(likes, 0), COALESCE(comments, 0), COALESCE(shares, 0),
			impressions_delta, likes_delta, comments_delta, shares_delta
		FROM post_metrics_history
		WHERE post_id = ?
		ORDER BY date
	`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var di, dl, dc, ds sql.NullInt64

		err := rows.Scan(&e.PostID, &e.Date,
			&e.Metrics.Impressions, &e.Metrics.Likes, &e.Metrics.Comments, &e.Metrics.Shares,
			&di, &dl, &dc, &ds)
		if err != nil {
			return nil, err
		}

		if di.Valid || dl.Valid || dc.Valid || ds.Valid {
			e.Delta = &Metrics{
				Impressions: int(di.Int64),
				Likes:       int(dl.Int64),
				Comments:    int(dc.Int64),
				Shares:      int(ds.Int64),
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountPosts returns how many posts a user has stored
func (c conn) CountPosts(ctx context.Context, userID string) (int, error) {
	var n int
	err := c.queryRow(ctx, `SELECT COUNT(*) FROM li_posts WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}
