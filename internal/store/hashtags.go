package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// HashtagStat is the per-user rollup of one hashtag
type HashtagStat struct {
	Hashtag          string
	PostsCount       int
	TotalImpressions int
	TotalLikes       int
	AvgEngagement    float64
	LastUsedAt       time.Time
}

// HashtagUse is one occurrence of a hashtag in a post
type HashtagUse struct {
	Hashtag        string
	Impressions    int
	Likes          int
	EngagementRate float64
	UsedAt         time.Time
}

// UpsertHashtag folds one use into the hashtag's running totals and
// incremental average engagement rate.
func (c conn) UpsertHashtag(ctx context.Context, userID string, u HashtagUse) error {
	now := c.now()
	_, err := c.exec(ctx, `
		INSERT INTO hashtag_stats (id, user_id, hashtag, posts_count, total_impressions, total_likes,
			avg_engagement, last_used_at, created_at, updated_at)
		VALUES (?, ?, ?, 1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, hashtag) DO UPDATE SET
			posts_count = hashtag_stats.posts_count + 1,
			total_impressions = hashtag_stats.total_impressions + excluded.total_impressions,
			total_likes = hashtag_stats.total_likes + excluded.total_likes,
			avg_engagement = (hashtag_stats.avg_engagement * hashtag_stats.posts_count + excluded.avg_engagement) / (hashtag_stats.posts_count + 1),
			last_used_at = excluded.last_used_at,
			updated_at = excluded.updated_at
	`, newID(), userID, u.Hashtag, u.Impressions, u.Likes, u.EngagementRate, u.UsedAt, now, now)
	if err != nil {
		return fmt.Errorf("upserting hashtag %s: %w", u.Hashtag, err)
	}
	return nil
}

// Hashtag returns a user's rollup for one hashtag
func (c conn) Hashtag(ctx context.Context, userID, hashtag string) (HashtagStat, error) {
	var h HashtagStat
	var lastUsed sql.NullTime

	err := c.queryRow(ctx, `
		SELECT hashtag, posts_count, total_impressions, total_likes, avg_engagement, last_used_at
		FROM hashtag_stats WHERE user_id = ? AND hashtag = ?
	`, userID, hashtag).Scan(&h.Hashtag, &h.PostsCount, &h.TotalImpressions, &h.TotalLikes, &h.AvgEngagement, &lastUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return h, ErrNotFound
	}
	h.LastUsedAt = lastUsed.Time
	return h, err
}
