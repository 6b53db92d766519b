package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Snapshot is one user's aggregate counters for a calendar date
type Snapshot struct {
	UserID            string
	Date              time.Time
	Followers         int
	PostsCount        int
	TotalImpressions  int
	TotalEngagements  int
	ProfileViews      int
	SearchAppearances int
}

// UpsertSnapshot writes the day's snapshot, overwriting an earlier one for
// the same user and date.
func (c conn) UpsertSnapshot(ctx context.Context, s Snapshot) error {
	_, err := c.exec(ctx, `
		INSERT INTO analytics_snapshots (id, user_id, date, followers, posts_count, total_impressions,
			total_engagements, profile_views, search_appearances, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			followers = excluded.followers,
			posts_count = excluded.posts_count,
			total_impressions = excluded.total_impressions,
			total_engagements = excluded.total_engagements,
			profile_views = excluded.profile_views,
			search_appearances = excluded.search_appearances
	`, newID(), s.UserID, Day(s.Date), s.Followers, s.PostsCount, s.TotalImpressions,
		s.TotalEngagements, s.ProfileViews, s.SearchAppearances, c.now())
	if err != nil {
		return fmt.Errorf("upserting snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `user_id, date, COALESCE(followers, 0), COALESCE(posts_count, 0),
	COALESCE(total_impressions, 0), COALESCE(total_engagements, 0),
	COALESCE(profile_views, 0), COALESCE(search_appearances, 0)`

// Snapshot returns the user's snapshot for a date
func (c conn) Snapshot(ctx context.Context, userID string, date time.Time) (Snapshot, error) {
	return c.scanSnapshot(c.queryRow(ctx, `
		SELECT `+snapshotColumns+` FROM analytics_snapshots
		WHERE user_id = ? AND date = ?
	`, userID, Day(date)))
}

// LatestSnapshot returns the user's most recent snapshot
func (c conn) LatestSnapshot(ctx context.Context, userID string) (Snapshot, error) {
	return c.scanSnapshot(c.queryRow(ctx, `
		SELECT `+snapshotColumns+` FROM analytics_snapshots
		WHERE user_id = ? ORDER BY date DESC LIMIT 1
	`, userID))
}

func (c conn) scanSnapshot(row *sql.Row) (Snapshot, error) {
	var s Snapshot
	err := row.Scan(&s.UserID, &s.Date, &s.Followers, &s.PostsCount, &s.TotalImpressions,
		&s.TotalEngagements, &s.ProfileViews, &s.SearchAppearances)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNotFound
	}
	return s, err
}
