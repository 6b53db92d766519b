package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ibeckermayer/lisync/internal/types"
)

// ReplacePostDemographics deletes a post's stored demographics and inserts
// the given set in their place.
func (c conn) ReplacePostDemographics(ctx context.Context, postID string, demographics []types.Demographic) error {
	if _, err := c.exec(ctx, `DELETE FROM post_demographics WHERE post_id = ?`, postID); err != nil {
		return fmt.Errorf("clearing demographics of %s: %w", postID, err)
	}

	now := c.now()
	for _, d := range demographics {
		_, err := c.exec(ctx, `
			INSERT INTO post_demographics (id, post_id, category, value, percentage, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, newID(), postID, string(d.Category), d.Value, d.Percentage, now)
		if err != nil {
			return fmt.Errorf("inserting demographic of %s: %w", postID, err)
		}
	}
	return nil
}

// PostDemographics returns the stored demographics of a post
func (c conn) PostDemographics(ctx context.Context, postID string) ([]types.Demographic, error) {
	return c.demographics(ctx, `
		SELECT category, value, percentage FROM post_demographics
		WHERE post_id = ? ORDER BY category, value
	`, postID)
}

// InsertAudienceDemographics appends the account-level breakdown for a date.
// Earlier rows for the same date are kept.
func (c conn) InsertAudienceDemographics(ctx context.Context, userID string, date time.Time, demographics []types.Demographic) (int, error) {
	now := c.now()
	day := Day(date)
	for i, d := range demographics {
		_, err := c.exec(ctx, `
			INSERT INTO audience_demographics (id, user_id, date, category, value, percentage, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, newID(), userID, day, string(d.Category), d.Value, d.Percentage, now)
		if err != nil {
			return i, fmt.Errorf("inserting audience demographic: %w", err)
		}
	}
	return len(demographics), nil
}

// AudienceDemographics returns a user's account-level rows for a date
func (c conn) AudienceDemographics(ctx context.Context, userID string, date time.Time) ([]types.Demographic, error) {
	return c.demographics(ctx, `
		SELECT category, value, percentage FROM audience_demographics
		WHERE user_id = ? AND date = ? ORDER BY category, value
	`, userID, Day(date))
}

func (c conn) demographics(ctx context.Context, query string, args ...any) ([]types.Demographic, error) {
	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.Demographic
	for rows.Next() {
		var d types.Demographic
		var category string
		if err := rows.Scan(&category, &d.Value, &d.Percentage); err != nil {
			return nil, err
		}
		d.Category = types.Category(category)
		out = append(out, d)
	}
	return out, rows.Err()
}
