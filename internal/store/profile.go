package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ibeckermayer/lisync/internal/types"
)

// ProfileRecord is the stored live profile row
type ProfileRecord struct {
	ID        string
	UserID    string
	Profile   types.Profile
	FetchedAt time.Time
}

// UpsertProfile updates the user's profile row in place, creating it on the
// first run. It reports whether a row was created.
func (c conn) UpsertProfile(ctx context.Context, userID string, p types.Profile) (bool, error) {
	now := c.now()

	var id string
	err := c.queryRow(ctx, `SELECT id FROM li_profiles WHERE user_id = ?`, userID).Scan(&id)
	switch {
	case err == nil:
		_, err = c.exec(ctx, `
			UPDATE li_profiles SET
				name = ?, headline = ?, followers = ?, connections = ?,
				fetched_at = ?, updated_at = ?
			WHERE user_id = ?
		`, p.Name, p.Headline, p.Followers, p.Connections, now, now, userID)
		return false, err
	case errors.Is(err, sql.ErrNoRows):
		_, err = c.exec(ctx, `
			INSERT INTO li_profiles (id, user_id, linkedin_id, name, headline, followers, connections, fetched_at, created_at, updated_at)
			VALUES (?, ?, 'scraped', ?, ?, ?, ?, ?, ?, ?)
		`, newID(), userID, p.Name, p.Headline, p.Followers, p.Connections, now, now, now)
		return err == nil, err
	default:
		return false, err
	}
}

// Profile returns the stored profile of a user
func (c conn) Profile(ctx context.Context, userID string) (ProfileRecord, error) {
	var r ProfileRecord
	var name, headline sql.NullString
	var followers, connections sql.NullInt64
	var fetched sql.NullTime

	err := c.queryRow(ctx, `
		SELECT id, user_id, name, headline, followers, connections, fetched_at
		FROM li_profiles WHERE user_id = ?
	`, userID).Scan(&r.ID, &r.UserID, &name, &headline, &followers, &connections, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}

	r.Profile = types.Profile{
		Name:        name.String,
		Headline:    headline.String,
		Followers:   int(followers.Int64),
		Connections: int(connections.Int64),
	}
	r.FetchedAt = fetched.Time
	return r, nil
}
