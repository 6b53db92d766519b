package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/lisync/internal/auth"
	"github.com/ibeckermayer/lisync/internal/store"
)

// Status is what `lisync status` reports
type Status struct {
	SessionPath string
	SessionErr  error
	CapturedAt  time.Time
	ExpiresAt   time.Time
	UserID      string
	Posts       int
	Profile     *store.ProfileRecord
	Latest      *store.Snapshot
}

// Status reads the session and the latest stored state without starting a
// browser.
func (a *App) Status(ctx context.Context) (*Status, error) {
	s := a.getSnapshot()
	sessions := a.authManager.Sessions()

	st := &Status{SessionPath: sessions.Path()}
	state, err := sessions.Validate()
	st.SessionErr = err
	if state != nil {
		st.CapturedAt = state.CapturedAt
		st.ExpiresAt = state.ExpiresAt
	}

	db, err := a.openStore(ctx)
	if err != nil {
		return st, fmt.Errorf("opening store: %w", err)
	}
	defer db.Close()

	st.UserID, err = db.ResolveUser(ctx, s.config.User.Email)
	if errors.Is(err, store.ErrNoUser) {
		return st, nil
	}
	if err != nil {
		return st, err
	}

	if st.Posts, err = db.CountPosts(ctx, st.UserID); err != nil {
		return st, err
	}

	p, err := db.Profile(ctx, st.UserID)
	switch {
	case err == nil:
		st.Profile = &p
	case !errors.Is(err, store.ErrNotFound):
		return st, err
	}

	snap, err := db.LatestSnapshot(ctx, st.UserID)
	switch {
	case err == nil:
		st.Latest = &snap
	case !errors.Is(err, store.ErrNotFound):
		return st, err
	}

	return st, nil
}

func (s *Status) String() string {
	var b strings.Builder

	switch {
	case s.SessionErr == nil:
		fmt.Fprintf(&b, "Session: valid (captured %s", s.CapturedAt.Format(time.DateTime))
		if !s.ExpiresAt.IsZero() {
			fmt.Fprintf(&b, ", expires %s", s.ExpiresAt.Format(time.DateTime))
		}
		b.WriteString(")\n")
	case errors.Is(s.SessionErr, auth.ErrNoSession):
		fmt.Fprintf(&b, "Session: none at %s (run `lisync login`)\n", s.SessionPath)
	default:
		fmt.Fprintf(&b, "Session: %v (run `lisync login`)\n", s.SessionErr)
	}

	if s.UserID == "" {
		b.WriteString("User: none (run `lisync user add`)")
		return b.String()
	}
	fmt.Fprintf(&b, "User: %s\n", s.UserID)
	fmt.Fprintf(&b, "Posts stored: %d\n", s.Posts)

	if s.Profile != nil {
		fmt.Fprintf(&b, "Profile: %s, %d followers, %d connections (fetched %s)\n",
			orUnknown(s.Profile.Profile.Name), s.Profile.Profile.Followers,
			s.Profile.Profile.Connections, s.Profile.FetchedAt.Format(time.DateTime))
	}
	if s.Latest != nil {
		fmt.Fprintf(&b, "Last snapshot %s: %d impressions, %d engagements, %d profile views",
			s.Latest.Date.Format(time.DateOnly), s.Latest.TotalImpressions,
			s.Latest.TotalEngagements, s.Latest.ProfileViews)
	} else {
		b.WriteString("No snapshots yet")
	}
	return b.String()
}
