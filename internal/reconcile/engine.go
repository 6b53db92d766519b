// Package reconcile folds one run's scraped records into the stored state:
// identity lookup, insert-or-update with dated history, hashtag rollups,
// comment dedup, demographics replacement and the daily snapshot.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ibeckermayer/lisync/internal/extract"
	"github.com/ibeckermayer/lisync/internal/store"
	"github.com/ibeckermayer/lisync/internal/types"
)

// Stats counts what a Persist call wrote
type Stats struct {
	ProfileCreated       bool `json:"profile_created"`
	PostsNew             int  `json:"posts_new"`
	PostsUpdated         int  `json:"posts_updated"`
	HistoryRows          int  `json:"history_rows"`
	HashtagUpdates       int  `json:"hashtag_updates"`
	CommentsSaved        int  `json:"comments_saved"`
	PostDemographics     int  `json:"post_demographics"`
	AudienceDemographics int  `json:"audience_demographics"`
}

// Engine writes scraped results to a store
type Engine struct {
	store *store.Store
	now   func() time.Time
	log   zerolog.Logger
}

// New creates an engine. A nil now uses time.Now.
func New(s *store.Store, now func() time.Time, log zerolog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{store: s, now: now, log: log}
}

// Persist writes a run's result for userID. Each post is written in its own
// transaction; an error stops the run and leaves earlier posts committed.
func (e *Engine) Persist(ctx context.Context, userID string, r types.Result) (Stats, error) {
	var stats Stats
	today := e.now()

	created, err := e.store.UpsertProfile(ctx, userID, r.Profile)
	if err != nil {
		return stats, fmt.Errorf("saving profile: %w", err)
	}
	stats.ProfileCreated = created
	e.log.Info().Bool("created", created).Msg("Profile saved")

	for i, post := range r.Posts {
		err := e.store.WithTx(ctx, func(tx *store.Tx) error {
			return e.persistPost(ctx, tx, userID, today, post, &stats)
		})
		if err != nil {
			return stats, fmt.Errorf("saving post %d: %w", i+1, err)
		}
	}
	e.log.Info().
		Int("new", stats.PostsNew).
		Int("updated", stats.PostsUpdated).
		Int("history", stats.HistoryRows).
		Int("hashtags", stats.HashtagUpdates).
		Int("comments", stats.CommentsSaved).
		Msg("Posts saved")

	n, err := e.store.InsertAudienceDemographics(ctx, userID, today, r.Demographics)
	stats.AudienceDemographics = n
	if err != nil {
		return stats, fmt.Errorf("saving audience demographics: %w", err)
	}
	e.log.Info().Int("entries", n).Msg("Audience demographics saved")

	if err := e.store.UpsertSnapshot(ctx, DailySnapshot(userID, today, r)); err != nil {
		return stats, fmt.Errorf("saving analytics snapshot: %w", err)
	}
	e.log.Info().Msg("Analytics snapshot saved")

	return stats, nil
}

func (e *Engine) persistPost(ctx context.Context, tx *store.Tx, userID string, today time.Time, p types.Post, stats *Stats) error {
	postID, isNew, err := UpsertPost(ctx, tx, userID, today, p)
	if err != nil {
		return err
	}
	if isNew {
		stats.PostsNew++
	} else {
		stats.PostsUpdated++
	}
	stats.HistoryRows++

	for _, tag := range extract.Hashtags(p.Content) {
		if err := tx.UpsertHashtag(ctx, userID, hashtagUse(tag, p)); err != nil {
			return err
		}
		stats.HashtagUpdates++
	}

	for _, c := range p.ScrapedComments {
		added, err := tx.AddComment(ctx, postID, c)
		if err != nil {
			return err
		}
		if added {
			stats.CommentsSaved++
		}
	}

	// An empty set means no analytics were read this run; keep the old rows.
	if len(p.Demographics) > 0 {
		if err := tx.ReplacePostDemographics(ctx, postID, p.Demographics); err != nil {
			return err
		}
		stats.PostDemographics += len(p.Demographics)
	}

	return nil
}

// UpsertPost finds the post by identity key. A new post is inserted with a
// first history row that has no deltas. A known post gets its live metrics
// overwritten and the day's history row set to the new values and their
// change since the stored ones.
func UpsertPost(ctx context.Context, tx *store.Tx, userID string, today time.Time, p types.Post) (string, bool, error) {
	key := extract.IdentityKey(p.Content)
	m := store.MetricsOf(p)

	prev, err := tx.FindPost(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		id, err := tx.InsertPost(ctx, userID, key, p)
		if err != nil {
			return "", false, err
		}
		if _, err := tx.InsertFirstHistory(ctx, id, today, m); err != nil {
			return "", false, err
		}
		return id, true, nil
	case err != nil:
		return "", false, err
	}

	if err := tx.UpdatePostMetrics(ctx, prev.ID, m); err != nil {
		return "", false, err
	}
	if err := tx.UpsertHistory(ctx, prev.ID, today, m, m.Sub(prev.Metrics)); err != nil {
		return "", false, err
	}
	return prev.ID, false, nil
}

// EngagementRate is (likes + comments + shares) / impressions, 0 without
// impressions.
func EngagementRate(p types.Post) float64 {
	if p.Impressions <= 0 {
		return 0
	}
	return float64(p.Engagement()) / float64(p.Impressions)
}

func hashtagUse(tag string, p types.Post) store.HashtagUse {
	return store.HashtagUse{
		Hashtag:        tag,
		Impressions:    p.Impressions,
		Likes:          p.Likes,
		EngagementRate: EngagementRate(p),
		UsedAt:         p.PublishedAt,
	}
}

// DailySnapshot aggregates a run into the user's row for the day
func DailySnapshot(userID string, date time.Time, r types.Result) store.Snapshot {
	s := store.Snapshot{
		UserID:            userID,
		Date:              date,
		Followers:         r.Profile.Followers,
		PostsCount:        len(r.Posts),
		ProfileViews:      r.Analytics.ProfileViews,
		SearchAppearances: r.Analytics.SearchAppearances,
	}
	for _, p := range r.Posts {
		s.TotalImpressions += p.Impressions
		s.TotalEngagements += p.Likes + p.Comments
	}
	return s
}
