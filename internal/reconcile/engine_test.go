package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/lisync/internal/extract"
	"github.com/ibeckermayer/lisync/internal/store"
	"github.com/ibeckermayer/lisync/internal/types"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestEngine(t *testing.T) (*Engine, *store.Store, string, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}

	s, err := store.New(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	s.SetClock(c.now)
	t.Cleanup(func() { s.Close() })

	userID, err := s.CreateUser(context.Background(), "ada@example.com", "Ada")
	require.NoError(t, err)

	return New(s, c.now, zerolog.Nop()), s, userID, c
}

const content = "Three lessons from shipping our data pipeline #DataEng #golang"

func post(impressions, likes, comments, shares int) types.Post {
	return types.Post{
		URN:         "urn:li:activity:1",
		Content:     content,
		PostType:    types.PostTypeText,
		PublishedAt: time.Date(2026, 3, 28, 9, 0, 0, 0, time.UTC),
		Impressions: impressions,
		Likes:       likes,
		Comments:    comments,
		Shares:      shares,
	}
}

func history(t *testing.T, s *store.Store) []store.HistoryEntry {
	t.Helper()
	p, err := s.FindPost(context.Background(), extract.IdentityKey(content))
	require.NoError(t, err)
	h, err := s.History(context.Background(), p.ID)
	require.NoError(t, err)
	return h
}

func TestPersist_NewPost(t *testing.T) {
	e, s, userID, _ := newTestEngine(t)
	ctx := context.Background()

	stats, err := e.Persist(ctx, userID, types.Result{
		Profile: types.Profile{Name: "Ada", Followers: 1234, Connections: 500},
		Posts:   []types.Post{post(100, 10, 2, 1)},
	})
	require.NoError(t, err)
	assert.True(t, stats.ProfileCreated)
	assert.Equal(t, 1, stats.PostsNew)
	assert.Equal(t, 0, stats.PostsUpdated)
	assert.Equal(t, 1, stats.HistoryRows)
	assert.Equal(t, 2, stats.HashtagUpdates)

	h := history(t, s)
	require.Len(t, h, 1)
	assert.Equal(t, store.Metrics{Impressions: 100, Likes: 10, Comments: 2, Shares: 1}, h[0].Metrics)
	assert.Nil(t, h[0].Delta, "first observation has no deltas")

	p, err := s.Profile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1234, p.Profile.Followers)
	assert.Equal(t, 500, p.Profile.Connections)
}

func TestPersist_SameDayTwiceIsIdempotent(t *testing.T) {
	e, s, userID, _ := newTestEngine(t)
	ctx := context.Background()
	r := types.Result{Posts: []types.Post{post(100, 10, 2, 1)}}

	_, err := e.Persist(ctx, userID, r)
	require.NoError(t, err)
	stats, err := e.Persist(ctx, userID, r)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.PostsNew)
	assert.Equal(t, 1, stats.PostsUpdated)

	h := history(t, s)
	require.Len(t, h, 1)
	require.NotNil(t, h[0].Delta)
	assert.Equal(t, store.Metrics{}, *h[0].Delta)
	assert.Equal(t, 100, h[0].Metrics.Impressions)
}

func TestPersist_DeltaAgainstStoredValue(t *testing.T) {
	e, s, userID, c := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Persist(ctx, userID, types.Result{Posts: []types.Post{post(100, 10, 2, 1)}})
	require.NoError(t, err)

	c.t = c.t.AddDate(0, 0, 1)
	_, err = e.Persist(ctx, userID, types.Result{Posts: []types.Post{post(150, 12, 2, 0)}})
	require.NoError(t, err)

	h := history(t, s)
	require.Len(t, h, 2)
	assert.Nil(t, h[0].Delta)
	require.NotNil(t, h[1].Delta)
	assert.Equal(t, store.Metrics{Impressions: 50, Likes: 2, Comments: 0, Shares: -1}, *h[1].Delta)
	assert.Equal(t, store.Metrics{Impressions: 150, Likes: 12, Comments: 2}, h[1].Metrics)

	p, err := s.FindPost(ctx, extract.IdentityKey(content))
	require.NoError(t, err)
	assert.Equal(t, 150, p.Metrics.Impressions, "live columns follow the latest run")
}

func TestPersist_SharedPrefixCollides(t *testing.T) {
	e, s, userID, _ := newTestEngine(t)
	ctx := context.Background()

	// Different posts that only share their first 15 bytes.
	a := post(10, 1, 0, 0)
	a.Content = "Excited to share that I joined Acme Corp as a staff engineer"
	b := post(20, 2, 0, 0)
	b.Content = "Excited to shareholders: our Q3 numbers are in"

	stats, err := e.Persist(ctx, userID, types.Result{Posts: []types.Post{a, b}})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PostsNew)
	assert.Equal(t, 1, stats.PostsUpdated)

	n, err := s.CountPosts(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPersist_HashtagsAccumulateAcrossRuns(t *testing.T) {
	e, s, userID, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.Persist(ctx, userID, types.Result{Posts: []types.Post{post(100, 10, 5, 5)}})
	require.NoError(t, err)
	_, err = e.Persist(ctx, userID, types.Result{Posts: []types.Post{post(200, 10, 0, 0)}})
	require.NoError(t, err)

	h, err := s.Hashtag(ctx, userID, "#dataeng")
	require.NoError(t, err)
	assert.Equal(t, 2, h.PostsCount, "each run counts the post again")
	assert.Equal(t, 300, h.TotalImpressions)
	assert.Equal(t, 20, h.TotalLikes)
	assert.InDelta(t, (0.2+0.05)/2, h.AvgEngagement, 1e-9)
	assert.True(t, h.LastUsedAt.Equal(post(0, 0, 0, 0).PublishedAt))
}

func TestPersist_CommentsDeduplicated(t *testing.T) {
	e, s, userID, _ := newTestEngine(t)
	ctx := context.Background()

	p := post(100, 10, 2, 1)
	p.ScrapedComments = []types.Comment{
		{CommenterName: "Grace", Text: "Great read"},
		{CommenterName: "Grace", Text: "Great read"},
		{CommenterName: "Linus", Text: "Agreed"},
	}

	stats, err := e.Persist(ctx, userID, types.Result{Posts: []types.Post{p}})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.CommentsSaved)

	stats, err = e.Persist(ctx, userID, types.Result{Posts: []types.Post{p}})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CommentsSaved)

	rec, err := s.FindPost(ctx, extract.IdentityKey(content))
	require.NoError(t, err)
	comments, err := s.Comments(ctx, rec.ID)
	require.NoError(t, err)
	assert.Len(t, comments, 2)
}

func TestPersist_PostDemographicsReplaced(t *testing.T) {
	e, s, userID, _ := newTestEngine(t)
	ctx := context.Background()

	first := post(100, 10, 2, 1)
	first.Demographics = []types.Demographic{
		{Category: types.CategoryJobTitle, Value: "Engineer", Percentage: 40},
		{Category: types.CategoryLocation, Value: "Berlin", Percentage: 12},
	}
	second := post(100, 10, 2, 1)
	second.Demographics = []types.Demographic{
		{Category: types.CategoryIndustry, Value: "Software", Percentage: 60},
	}
	unread := post(100, 10, 2, 1)

	_, err := e.Persist(ctx, userID, types.Result{Posts: []types.Post{first}})
	require.NoError(t, err)
	_, err = e.Persist(ctx, userID, types.Result{Posts: []types.Post{second}})
	require.NoError(t, err)
	_, err = e.Persist(ctx, userID, types.Result{Posts: []types.Post{unread}})
	require.NoError(t, err)

	rec, err := s.FindPost(ctx, extract.IdentityKey(content))
	require.NoError(t, err)
	got, err := s.PostDemographics(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Demographics, got, "a run without analytics keeps the last set")
}

func TestPersist_AudienceAndSnapshot(t *testing.T) {
	e, s, userID, c := newTestEngine(t)
	ctx := context.Background()

	r := types.Result{
		Profile:   types.Profile{Followers: 1234},
		Posts:     []types.Post{post(100, 10, 2, 1)},
		Analytics: types.AnalyticsSummary{ProfileViews: 40, SearchAppearances: 9},
		Demographics: []types.Demographic{
			{Category: types.CategoryCompany, Value: "Initech", Percentage: 3},
		},
	}

	stats, err := e.Persist(ctx, userID, r)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.AudienceDemographics)

	r.Profile.Followers = 1240
	_, err = e.Persist(ctx, userID, r)
	require.NoError(t, err)

	snap, err := s.Snapshot(ctx, userID, c.t)
	require.NoError(t, err)
	assert.Equal(t, store.Snapshot{
		UserID:            userID,
		Date:              store.Day(c.t),
		Followers:         1240,
		PostsCount:        1,
		TotalImpressions:  100,
		TotalEngagements:  12,
		ProfileViews:      40,
		SearchAppearances: 9,
	}, normalizeDate(snap))

	audience, err := s.AudienceDemographics(ctx, userID, c.t)
	require.NoError(t, err)
	assert.Len(t, audience, 2, "same-day audience batches are appended")
}

func normalizeDate(s store.Snapshot) store.Snapshot {
	s.Date = s.Date.UTC()
	return s
}

func TestEngagementRate(t *testing.T) {
	assert.Equal(t, 0.0, EngagementRate(types.Post{Likes: 5}))
	assert.InDelta(t, 0.16, EngagementRate(post(100, 10, 5, 1)), 1e-9)
}

func TestDailySnapshot(t *testing.T) {
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	s := DailySnapshot("u1", date, types.Result{
		Profile: types.Profile{Followers: 7},
		Posts:   []types.Post{post(10, 1, 1, 5), post(20, 2, 0, 5)},
	})
	assert.Equal(t, 2, s.PostsCount)
	assert.Equal(t, 30, s.TotalImpressions)
	assert.Equal(t, 4, s.TotalEngagements, "shares are not engagements here")
}
