package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/lisync/internal/browser/browsertest"
	"github.com/ibeckermayer/lisync/internal/types"
)

const base = "https://li.test"

var now = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func newTestScraper(limit int) *Scraper {
	return New(Options{
		BaseURL:      base + "/",
		PostLimit:    limit,
		ScrollPasses: 2,
		Now:          func() time.Time { return now },
		Log:          zerolog.Nop(),
	})
}

const profileHTML = `<html><body><main>
<h1> Ada Lovelace </h1>
<div class="text-body-medium">Analytical engines and poetry</div>
<ul>
  <li><span>1,234 followers</span></li>
  <li><span>500+ connections</span></li>
</ul>
<script>var x = "99 followers";</script>
</main></body></html>`

func TestScrapeProfile(t *testing.T) {
	page := browsertest.New(map[string]string{base + ProfilePath: profileHTML})

	p, err := newTestScraper(15).ScrapeProfile(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, types.Profile{
		Name:        "Ada Lovelace",
		Headline:    "Analytical engines and poetry",
		Followers:   1234,
		Connections: 500,
	}, p)
	assert.Equal(t, []string{base + ProfilePath}, page.Visited)
}

func TestScrapeProfile_MissingCounts(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + ProfilePath: `<html><body><h1>Ada</h1></body></html>`,
	})

	p, err := newTestScraper(15).ScrapeProfile(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Zero(t, p.Followers)
	assert.Zero(t, p.Connections)
}

func TestScrapeProfile_CountInMarkupOnly(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + ProfilePath: `<html><body><h1>Ada</h1><a aria-label="2.5K followers"></a></body></html>`,
	})

	p, err := newTestScraper(15).ScrapeProfile(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, 2500, p.Followers)
}

func TestScrapeProfile_NavigationError(t *testing.T) {
	page := browsertest.New(map[string]string{})
	page.Fail[base+ProfilePath] = errors.New("net::ERR_TIMED_OUT")

	_, err := newTestScraper(15).ScrapeProfile(context.Background(), page)
	assert.Error(t, err)
}

const activityHTML = `<html><body>
<div data-urn="urn:li:activity:111">
  <div class="update-components-actor__sub-description">2d • Edited</div>
  <div class="feed-shared-update-v2__description">Excited to share our new release! #Launch #golang</div>
  <span>1,024 impressions</span>
  <span>42 reactions</span>
  <span>7 comments</span>
  <span>3 reposts</span>
  <article class="comments-comment-item">
    <span class="comments-post-meta__name-text">Grace Hopper</span>
    <span class="comments-post-meta__headline">Rear Admiral</span>
    <div class="comments-comment-item__main-content">Congrats on shipping</div>
  </article>
  <article class="comments-comment-item">
    <span class="comments-post-meta__name-text">Nobody</span>
  </article>
</div>
<div data-urn="urn:li:activity:222">
  <div class="update-components-actor__sub-description">3w</div>
  <div class="break-words">A picture is worth a thousand words, they say</div>
  <div class="update-components-image"><img src="x.png"></div>
</div>
<div data-urn="urn:li:activity:333">
  <div class="break-words">too short</div>
</div>
<div data-urn="urn:li:activity:444">
  <div class="update-components-actor__sub-description">1mo</div>
  <div class="feed-shared-text">Watch the recording of last week's talk here</div>
  <video src="talk.mp4"></video>
</div>
</body></html>`

func TestScrapePosts(t *testing.T) {
	page := browsertest.New(map[string]string{base + ActivityPath: activityHTML})

	posts, err := newTestScraper(15).ScrapePosts(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, posts, 3, "short content is skipped")

	first := posts[0]
	assert.Equal(t, "urn:li:activity:111", first.URN)
	assert.Equal(t, "Excited to share our new release! #Launch #golang", first.Content)
	assert.Equal(t, types.PostTypeText, first.PostType)
	assert.Equal(t, now.AddDate(0, 0, -2), first.PublishedAt)
	assert.Equal(t, 1024, first.Impressions)
	assert.Equal(t, 42, first.Likes)
	assert.Equal(t, 7, first.Comments)
	assert.Equal(t, 3, first.Shares)
	assert.Equal(t, []types.Comment{{
		CommenterName:     "Grace Hopper",
		CommenterHeadline: "Rear Admiral",
		Text:              "Congrats on shipping",
	}}, first.ScrapedComments)

	second := posts[1]
	assert.Equal(t, "urn:li:activity:222", second.URN)
	assert.Equal(t, types.PostTypeImage, second.PostType)
	assert.Equal(t, now.AddDate(0, 0, -21), second.PublishedAt)
	assert.Zero(t, second.Engagement())
	assert.Empty(t, second.ScrapedComments)

	third := posts[2]
	assert.Equal(t, types.PostTypeVideo, third.PostType)
	assert.Equal(t, now.AddDate(0, -1, 0), third.PublishedAt)

	assert.Equal(t, 2, page.Scrolls)
}

func TestScrapePosts_Limit(t *testing.T) {
	page := browsertest.New(map[string]string{base + ActivityPath: activityHTML})

	posts, err := newTestScraper(2).ScrapePosts(context.Background(), page)
	require.NoError(t, err)
	assert.Len(t, posts, 2)
}

func TestScrapePosts_EmptyFeed(t *testing.T) {
	page := browsertest.New(map[string]string{base + ActivityPath: `<html><body><p>Nothing yet</p></body></html>`})

	posts, err := newTestScraper(15).ScrapePosts(context.Background(), page)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestParsePost_TruncatesContent(t *testing.T) {
	long := make([]rune, 700)
	for i := range long {
		long[i] = 'é'
	}
	page := browsertest.New(map[string]string{
		base + ActivityPath: `<html><body><div data-urn="urn:li:activity:1"><p class="break-words">` + string(long) + `</p></div></body></html>`,
	})

	posts, err := newTestScraper(15).ScrapePosts(context.Background(), page)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Len(t, []rune(posts[0].Content), maxContentLen)
	assert.Equal(t, now, posts[0].PublishedAt, "no timestamp falls back to now")
}

func TestScrapeAnalyticsSummary_Dashboard(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + DashboardPath: `<html><body>
			<div><strong>123</strong><span>who viewed your profile</span></div>
			<div><strong>1,045</strong><span>search appearances</span></div>
		</body></html>`,
	})

	a, err := newTestScraper(15).ScrapeAnalyticsSummary(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, types.AnalyticsSummary{ProfileViews: 123, SearchAppearances: 1045}, a)
	assert.Equal(t, []string{base + DashboardPath}, page.Visited)
}

func TestScrapeAnalyticsSummary_RedirectFallsBackToCreator(t *testing.T) {
	page := browsertest.New(map[string]string{
		base + "/feed/": `<html><body>feed</body></html>`,
		base + CreatorAnalyticsPath: `<html><body>
			<p>87</p><p>Profile viewers</p>
			<p>12</p><p>Search appearances</p>
		</body></html>`,
	})
	page.Redirects[base+DashboardPath] = base + "/feed/"

	a, err := newTestScraper(15).ScrapeAnalyticsSummary(context.Background(), page)
	require.NoError(t, err)
	assert.Equal(t, types.AnalyticsSummary{ProfileViews: 87, SearchAppearances: 12}, a)
	assert.Equal(t, []string{base + DashboardPath, base + CreatorAnalyticsPath}, page.Visited)
}
