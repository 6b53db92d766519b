package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/ibeckermayer/lisync/internal/browser"
	"github.com/ibeckermayer/lisync/internal/extract"
	"github.com/ibeckermayer/lisync/internal/types"
)

// Scraper extracts profile analytics from LinkedIn pages
type Scraper struct {
	baseURL      string
	postLimit    int
	scrollPasses int
	now          func() time.Time
	log          zerolog.Logger
}

// Options configures a Scraper
type Options struct {
	BaseURL      string
	PostLimit    int
	ScrollPasses int
	Now          func() time.Time
	Log          zerolog.Logger
}

// New creates a new scraper
func New(opts Options) *Scraper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Scraper{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		postLimit:    opts.PostLimit,
		scrollPasses: opts.ScrollPasses,
		now:          opts.Now,
		log:          opts.Log,
	}
}

// snapshot is a loaded page as both DOM and flattened text
type snapshot struct {
	url  string
	doc  *goquery.Document
	html string
	text string
}

func newSnapshot(url, html string) (*snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return &snapshot{
		url:  url,
		doc:  doc,
		html: html,
		text: strings.Join(extract.Lines(doc.Find("body")), " "),
	}, nil
}

// count tries a pattern chain on the page text, then on the raw HTML where
// numbers sometimes only appear in attributes or embedded JSON.
func (s *snapshot) count(chain extract.Chain[string, int]) int {
	if v, ok := chain.Extract(s.text); ok {
		return v
	}
	return chain.Or(s.html, 0)
}

func (s *Scraper) url(path string) string {
	return s.baseURL + path
}

// capture reads the current page into a snapshot
func (s *Scraper) capture(ctx context.Context, page browser.Page) (*snapshot, error) {
	url, err := page.URL(ctx)
	if err != nil {
		return nil, err
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return newSnapshot(url, html)
}

func (s *Scraper) load(ctx context.Context, page browser.Page, path string) (*snapshot, error) {
	if err := page.Navigate(ctx, s.url(path)); err != nil {
		return nil, err
	}
	return s.capture(ctx, page)
}

const number = `(\d[\d,]*(?:\.\d+)?[KMB]?)`

var (
	followersChain   = extract.CountPatterns(`(?i)` + number + `\+?\s*followers?`)
	connectionsChain = extract.CountPatterns(`(?i)` + number + `\+?\s*connections?`)
)

// ScrapeProfile reads name, headline and audience size from the profile page
func (s *Scraper) ScrapeProfile(ctx context.Context, page browser.Page) (types.Profile, error) {
	snap, err := s.load(ctx, page, ProfilePath)
	if err != nil {
		return types.Profile{}, err
	}
	return parseProfile(snap), nil
}

func parseProfile(snap *snapshot) types.Profile {
	return types.Profile{
		Name:        strings.TrimSpace(snap.doc.Find(ProfileName).First().Text()),
		Headline:    strings.TrimSpace(snap.doc.Find(ProfileHeadline).First().Text()),
		Followers:   snap.count(followersChain),
		Connections: snap.count(connectionsChain),
	}
}

var (
	likesChain = extract.CountPatterns(
		`(?i)`+number+`\s*(?:likes?|reactions?)`,
		`(?i)aria-label="`+number+`\s*(?:likes?|reactions?)"`,
		`"numLikes":(\d+)`,
	)
	commentsChain = extract.CountPatterns(
		`(?i)`+number+`\s*comments?`,
		`(?i)aria-label="`+number+`\s*comments?"`,
		`"numComments":(\d+)`,
	)
	repostsChain = extract.CountPatterns(
		`(?i)`+number+`\s*reposts?`,
		`(?i)aria-label="`+number+`\s*reposts?"`,
		`"numShares":(\d+)`,
	)
	impressionsChain = extract.CountPatterns(
		`(?i)`+number+`\s*impressions?`,
		`(?i)`+number+`\s*views?`,
		`(?i)aria-label="`+number+`\s*impressions?"`,
	)

	contentChain = extract.SelectorTexts(20, PostContentSelectors...)

	postTypeChain = extract.Chain[*goquery.Selection, types.PostType]{
		hasSelector(PostVideo, types.PostTypeVideo),
		hasSelector(PostDocument, types.PostTypeCarousel),
		hasSelector(PostArticle, types.PostTypeArticle),
		hasSelector(PostImage, types.PostTypeImage),
	}
)

func hasSelector(css string, t types.PostType) extract.Strategy[*goquery.Selection, types.PostType] {
	return func(sel *goquery.Selection) (types.PostType, bool) {
		return t, sel.Find(css).Length() > 0
	}
}

const maxContentLen = 500

// ScrapePosts loads the activity feed, scrolls for lazy-loaded posts and
// parses up to postLimit of them.
func (s *Scraper) ScrapePosts(ctx context.Context, page browser.Page) ([]types.Post, error) {
	if err := page.Navigate(ctx, s.url(ActivityPath)); err != nil {
		return nil, err
	}

	for i := 0; i < s.scrollPasses; i++ {
		if err := page.ScrollBy(ctx, 1000); err != nil {
			s.log.Warn().Err(err).Int("pass", i+1).Msg("Scroll failed")
			break
		}
	}

	snap, err := s.capture(ctx, page)
	if err != nil {
		return nil, err
	}

	containers := snap.doc.Find(PostContainer)
	s.log.Info().Int("containers", containers.Length()).Msg("Found activity items")

	return parsePosts(containers, s.postLimit, s.now(), s.log), nil
}

func parsePosts(containers *goquery.Selection, limit int, now time.Time, log zerolog.Logger) []types.Post {
	var posts []types.Post

	containers.EachWithBreak(func(i int, c *goquery.Selection) bool {
		if limit > 0 && i >= limit {
			return false
		}

		post, ok := parsePost(c, now)
		if !ok {
			return true
		}

		log.Debug().
			Int("index", i+1).
			Str("content", truncate(post.Content, 40)).
			Int("likes", post.Likes).
			Int("comments", post.Comments).
			Msg("Parsed post")

		posts = append(posts, post)
		return true
	})

	return posts
}

func parsePost(c *goquery.Selection, now time.Time) (types.Post, bool) {
	content, ok := contentChain.Extract(c)
	if !ok {
		return types.Post{}, false
	}
	content = truncate(content, maxContentLen)

	html, _ := c.Html()
	snap := &snapshot{html: html, text: strings.Join(extract.Lines(c), " ")}

	urn, _ := c.Attr(PostURNAttr)

	published, _ := extract.ResolveRelative(c.Find(PostSubDesc).First().Text(), now)

	return types.Post{
		URN:             urn,
		Content:         content,
		PostType:        postTypeChain.Or(c, types.PostTypeText),
		PublishedAt:     published,
		Impressions:     snap.count(impressionsChain),
		Likes:           snap.count(likesChain),
		Comments:        snap.count(commentsChain),
		Shares:          snap.count(repostsChain),
		ScrapedComments: parseComments(c),
	}, true
}

func parseComments(c *goquery.Selection) []types.Comment {
	var comments []types.Comment
	c.Find(CommentItem).Each(func(_ int, item *goquery.Selection) {
		comment := types.Comment{
			CommenterName:     strings.TrimSpace(item.Find(CommenterName).First().Text()),
			CommenterHeadline: strings.TrimSpace(item.Find(CommenterTitle).First().Text()),
			Text:              strings.TrimSpace(item.Find(CommentBody).First().Text()),
		}
		if comment.CommenterName == "" || comment.Text == "" {
			return
		}
		comments = append(comments, comment)
	})
	return comments
}

var (
	dashboardViewsChain  = extract.CountPatterns(`(?i)(\d+(?:,\d+)*)\s*who viewed your profile`)
	dashboardSearchChain = extract.CountPatterns(`(?i)(\d+(?:,\d+)*)\s*search appearances`)
	creatorViewsChain    = extract.CountPatterns(`(?i)(\d+(?:,\d+)*)\s*Profile viewers?`)
	creatorSearchChain   = extract.CountPatterns(`(?i)(\d+(?:,\d+)*)\s*Search appearances?`)
)

// ScrapeAnalyticsSummary reads profile views and search appearances from the
// dashboard, falling back to creator analytics when the dashboard redirects.
func (s *Scraper) ScrapeAnalyticsSummary(ctx context.Context, page browser.Page) (types.AnalyticsSummary, error) {
	snap, err := s.load(ctx, page, DashboardPath)
	if err != nil {
		return types.AnalyticsSummary{}, err
	}

	if strings.Contains(snap.url, "dashboard") {
		return types.AnalyticsSummary{
			ProfileViews:      snap.count(dashboardViewsChain),
			SearchAppearances: snap.count(dashboardSearchChain),
		}, nil
	}

	s.log.Info().Str("url", snap.url).Msg("Dashboard redirected, using creator analytics")

	snap, err = s.load(ctx, page, CreatorAnalyticsPath)
	if err != nil {
		return types.AnalyticsSummary{}, err
	}
	return types.AnalyticsSummary{
		ProfileViews:      snap.count(creatorViewsChain),
		SearchAppearances: snap.count(creatorSearchChain),
	}, nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen])
}
