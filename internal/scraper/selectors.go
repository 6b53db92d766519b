package scraper

// LinkedIn page paths and DOM selectors.
// These are isolated here because LinkedIn changes its DOM frequently.
// Update these when scraping breaks.

const (
	ProfilePath          = "/in/me/"
	ActivityPath         = "/in/me/recent-activity/all/"
	DashboardPath        = "/dashboard/"
	CreatorAnalyticsPath = "/analytics/creator/"
	AudiencePath         = "/analytics/creator/audience/"
	PostSummaryPath      = "/analytics/post-summary/%s/"
)

// Profile selectors
const (
	ProfileName     = `h1`
	ProfileHeadline = `.text-body-medium`
)

// Activity feed selectors
const (
	PostContainer  = `[data-urn*="activity"]`
	PostURNAttr    = "data-urn"
	PostSubDesc    = `.update-components-actor__sub-description`
	PostVideo      = `video, .update-components-linkedin-video`
	PostDocument   = `.update-components-document, .feed-shared-document`
	PostArticle    = `.update-components-article, .feed-shared-article`
	PostImage      = `.update-components-image, .feed-shared-image`
	CommentItem    = `.comments-comment-item, article.comments-comment-entity`
	CommenterName  = `.comments-post-meta__name-text, .comments-comment-meta__description-title`
	CommenterTitle = `.comments-post-meta__headline, .comments-comment-meta__description-subtitle`
	CommentBody    = `.comments-comment-item__main-content, .comments-comment-item-content-body`
)

// PostContentSelectors are tried in order for the post body
var PostContentSelectors = []string{
	".feed-shared-update-v2__description",
	".break-words",
	".feed-shared-text",
	"[data-test-id='main-feed-activity-card__commentary']",
}

// Analytics selectors
const (
	DemographicRow = `.member-analytics-addon-meter-bars-chart__row`
	ShowAllText    = "Show all"
)

// Markers that identify the audience summary list
var AudienceSummaryMarkers = []string{"With this experience level", "From this location"}
