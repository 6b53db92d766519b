package types

import "time"

// Category classifies an audience-composition data point. The string values
// are stored as-is and read by the dashboard, so they must not change.
type Category string

const (
	CategoryJobTitle Category = "JOB_TITLE"
	CategoryIndustry Category = "INDUSTRY"
	CategoryLocation Category = "LOCATION"
	CategoryCompany  Category = "COMPANY"
)

// PostType is the coarse media type of a post.
type PostType string

const (
	PostTypeText     PostType = "TEXT"
	PostTypeImage    PostType = "IMAGE"
	PostTypeVideo    PostType = "VIDEO"
	PostTypeCarousel PostType = "CAROUSEL"
	PostTypeArticle  PostType = "ARTICLE"
)

// Profile is the scraped state of the account's own profile page
type Profile struct {
	Name        string `json:"name"`
	Headline    string `json:"headline"`
	Followers   int    `json:"followers"`
	Connections int    `json:"connections"`
}

// Post represents a post scraped from the activity feed
type Post struct {
	URN             string        `json:"urn"`
	Content         string        `json:"content"`
	PostType        PostType      `json:"post_type"`
	PublishedAt     time.Time     `json:"published_at"`
	Impressions     int           `json:"impressions"`
	Likes           int           `json:"likes"`
	Comments        int           `json:"comments"`
	Shares          int           `json:"shares"`
	ScrapedComments []Comment     `json:"scraped_comments"`
	Demographics    []Demographic `json:"demographics,omitempty"`
}

// Engagement is likes + comments + shares.
func (p Post) Engagement() int {
	return p.Likes + p.Comments + p.Shares
}

// Comment is a single visible comment under a post
type Comment struct {
	CommenterName     string `json:"commenter_name"`
	CommenterHeadline string `json:"commenter_headline"`
	Text              string `json:"text"`
}

// Demographic is one classified audience row. Percentage is 0-100.
type Demographic struct {
	Category   Category `json:"category"`
	Value      string   `json:"value"`
	Percentage float64  `json:"percentage"`
}

// AnalyticsSummary holds the account-level counters from the analytics pages
type AnalyticsSummary struct {
	ProfileViews      int `json:"profile_views"`
	SearchAppearances int `json:"search_appearances"`
}

// Result is everything collected during one run, handed to persistence.
type Result struct {
	Profile      Profile          `json:"profile"`
	Posts        []Post           `json:"posts"`
	Analytics    AnalyticsSummary `json:"analytics"`
	Demographics []Demographic    `json:"demographics"`
}
