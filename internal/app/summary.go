package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/ibeckermayer/lisync/internal/reconcile"
	"github.com/ibeckermayer/lisync/internal/types"
)

// Summary describes what one sync run collected and wrote
type Summary struct {
	reconcile.Stats
	Stage             Stage         `json:"-"`
	Profile           types.Profile `json:"profile"`
	PostsScraped      int           `json:"posts_scraped"`
	PostAnalytics     int           `json:"post_analytics"`
	ProfileViews      int           `json:"profile_views"`
	SearchAppearances int           `json:"search_appearances"`
	Duration          time.Duration `json:"duration"`
}

func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stage: %s\n", s.Stage)
	fmt.Fprintf(&b, "Profile: %s (%d followers, %d connections)\n",
		orUnknown(s.Profile.Name), s.Profile.Followers, s.Profile.Connections)
	fmt.Fprintf(&b, "Posts: %d scraped, %d new, %d updated\n", s.PostsScraped, s.PostsNew, s.PostsUpdated)
	fmt.Fprintf(&b, "Metrics snapshots: %d\n", s.HistoryRows)
	fmt.Fprintf(&b, "Hashtag updates: %d\n", s.HashtagUpdates)
	fmt.Fprintf(&b, "Comments: %d\n", s.CommentsSaved)
	fmt.Fprintf(&b, "Post demographics: %d (from %d posts)\n", s.PostDemographics, s.PostAnalytics)
	fmt.Fprintf(&b, "Audience demographics: %d\n", s.AudienceDemographics)
	fmt.Fprintf(&b, "Profile views: %d, search appearances: %d\n", s.ProfileViews, s.SearchAppearances)
	fmt.Fprintf(&b, "Duration: %s", s.Duration.Round(time.Second))
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "(unknown)"
	}
	return s
}
