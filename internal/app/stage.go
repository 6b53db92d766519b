package app

// Stage is a step of a sync run. Stages run in declaration order; Aborted is
// only reachable from Init.
type Stage int

const (
	StageInit Stage = iota
	StageProfile
	StagePosts
	StageAnalyticsSummary
	StageDemographics
	StagePostAnalytics
	StagePersist
	StageDone
	StageAborted
)

var stageNames = [...]string{
	StageInit:             "INIT",
	StageProfile:          "PROFILE_SCRAPE",
	StagePosts:            "POSTS_SCRAPE",
	StageAnalyticsSummary: "ANALYTICS_SUMMARY_SCRAPE",
	StageDemographics:     "DEMOGRAPHICS_SCRAPE",
	StagePostAnalytics:    "PER_POST_ANALYTICS",
	StagePersist:          "PERSIST",
	StageDone:             "DONE",
	StageAborted:          "ABORTED",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "UNKNOWN"
	}
	return stageNames[s]
}
