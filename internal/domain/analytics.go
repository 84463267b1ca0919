package domain

import "time"

// ObjectionStats are accepted verbatim from an external source (objection
// tracking lives in client-local storage) and default to zero when absent.
type ObjectionStats struct {
	Raised   int `json:"raised"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Deferred int `json:"deferred"`
}

// TrendPoint is one UTC calendar day in the analytics trend series. Days
// with zero sessions still appear with zero averages.
type TrendPoint struct {
	Date               time.Time `json:"date"`
	SessionsCreated    int       `json:"sessions_created"`
	SessionsCompleted  int       `json:"sessions_completed"`
	AvgFalsifiability  float64   `json:"avg_falsifiability"`
	AvgSpecificity     float64   `json:"avg_specificity"`
}

// InsightCode identifies which heuristic produced an insight.
type InsightCode string

const (
	InsightNoHistory       InsightCode = "no_history"
	InsightLowCompletion   InsightCode = "low_completion"
	InsightVagueHypotheses InsightCode = "vague_hypotheses"
	InsightSkipScaleCheck  InsightCode = "skip_scale_check"
	InsightFewAlternatives InsightCode = "few_alternatives"
)

// Insight is a heuristic message triggered by a threshold breach.
type Insight struct {
	Code    InsightCode `json:"code"`
	Message string      `json:"message"`
}

// AchievementCode identifies a gamified milestone.
type AchievementCode string

const (
	AchievementFirstComplete  AchievementCode = "first_complete"
	AchievementFiveComplete   AchievementCode = "five_complete"
	AchievementThreeOperators AchievementCode = "three_operators"
	AchievementAllOperators   AchievementCode = "all_operators"
	AchievementTenSessions    AchievementCode = "ten_sessions"
	AchievementFiveFalsified  AchievementCode = "five_falsified"
	AchievementThreeRobust    AchievementCode = "three_robust"
)

// Achievement is one milestone in the fixed catalog. The full catalog is
// always returned so the UI can render locked items.
type Achievement struct {
	Code        AchievementCode `json:"code"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Unlocked    bool            `json:"unlocked"`
}

// PersonalAnalytics is a derived, recomputable snapshot over a list of
// sessions. It has no lifecycle beyond recompute-on-demand.
type PersonalAnalytics struct {
	SessionsTotal              int                  `json:"sessions_total"`
	SessionsCompleted          int                  `json:"sessions_completed"`
	CompletionRate             float64              `json:"completion_rate"`
	HypothesesTotal            int                  `json:"hypotheses_total"`
	HypothesesWithAlternatives int                  `json:"hypotheses_with_alternatives"`
	TestsTotal                 int                  `json:"tests_total"`
	AvgFalsifiability          float64              `json:"avg_falsifiability"`
	AvgSpecificity             float64              `json:"avg_specificity"`
	AvgSessionMinutes          float64              `json:"avg_session_minutes"`
	OperatorUsage              map[OperatorType]int `json:"operator_usage"`
	HypothesesFalsified        int                  `json:"hypotheses_falsified"`
	HypothesesRobust           int                  `json:"hypotheses_robust"`
	HypothesesAbandoned        int                  `json:"hypotheses_abandoned"`
	EvidenceRevisions          int                  `json:"evidence_revisions"`
	Objections                 ObjectionStats       `json:"objections"`
	Trend                      []TrendPoint         `json:"trend"`
	Insights                   []Insight            `json:"insights"`
	Achievements               []Achievement        `json:"achievements"`
}
