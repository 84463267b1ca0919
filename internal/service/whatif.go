package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

var ErrScenarioTestNotFound = errors.New("test not found in scenario")

// Ratio is a float64 that encodes as null in JSON when infinite. JSON has
// no literal for Inf.
type Ratio float64

func (r Ratio) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(r), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

// Star-rating bands on information value. A power-1 test at mid confidence
// lands in the 1-star band, a power-5 test in the 5-star band.
const (
	fiveStarInformationValue  = 25.0
	fourStarInformationValue  = 19.0
	threeStarInformationValue = 13.0
	twoStarInformationValue   = 7.0
)

// Starting-confidence tiers used for scenario explanations.
const (
	highConfidenceTier = 70.0
	lowConfidenceTier  = 30.0
)

// TestAnalysis previews both outcomes of one proposed test.
type TestAnalysis struct {
	Test         domain.TestInput `json:"test"`
	IfSupports   ConfidenceUpdate `json:"if_supports"`
	IfChallenges ConfidenceUpdate `json:"if_challenges"`
	// MaxImpact is the larger absolute delta of the two outcomes.
	MaxImpact float64 `json:"max_impact"`
	// InformationValue measures how far apart the two hypothetical outcomes
	// are: |delta if supports| + |delta if challenges|.
	InformationValue float64 `json:"information_value"`
	// AsymmetryRatio is |delta if challenges| / |delta if supports|. When the
	// supports delta is zero the ratio is +Inf, never NaN, so it stays
	// comparable.
	AsymmetryRatio Ratio `json:"asymmetry_ratio"`
}

// AnalyzeSingleTest previews the informational value of one proposed test
// before running it.
func AnalyzeSingleTest(current float64, test domain.TestInput, cfg UpdateConfig) (TestAnalysis, error) {
	ifSupports, err := ApplyEvidence(current, test, domain.ResultSupports, cfg)
	if err != nil {
		return TestAnalysis{}, err
	}
	ifChallenges, err := ApplyEvidence(current, test, domain.ResultChallenges, cfg)
	if err != nil {
		return TestAnalysis{}, err
	}

	supportMag := math.Abs(ifSupports.Delta)
	challengeMag := math.Abs(ifChallenges.Delta)

	ratio := math.Inf(1)
	if supportMag > 0 {
		ratio = challengeMag / supportMag
	}

	return TestAnalysis{
		Test:             test,
		IfSupports:       ifSupports,
		IfChallenges:     ifChallenges,
		MaxImpact:        math.Max(supportMag, challengeMag),
		InformationValue: supportMag + challengeMag,
		AsymmetryRatio:   Ratio(ratio),
	}, nil
}

// RankedTest is one candidate in a ranking, best first.
type RankedTest struct {
	TestAnalysis
	Rank  int `json:"rank"`
	Stars int `json:"stars"`
}

// Recommendation is the natural-language advice for the top-ranked test.
type Recommendation struct {
	TestID    string `json:"test_id,omitempty"`
	TestName  string `json:"test_name,omitempty"`
	Stars     int    `json:"stars"`
	Rationale string `json:"rationale"`
}

// TestRanking is the result of ranking candidate tests. An empty candidate
// list yields zero ranked tests and no recommendation.
type TestRanking struct {
	Ranked         []RankedTest    `json:"ranked"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

func starsFor(informationValue float64) int {
	switch {
	case informationValue >= fiveStarInformationValue:
		return 5
	case informationValue >= fourStarInformationValue:
		return 4
	case informationValue >= threeStarInformationValue:
		return 3
	case informationValue >= twoStarInformationValue:
		return 2
	default:
		return 1
	}
}

func rationaleFor(stars int, name string) string {
	if name == "" {
		name = "this test"
	}
	switch stars {
	case 5:
		return fmt.Sprintf("Run %s first: either outcome moves your confidence decisively, so you learn the most per experiment.", name)
	case 4:
		return fmt.Sprintf("%s discriminates strongly between outcomes and is worth prioritizing.", name)
	case 3:
		return fmt.Sprintf("%s gives a moderate spread between outcomes; useful, but look for a sharper exclusion test if one exists.", name)
	case 2:
		return fmt.Sprintf("%s barely separates its outcomes. Consider redesigning it to rule something out.", name)
	default:
		return fmt.Sprintf("%s would tell you almost nothing either way; running it spends resources without moving belief.", name)
	}
}

// RankCandidateTests sorts candidate tests descending by information value
// and produces a recommendation for the top-ranked one.
func RankCandidateTests(current float64, tests []domain.TestInput, cfg UpdateConfig) (TestRanking, error) {
	if len(tests) == 0 {
		return TestRanking{Ranked: []RankedTest{}}, nil
	}

	ranked := make([]RankedTest, 0, len(tests))
	for _, t := range tests {
		analysis, err := AnalyzeSingleTest(current, t, cfg)
		if err != nil {
			return TestRanking{}, err
		}
		ranked = append(ranked, RankedTest{
			TestAnalysis: analysis,
			Stars:        starsFor(analysis.InformationValue),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].InformationValue > ranked[j].InformationValue
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	top := ranked[0]
	return TestRanking{
		Ranked: ranked,
		Recommendation: &Recommendation{
			TestID:    top.Test.ID,
			TestName:  top.Test.Name,
			Stars:     top.Stars,
			Rationale: rationaleFor(top.Stars, top.Test.Name),
		},
	}, nil
}

// replayScenario recomputes the scenario's projection by replaying the full
// assumed-test list from its starting confidence. Projections are never
// patched incrementally, so they stay consistent with the test list
// regardless of edit order.
func replayScenario(s domain.WhatIfScenario, cfg UpdateConfig) (domain.WhatIfScenario, error) {
	batch, err := ApplyEvidenceBatch(s.StartingConfidence, s.EvidenceItems(), cfg)
	if err != nil {
		return domain.WhatIfScenario{}, err
	}
	s.ProjectedConfidence = batch.FinalConfidence
	s.ConfidenceDelta = batch.TotalDelta
	return s, nil
}

// BuildScenario creates a new what-if scenario with a collision-resistant
// id. The caller supplies now so scenario creation stays deterministic in
// tests.
func BuildScenario(name string, startingConfidence float64, tests []domain.AssumedTest, cfg UpdateConfig, now time.Time) (domain.WhatIfScenario, error) {
	s := domain.WhatIfScenario{
		ID:                 uuid.NewString(),
		Name:               name,
		StartingConfidence: startingConfidence,
		AssumedTests:       append([]domain.AssumedTest(nil), tests...),
		CreatedAt:          now,
	}
	return replayScenario(s, cfg)
}

// AddTest returns a new scenario with the test appended. The input scenario
// is never mutated.
func AddTest(s domain.WhatIfScenario, t domain.AssumedTest, cfg UpdateConfig) (domain.WhatIfScenario, error) {
	out := s.Clone()
	out.AssumedTests = append(out.AssumedTests, t)
	return replayScenario(out, cfg)
}

// RemoveTest returns a new scenario without the named test. Removing an
// absent test is a no-op.
func RemoveTest(s domain.WhatIfScenario, testID string, cfg UpdateConfig) (domain.WhatIfScenario, error) {
	out := s.Clone()
	kept := out.AssumedTests[:0]
	for _, at := range out.AssumedTests {
		if at.TestID != testID {
			kept = append(kept, at)
		}
	}
	out.AssumedTests = kept
	return replayScenario(out, cfg)
}

// UpdateTestResult returns a new scenario with the named test's assumed
// result changed.
func UpdateTestResult(s domain.WhatIfScenario, testID string, result domain.EvidenceResult, cfg UpdateConfig) (domain.WhatIfScenario, error) {
	out := s.Clone()
	found := false
	for i, at := range out.AssumedTests {
		if at.TestID == testID {
			out.AssumedTests[i].AssumedResult = result
			found = true
		}
	}
	if !found {
		return domain.WhatIfScenario{}, fmt.Errorf("%w: %q", ErrScenarioTestNotFound, testID)
	}
	return replayScenario(out, cfg)
}

// ScenarioAnalysis projects a scenario across its three parallel cases.
type ScenarioAnalysis struct {
	Scenario domain.WhatIfScenario `json:"scenario"`
	// BestCase forces every assumed test to supports.
	BestCase BatchUpdate `json:"best_case"`
	// WorstCase forces every assumed test to challenges.
	WorstCase BatchUpdate `json:"worst_case"`
	// ExpectedCase uses the scenario's actual assumed results.
	ExpectedCase BatchUpdate `json:"expected_case"`
	// MostImpactful is the single test with the largest individual max
	// impact at the starting confidence; nil when the scenario is empty.
	MostImpactful *TestAnalysis `json:"most_impactful,omitempty"`
	Explanation   string        `json:"explanation"`
}

func forcedItems(items []domain.EvidenceItem, result domain.EvidenceResult) []domain.EvidenceItem {
	out := make([]domain.EvidenceItem, len(items))
	for i, item := range items {
		item.Result = result
		out[i] = item
	}
	return out
}

func scenarioExplanation(startingConfidence float64) string {
	switch {
	case startingConfidence >= highConfidenceTier:
		return "At high confidence, supporting results barely move you while a single strong challenge costs a large share of it. Expect the downside to dominate."
	case startingConfidence <= lowConfidenceTier:
		return "At low confidence there is little left for challenges to take away, and supporting results still have most of the range to climb. Expect the upside to dominate."
	default:
		return "At mid confidence both directions are live, but challenges are weighted heavier than supports at equal power, so the worst case sits further from your current position than the best case."
	}
}

// AnalyzeScenario computes the best, worst and expected projections of a
// scenario, each by replaying the batch update from the starting confidence.
func AnalyzeScenario(s domain.WhatIfScenario, cfg UpdateConfig) (ScenarioAnalysis, error) {
	items := s.EvidenceItems()

	best, err := ApplyEvidenceBatch(s.StartingConfidence, forcedItems(items, domain.ResultSupports), cfg)
	if err != nil {
		return ScenarioAnalysis{}, err
	}
	worst, err := ApplyEvidenceBatch(s.StartingConfidence, forcedItems(items, domain.ResultChallenges), cfg)
	if err != nil {
		return ScenarioAnalysis{}, err
	}
	expected, err := ApplyEvidenceBatch(s.StartingConfidence, items, cfg)
	if err != nil {
		return ScenarioAnalysis{}, err
	}

	var mostImpactful *TestAnalysis
	for _, item := range items {
		analysis, err := AnalyzeSingleTest(s.StartingConfidence, item.Test, cfg)
		if err != nil {
			return ScenarioAnalysis{}, err
		}
		if mostImpactful == nil || analysis.MaxImpact > mostImpactful.MaxImpact {
			a := analysis
			mostImpactful = &a
		}
	}

	return ScenarioAnalysis{
		Scenario:      s,
		BestCase:      best,
		WorstCase:     worst,
		ExpectedCase:  expected,
		MostImpactful: mostImpactful,
		Explanation:   scenarioExplanation(s.StartingConfidence),
	}, nil
}
