package domain

import "time"

// AssumedTest is one hypothetical test result inside a what-if scenario.
type AssumedTest struct {
	TestID              string         `json:"test_id"`
	Name                string         `json:"name,omitempty"`
	DiscriminativePower int            `json:"discriminative_power"`
	AssumedResult       EvidenceResult `json:"assumed_result"`
}

// WhatIfScenario is a user-named bundle of assumed test results attached to
// a starting confidence. It is a pure serializable value: no embedded
// functions, so it can be stored and replayed deterministically.
// ProjectedConfidence and ConfidenceDelta are always recomputed by replaying
// the full assumed-test list from StartingConfidence.
type WhatIfScenario struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	StartingConfidence  float64       `json:"starting_confidence"`
	AssumedTests        []AssumedTest `json:"assumed_tests"`
	ProjectedConfidence float64       `json:"projected_confidence"`
	ConfidenceDelta     float64       `json:"confidence_delta"`
	CreatedAt           time.Time     `json:"created_at"`
}

// Clone returns a deep copy of the scenario.
func (s WhatIfScenario) Clone() WhatIfScenario {
	out := s
	out.AssumedTests = append([]AssumedTest(nil), s.AssumedTests...)
	return out
}

// EvidenceItems converts the scenario's assumed tests into a batch for the
// confidence engine.
func (s WhatIfScenario) EvidenceItems() []EvidenceItem {
	items := make([]EvidenceItem, 0, len(s.AssumedTests))
	for _, at := range s.AssumedTests {
		items = append(items, EvidenceItem{
			Test: TestInput{
				ID:                  at.TestID,
				Name:                at.Name,
				DiscriminativePower: at.DiscriminativePower,
			},
			Result: at.AssumedResult,
		})
	}
	return items
}
