package domain

// EvidenceResult is the observed or assumed outcome of running a test
// against a hypothesis. Eliminates is a stronger variant of challenges used
// in comparison contexts.
type EvidenceResult string

const (
	ResultSupports   EvidenceResult = "supports"
	ResultChallenges EvidenceResult = "challenges"
	ResultNeutral    EvidenceResult = "neutral"
	ResultEliminates EvidenceResult = "eliminates"
)

func ValidEvidenceResult(r string) bool {
	switch EvidenceResult(r) {
	case ResultSupports, ResultChallenges, ResultNeutral, ResultEliminates:
		return true
	}
	return false
}

// Discriminative power bounds. Power rates how strongly a test can
// distinguish a hypothesis from its alternatives.
const (
	MinDiscriminativePower = 1
	MaxDiscriminativePower = 5
)

func ValidDiscriminativePower(p int) bool {
	return p >= MinDiscriminativePower && p <= MaxDiscriminativePower
}

// TestInput describes a proposed or recorded test.
type TestInput struct {
	ID                  string `json:"id,omitempty"`
	Name                string `json:"name,omitempty"`
	DiscriminativePower int    `json:"discriminative_power"`
}

// EvidenceItem pairs a test with its result. Ephemeral input to the
// confidence engine; never persisted as its own entity.
type EvidenceItem struct {
	Test   TestInput      `json:"test"`
	Result EvidenceResult `json:"result"`
}
