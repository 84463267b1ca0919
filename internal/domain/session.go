package domain

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the stage a research session is in. Phases advance monotonically
// through the Brenner loop; revision may loop back into sharpening.
type Phase string

const (
	PhaseIntake            Phase = "intake"
	PhaseSharpening        Phase = "sharpening"
	PhaseLevelSplit        Phase = "level_split"
	PhaseExclusionTest     Phase = "exclusion_test"
	PhaseObjectTranspose   Phase = "object_transpose"
	PhaseScaleCheck        Phase = "scale_check"
	PhaseAgentDispatch     Phase = "agent_dispatch"
	PhaseEvidenceGathering Phase = "evidence_gathering"
	PhaseSynthesis         Phase = "synthesis"
	PhaseRevision          Phase = "revision"
	PhaseComplete          Phase = "complete"
)

func ValidPhase(p string) bool {
	switch Phase(p) {
	case PhaseIntake, PhaseSharpening, PhaseLevelSplit, PhaseExclusionTest,
		PhaseObjectTranspose, PhaseScaleCheck, PhaseAgentDispatch,
		PhaseEvidenceGathering, PhaseSynthesis, PhaseRevision, PhaseComplete:
		return true
	}
	return false
}

// PhaseOrder returns the position of a phase in the loop. Unknown phases
// return -1.
func PhaseOrder(p Phase) int {
	order := []Phase{
		PhaseIntake, PhaseSharpening, PhaseLevelSplit, PhaseExclusionTest,
		PhaseObjectTranspose, PhaseScaleCheck, PhaseAgentDispatch,
		PhaseEvidenceGathering, PhaseSynthesis, PhaseRevision, PhaseComplete,
	}
	for i, candidate := range order {
		if candidate == p {
			return i
		}
	}
	return -1
}

// CanTransition reports whether a session may move from one phase to another.
// Transitions are forward-only, except revision may loop back to sharpening.
// Complete is terminal.
func CanTransition(from, to Phase) bool {
	fromOrder := PhaseOrder(from)
	toOrder := PhaseOrder(to)
	if fromOrder < 0 || toOrder < 0 {
		return false
	}
	if from == PhaseComplete {
		return false
	}
	if from == PhaseRevision && to == PhaseSharpening {
		return true
	}
	return toOrder > fromOrder
}

// OperatorType is one of the four structured reasoning techniques applied to
// a hypothesis during a session.
type OperatorType string

const (
	OperatorLevelSplit      OperatorType = "level_split"
	OperatorExclusionTest   OperatorType = "exclusion_test"
	OperatorObjectTranspose OperatorType = "object_transpose"
	OperatorScaleCheck      OperatorType = "scale_check"
)

func ValidOperatorType(t string) bool {
	switch OperatorType(t) {
	case OperatorLevelSplit, OperatorExclusionTest, OperatorObjectTranspose, OperatorScaleCheck:
		return true
	}
	return false
}

func AllOperatorTypes() []OperatorType {
	return []OperatorType{
		OperatorLevelSplit,
		OperatorExclusionTest,
		OperatorObjectTranspose,
		OperatorScaleCheck,
	}
}

// OperatorApplication records one application of an operator to a hypothesis.
type OperatorApplication struct {
	CardID    string    `json:"card_id"`
	Notes     string    `json:"notes,omitempty"`
	AppliedAt time.Time `json:"applied_at"`
}

// EvolutionTrigger tags what caused a hypothesis revision.
type EvolutionTrigger string

const (
	TriggerEvidence EvolutionTrigger = "evidence"
	TriggerOperator EvolutionTrigger = "operator"
	TriggerTribunal EvolutionTrigger = "tribunal"
	TriggerManual   EvolutionTrigger = "manual"
)

func ValidEvolutionTrigger(t string) bool {
	switch EvolutionTrigger(t) {
	case TriggerEvidence, TriggerOperator, TriggerTribunal, TriggerManual:
		return true
	}
	return false
}

// EvolutionEvent captures one hypothesis revision.
type EvolutionEvent struct {
	FromVersion string           `json:"from_version"`
	ToVersion   string           `json:"to_version"`
	Reason      string           `json:"reason"`
	Trigger     EvolutionTrigger `json:"trigger"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// Session is the unit of a research investigation. All hypothesis versions
// and alternatives are co-located in HypothesisCards; archived ids remain in
// the map for audit.
type Session struct {
	ID                       uuid.UUID                              `json:"id"`
	ResearcherID             uuid.UUID                              `json:"researcher_id"`
	Seq                      int                                    `json:"seq"`
	Phase                    Phase                                  `json:"phase"`
	PrimaryHypothesisID      string                                 `json:"primary_hypothesis_id,omitempty"`
	HypothesisCards          map[string]HypothesisCard              `json:"hypothesis_cards"`
	AlternativeHypothesisIDs []string                               `json:"alternative_hypothesis_ids,omitempty"`
	ArchivedHypothesisIDs    []string                               `json:"archived_hypothesis_ids,omitempty"`
	TestIDs                  []string                               `json:"test_ids,omitempty"`
	OperatorApplications     map[OperatorType][]OperatorApplication `json:"operator_applications,omitempty"`
	HypothesisEvolution      []EvolutionEvent                       `json:"hypothesis_evolution,omitempty"`
	TribunalDispatches       []TribunalDispatch                     `json:"tribunal_dispatches,omitempty"`
	CreatedAt                time.Time                              `json:"created_at"`
	UpdatedAt                time.Time                              `json:"updated_at"`
}

// PrimaryCard resolves the session's primary hypothesis. The second return
// is false when the primary id is missing or does not resolve within
// HypothesisCards.
func (s *Session) PrimaryCard() (HypothesisCard, bool) {
	if s.PrimaryHypothesisID == "" {
		return HypothesisCard{}, false
	}
	card, ok := s.HypothesisCards[s.PrimaryHypothesisID]
	return card, ok
}

// IsArchived reports whether a card id is in the session's archived set.
func (s *Session) IsArchived(cardID string) bool {
	for _, id := range s.ArchivedHypothesisIDs {
		if id == cardID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the session. Mutating services operate on
// copies so callers' session values are never modified in place.
func (s *Session) Clone() *Session {
	out := *s

	out.HypothesisCards = make(map[string]HypothesisCard, len(s.HypothesisCards))
	for id, card := range s.HypothesisCards {
		out.HypothesisCards[id] = card.Clone()
	}

	out.AlternativeHypothesisIDs = append([]string(nil), s.AlternativeHypothesisIDs...)
	out.ArchivedHypothesisIDs = append([]string(nil), s.ArchivedHypothesisIDs...)
	out.TestIDs = append([]string(nil), s.TestIDs...)
	out.HypothesisEvolution = append([]EvolutionEvent(nil), s.HypothesisEvolution...)
	out.TribunalDispatches = append([]TribunalDispatch(nil), s.TribunalDispatches...)

	if s.OperatorApplications != nil {
		out.OperatorApplications = make(map[OperatorType][]OperatorApplication, len(s.OperatorApplications))
		for op, apps := range s.OperatorApplications {
			out.OperatorApplications[op] = append([]OperatorApplication(nil), apps...)
		}
	}

	return &out
}
