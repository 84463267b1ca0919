package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// HypothesisCard is a versioned, falsifiable claim under test. New versions
// are created on revision; old versions stay in the session map for audit.
type HypothesisCard struct {
	ID                 string    `json:"id"`
	SessionID          string    `json:"session_id"`
	Version            int       `json:"version"`
	Statement          string    `json:"statement"`
	Mechanism          string    `json:"mechanism,omitempty"`
	Domain             []string  `json:"domain,omitempty"`
	PredictionsIfTrue  []string  `json:"predictions_if_true,omitempty"`
	PredictionsIfFalse []string  `json:"predictions_if_false,omitempty"`
	ImpossibleIfTrue   []string  `json:"impossible_if_true,omitempty"`
	Confidence         float64   `json:"confidence"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Clone returns a deep copy of the card.
func (c HypothesisCard) Clone() HypothesisCard {
	out := c
	out.Domain = append([]string(nil), c.Domain...)
	out.PredictionsIfTrue = append([]string(nil), c.PredictionsIfTrue...)
	out.PredictionsIfFalse = append([]string(nil), c.PredictionsIfFalse...)
	out.ImpossibleIfTrue = append([]string(nil), c.ImpossibleIfTrue...)
	return out
}

// NewCardID builds the stable card id HC-<sessionSeq>-<seq>-v<version>.
func NewCardID(sessionSeq, cardSeq, version int) string {
	return fmt.Sprintf("HC-%d-%d-v%d", sessionSeq, cardSeq, version)
}

// ParseCardID splits a card id into its session sequence, card sequence and
// version components.
func ParseCardID(id string) (sessionSeq, cardSeq, version int, err error) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 || parts[0] != "HC" || !strings.HasPrefix(parts[3], "v") {
		return 0, 0, 0, fmt.Errorf("malformed card id %q", id)
	}
	sessionSeq, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("malformed card id %q: %w", id, err)
	}
	cardSeq, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("malformed card id %q: %w", id, err)
	}
	version, err = strconv.Atoi(strings.TrimPrefix(parts[3], "v"))
	if err != nil {
		return 0, 0, 0, fmt.Errorf("malformed card id %q: %w", id, err)
	}
	return sessionSeq, cardSeq, version, nil
}

// NextVersionID returns the id of the card's next revision.
func NextVersionID(id string) (string, error) {
	sessionSeq, cardSeq, version, err := ParseCardID(id)
	if err != nil {
		return "", err
	}
	return NewCardID(sessionSeq, cardSeq, version+1), nil
}

// Falsifiability scoring weights. A card earns points for each concrete
// falsification condition and disconfirming prediction, capped at 100.
const (
	falsificationConditionPoints = 25.0
	falsePredictionPoints        = 15.0
	richConditionBonus           = 5.0
	richConditionMinLength       = 40
)

// FalsifiabilityScore rates how falsifiable a card is, 0-100, from the
// presence and richness of its falsification conditions and disconfirming
// predictions. Derived on demand, never stored.
func FalsifiabilityScore(c HypothesisCard) float64 {
	score := 0.0
	for _, cond := range c.ImpossibleIfTrue {
		if strings.TrimSpace(cond) == "" {
			continue
		}
		score += falsificationConditionPoints
		if len(cond) >= richConditionMinLength {
			score += richConditionBonus
		}
	}
	for _, pred := range c.PredictionsIfFalse {
		if strings.TrimSpace(pred) == "" {
			continue
		}
		score += falsePredictionPoints
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Specificity scoring weights.
const (
	mechanismPoints        = 30.0
	richMechanismBonus     = 10.0
	richMechanismMinLength = 80
	domainTagPoints        = 10.0
	truePredictionPoints   = 12.0
)

// SpecificityScore rates how specific a card's claim is, 0-100, from the
// detail of its mechanism, its domain tags, and its confirming predictions.
func SpecificityScore(c HypothesisCard) float64 {
	score := 0.0
	if strings.TrimSpace(c.Mechanism) != "" {
		score += mechanismPoints
		if len(c.Mechanism) >= richMechanismMinLength {
			score += richMechanismBonus
		}
	}
	for _, tag := range c.Domain {
		if strings.TrimSpace(tag) != "" {
			score += domainTagPoints
		}
	}
	for _, pred := range c.PredictionsIfTrue {
		if strings.TrimSpace(pred) != "" {
			score += truePredictionPoints
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

// OutcomeStatus classifies a hypothesis by its confidence and lifecycle.
type OutcomeStatus string

const (
	OutcomeFalsified  OutcomeStatus = "falsified"
	OutcomeRobust     OutcomeStatus = "robust"
	OutcomeInProgress OutcomeStatus = "in_progress"
	OutcomeAbandoned  OutcomeStatus = "abandoned"
)

// ClassifyOutcome buckets a non-archived hypothesis. Robustness claims
// require the owning session to have concluded, so a high-confidence card in
// an unfinished session stays in_progress.
func ClassifyOutcome(c HypothesisCard, sessionPhase Phase, falsifiedBelow, robustAbove float64) OutcomeStatus {
	switch {
	case c.Confidence < falsifiedBelow:
		return OutcomeFalsified
	case c.Confidence > robustAbove && sessionPhase == PhaseComplete:
		return OutcomeRobust
	default:
		return OutcomeInProgress
	}
}
