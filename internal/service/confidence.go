package service

import (
	"errors"
	"fmt"

	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

var (
	ErrDiscriminativePowerRange = errors.New("discriminative_power must be between 1 and 5")
	ErrInvalidEvidenceResult    = errors.New("invalid evidence result")
	ErrUpdateConfigBounds       = errors.New("max_confidence must be greater than min_confidence")
)

// Default confidence-update coefficients. Each weight is the percentage of
// the available range a power-1 test moves confidence by: supports consumes
// headroom toward the ceiling, challenges consumes the distance to the
// floor. Challenges is weighted heavier than supports, eliminates heavier
// still. Under these defaults a challenge outweighs an equal-power support
// at any confidence of 40 or above.
const (
	DefaultSupportWeight   = 4.0
	DefaultChallengeWeight = 7.0
	DefaultEliminateWeight = 10.0
	DefaultMinConfidence   = 0.0
	DefaultMaxConfidence   = 100.0
)

// UpdateConfig is the tunable coefficient surface of the confidence engine.
// It is threaded explicitly through every call so call sites can experiment
// with different tunings without interference.
type UpdateConfig struct {
	SupportWeight   float64 `json:"support_weight"`
	ChallengeWeight float64 `json:"challenge_weight"`
	EliminateWeight float64 `json:"eliminate_weight"`
	MinConfidence   float64 `json:"min_confidence"`
	MaxConfidence   float64 `json:"max_confidence"`
}

func DefaultUpdateConfig() UpdateConfig {
	return UpdateConfig{
		SupportWeight:   DefaultSupportWeight,
		ChallengeWeight: DefaultChallengeWeight,
		EliminateWeight: DefaultEliminateWeight,
		MinConfidence:   DefaultMinConfidence,
		MaxConfidence:   DefaultMaxConfidence,
	}
}

func (c UpdateConfig) validate() error {
	if c.MaxConfidence <= c.MinConfidence {
		return ErrUpdateConfigBounds
	}
	return nil
}

func (c UpdateConfig) clamp(v float64) float64 {
	if v < c.MinConfidence {
		return c.MinConfidence
	}
	if v > c.MaxConfidence {
		return c.MaxConfidence
	}
	return v
}

// ConfidenceUpdate is the result of applying one evidence item.
type ConfidenceUpdate struct {
	FinalConfidence float64 `json:"final_confidence"`
	Delta           float64 `json:"delta"`
}

// ApplyEvidence computes a new confidence value from one test result.
//
// Supports moves confidence up by a fraction of the remaining headroom,
// challenges (and eliminates) move it down by a fraction of the distance to
// the floor. This keeps every delta bounded, monotone in discriminative
// power, and makes sequential application order-sensitive: each delta
// depends on the running value.
//
// Out-of-range input confidence is clamped defensively before computation
// since upstream session data may be malformed. Out-of-range discriminative
// power is a validation error, never silently clamped.
func ApplyEvidence(current float64, test domain.TestInput, result domain.EvidenceResult, cfg UpdateConfig) (ConfidenceUpdate, error) {
	if err := cfg.validate(); err != nil {
		return ConfidenceUpdate{}, err
	}
	if !domain.ValidDiscriminativePower(test.DiscriminativePower) {
		return ConfidenceUpdate{}, fmt.Errorf("%w: got %d", ErrDiscriminativePowerRange, test.DiscriminativePower)
	}

	current = cfg.clamp(current)
	power := float64(test.DiscriminativePower)

	var delta float64
	switch result {
	case domain.ResultSupports:
		delta = power * cfg.SupportWeight / 100 * (cfg.MaxConfidence - current)
	case domain.ResultChallenges:
		delta = -power * cfg.ChallengeWeight / 100 * (current - cfg.MinConfidence)
	case domain.ResultEliminates:
		delta = -power * cfg.EliminateWeight / 100 * (current - cfg.MinConfidence)
	case domain.ResultNeutral:
		delta = 0
	default:
		return ConfidenceUpdate{}, fmt.Errorf("%w: %q", ErrInvalidEvidenceResult, result)
	}

	final := cfg.clamp(current + delta)
	return ConfidenceUpdate{FinalConfidence: final, Delta: final - current}, nil
}

// BatchStep records one applied item for auditability.
type BatchStep struct {
	Item       domain.EvidenceItem `json:"item"`
	Delta      float64             `json:"delta"`
	Confidence float64             `json:"confidence"`
}

// BatchUpdate is the result of applying an ordered evidence batch.
type BatchUpdate struct {
	InitialConfidence float64     `json:"initial_confidence"`
	FinalConfidence   float64     `json:"final_confidence"`
	TotalDelta        float64     `json:"total_delta"`
	Steps             []BatchStep `json:"steps"`
}

// ApplyEvidenceBatch applies evidence items sequentially. Order matters:
// each delta is computed against the running clamped confidence, not the
// original value. The whole batch is rejected if any item is invalid, so a
// partial application is never returned.
func ApplyEvidenceBatch(current float64, items []domain.EvidenceItem, cfg UpdateConfig) (BatchUpdate, error) {
	if err := cfg.validate(); err != nil {
		return BatchUpdate{}, err
	}

	initial := cfg.clamp(current)
	running := initial
	steps := make([]BatchStep, 0, len(items))

	for i, item := range items {
		update, err := ApplyEvidence(running, item.Test, item.Result, cfg)
		if err != nil {
			return BatchUpdate{}, fmt.Errorf("item %d: %w", i, err)
		}
		running = update.FinalConfidence
		steps = append(steps, BatchStep{Item: item, Delta: update.Delta, Confidence: running})
	}

	return BatchUpdate{
		InitialConfidence: initial,
		FinalConfidence:   running,
		TotalDelta:        running - initial,
		Steps:             steps,
	}, nil
}
