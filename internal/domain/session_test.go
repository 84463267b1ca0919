package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Phase
		to   Phase
		want bool
	}{
		{PhaseIntake, PhaseSharpening, true},
		{PhaseIntake, PhaseComplete, true},
		{PhaseSharpening, PhaseIntake, false},
		{PhaseExclusionTest, PhaseScaleCheck, true},
		{PhaseScaleCheck, PhaseExclusionTest, false},
		{PhaseRevision, PhaseSharpening, true},
		{PhaseRevision, PhaseComplete, true},
		{PhaseSharpening, PhaseSharpening, false},
		{PhaseComplete, PhaseRevision, false},
		{PhaseComplete, PhaseSharpening, false},
		{Phase("bogus"), PhaseSharpening, false},
		{PhaseIntake, Phase("bogus"), false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestPhaseOrder(t *testing.T) {
	if PhaseOrder(PhaseIntake) != 0 {
		t.Errorf("intake order = %d, want 0", PhaseOrder(PhaseIntake))
	}
	if PhaseOrder(PhaseComplete) != 10 {
		t.Errorf("complete order = %d, want 10", PhaseOrder(PhaseComplete))
	}
	if PhaseOrder(Phase("bogus")) != -1 {
		t.Errorf("unknown phase order = %d, want -1", PhaseOrder(Phase("bogus")))
	}
}

func TestValidPhase(t *testing.T) {
	for _, p := range []string{"intake", "sharpening", "level_split", "exclusion_test",
		"object_transpose", "scale_check", "agent_dispatch", "evidence_gathering",
		"synthesis", "revision", "complete"} {
		if !ValidPhase(p) {
			t.Errorf("expected %q to be valid", p)
		}
	}
	for _, p := range []string{"", "INTAKE", "done", "review"} {
		if ValidPhase(p) {
			t.Errorf("expected %q to be invalid", p)
		}
	}
}

func TestValidDiscriminativePower(t *testing.T) {
	for p := 1; p <= 5; p++ {
		if !ValidDiscriminativePower(p) {
			t.Errorf("power %d should be valid", p)
		}
	}
	for _, p := range []int{0, -1, 6, 10} {
		if ValidDiscriminativePower(p) {
			t.Errorf("power %d should be invalid", p)
		}
	}
}

func TestSession_PrimaryCard(t *testing.T) {
	s := Session{
		PrimaryHypothesisID: "HC-1-1-v1",
		HypothesisCards: map[string]HypothesisCard{
			"HC-1-1-v1": {ID: "HC-1-1-v1", Statement: "x"},
		},
	}

	card, ok := s.PrimaryCard()
	if !ok || card.ID != "HC-1-1-v1" {
		t.Errorf("primary = (%+v, %v)", card, ok)
	}

	s.PrimaryHypothesisID = "HC-1-9-v1"
	if _, ok := s.PrimaryCard(); ok {
		t.Error("dangling primary id should not resolve")
	}

	s.PrimaryHypothesisID = ""
	if _, ok := s.PrimaryCard(); ok {
		t.Error("empty primary id should not resolve")
	}
}

func TestSession_Clone_Independence(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	original := &Session{
		ID:                  uuid.New(),
		Phase:               PhaseSharpening,
		PrimaryHypothesisID: "HC-1-1-v1",
		HypothesisCards: map[string]HypothesisCard{
			"HC-1-1-v1": {ID: "HC-1-1-v1", Domain: []string{"biophysics"}},
		},
		AlternativeHypothesisIDs: []string{"HC-1-2-v1"},
		TestIDs:                  []string{"t1"},
		OperatorApplications: map[OperatorType][]OperatorApplication{
			OperatorScaleCheck: {{CardID: "HC-1-1-v1", AppliedAt: now}},
		},
		HypothesisEvolution: []EvolutionEvent{{FromVersion: "a", ToVersion: "b"}},
		CreatedAt:           now,
	}

	clone := original.Clone()
	clone.Phase = PhaseComplete
	clone.HypothesisCards["HC-1-1-v1"] = HypothesisCard{ID: "HC-1-1-v1", Statement: "mutated"}
	clone.HypothesisCards["HC-1-2-v1"] = HypothesisCard{ID: "HC-1-2-v1"}
	clone.AlternativeHypothesisIDs[0] = "mutated"
	clone.TestIDs = append(clone.TestIDs, "t2")
	clone.OperatorApplications[OperatorScaleCheck] = append(
		clone.OperatorApplications[OperatorScaleCheck], OperatorApplication{CardID: "x"})

	if original.Phase != PhaseSharpening {
		t.Error("clone mutation leaked into original phase")
	}
	if len(original.HypothesisCards) != 1 {
		t.Error("clone card insert leaked into original map")
	}
	if original.HypothesisCards["HC-1-1-v1"].Statement != "" {
		t.Error("clone card mutation leaked into original")
	}
	if original.AlternativeHypothesisIDs[0] != "HC-1-2-v1" {
		t.Error("clone slice mutation leaked into original")
	}
	if len(original.TestIDs) != 1 {
		t.Error("clone append leaked into original test ids")
	}
	if len(original.OperatorApplications[OperatorScaleCheck]) != 1 {
		t.Error("clone operator append leaked into original")
	}

	// Card-level deep copy: mutating a cloned card's slices must not reach
	// the original.
	card := original.HypothesisCards["HC-1-1-v1"]
	cardClone := card.Clone()
	cardClone.Domain[0] = "mutated"
	if card.Domain[0] != "biophysics" {
		t.Error("card clone slice mutation leaked into original")
	}
}

func TestSession_IsArchived(t *testing.T) {
	s := Session{ArchivedHypothesisIDs: []string{"HC-1-2-v1"}}

	if !s.IsArchived("HC-1-2-v1") {
		t.Error("archived id should report archived")
	}
	if s.IsArchived("HC-1-1-v1") {
		t.Error("live id should not report archived")
	}
}
