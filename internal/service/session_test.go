package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/store"
	"go.uber.org/zap"
)

type mockSessionStore struct {
	sessions map[uuid.UUID]*domain.Session
	seq      int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (m *mockSessionStore) Create(ctx context.Context, s *domain.Session) error {
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *mockSessionStore) GetByID(ctx context.Context, id uuid.UUID, researcherID uuid.UUID) (*domain.Session, error) {
	s, ok := m.sessions[id]
	if !ok || s.ResearcherID != researcherID {
		return nil, store.ErrNotFound
	}
	return s.Clone(), nil
}

func (m *mockSessionStore) Update(ctx context.Context, s *domain.Session) error {
	if _, ok := m.sessions[s.ID]; !ok {
		return store.ErrNotFound
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *mockSessionStore) ListByResearcher(ctx context.Context, researcherID uuid.UUID) ([]domain.Session, error) {
	var out []domain.Session
	for _, s := range m.sessions {
		if s.ResearcherID == researcherID {
			out = append(out, *s.Clone())
		}
	}
	return out, nil
}

func (m *mockSessionStore) NextSeq(ctx context.Context, researcherID uuid.UUID) (int, error) {
	m.seq++
	return m.seq, nil
}

func newTestSessionService() (*SessionService, *mockSessionStore) {
	st := newMockSessionStore()
	svc := NewSessionService(st, zap.NewNop())
	svc.SetNow(func() time.Time { return time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC) })
	return svc, st
}

func startSession(t *testing.T, svc *SessionService, researcherID uuid.UUID) *domain.Session {
	t.Helper()
	session, err := svc.Create(context.Background(), researcherID, NewHypothesisInput{
		Statement:  "the channel opens under membrane tension",
		Mechanism:  "tension gates the pore",
		Confidence: 50,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestSessionService_Create(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()

	session := startSession(t, svc, researcherID)

	if session.Phase != domain.PhaseIntake {
		t.Errorf("phase = %s, want intake", session.Phase)
	}
	if session.Seq != 1 {
		t.Errorf("seq = %d, want 1", session.Seq)
	}
	if session.PrimaryHypothesisID != "HC-1-1-v1" {
		t.Errorf("primary id = %s, want HC-1-1-v1", session.PrimaryHypothesisID)
	}
	card, ok := session.PrimaryCard()
	if !ok {
		t.Fatal("primary card should resolve")
	}
	if card.Version != 1 || card.Confidence != 50 {
		t.Errorf("card = %+v, want version 1 at confidence 50", card)
	}
}

func TestSessionService_Create_EmptyStatement(t *testing.T) {
	svc, _ := newTestSessionService()

	_, err := svc.Create(context.Background(), uuid.New(), NewHypothesisInput{})
	if !errors.Is(err, ErrStatementEmpty) {
		t.Errorf("err = %v, want ErrStatementEmpty", err)
	}
}

func TestSessionService_GetByID_WrongResearcher(t *testing.T) {
	svc, _ := newTestSessionService()
	session := startSession(t, svc, uuid.New())

	_, err := svc.GetByID(context.Background(), session.ID, uuid.New())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionService_AdvancePhase(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	updated, err := svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.PhaseSharpening)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Phase != domain.PhaseSharpening {
		t.Errorf("phase = %s, want sharpening", updated.Phase)
	}

	// Skipping forward is allowed; going backward is not.
	updated, err = svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.PhaseSynthesis)
	if err != nil {
		t.Fatalf("skip forward: %v", err)
	}
	if updated.Phase != domain.PhaseSynthesis {
		t.Errorf("phase = %s, want synthesis", updated.Phase)
	}

	_, err = svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.PhaseIntake)
	if !errors.Is(err, ErrInvalidPhaseTransition) {
		t.Errorf("backward: err = %v, want ErrInvalidPhaseTransition", err)
	}

	_, err = svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.Phase("bogus"))
	if !errors.Is(err, ErrInvalidPhase) {
		t.Errorf("bogus: err = %v, want ErrInvalidPhase", err)
	}
}

func TestSessionService_AdvancePhase_RevisionLoopsBack(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	if _, err := svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.PhaseRevision); err != nil {
		t.Fatalf("to revision: %v", err)
	}
	updated, err := svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.PhaseSharpening)
	if err != nil {
		t.Fatalf("revision to sharpening: %v", err)
	}
	if updated.Phase != domain.PhaseSharpening {
		t.Errorf("phase = %s, want sharpening", updated.Phase)
	}
}

func TestSessionService_AdvancePhase_CompleteIsTerminal(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	if _, err := svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.PhaseComplete); err != nil {
		t.Fatalf("to complete: %v", err)
	}
	_, err := svc.AdvancePhase(context.Background(), session.ID, researcherID, domain.PhaseRevision)
	if !errors.Is(err, ErrInvalidPhaseTransition) {
		t.Errorf("err = %v, want ErrInvalidPhaseTransition from complete", err)
	}
}

func TestSessionService_StateHypothesis(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	updated, card, err := svc.StateHypothesis(context.Background(), session.ID, researcherID, NewHypothesisInput{
		Statement:  "an upstream kinase gates the channel instead",
		Confidence: 30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if card.ID != "HC-1-2-v1" {
		t.Errorf("card id = %s, want HC-1-2-v1", card.ID)
	}
	if len(updated.AlternativeHypothesisIDs) != 1 || updated.AlternativeHypothesisIDs[0] != card.ID {
		t.Errorf("alternatives = %v, want [%s]", updated.AlternativeHypothesisIDs, card.ID)
	}
	// Primary unchanged.
	if updated.PrimaryHypothesisID != session.PrimaryHypothesisID {
		t.Errorf("primary moved to %s", updated.PrimaryHypothesisID)
	}
}

func TestSessionService_ReviseHypothesis(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	updated, card, err := svc.ReviseHypothesis(context.Background(), session.ID, researcherID,
		"HC-1-1-v1", NewHypothesisInput{
			Statement:  "the channel opens under tension above a threshold",
			Confidence: 55,
		}, "sharpened after exclusion test", domain.TriggerEvidence)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if card.ID != "HC-1-1-v2" {
		t.Errorf("card id = %s, want HC-1-1-v2", card.ID)
	}
	if updated.PrimaryHypothesisID != "HC-1-1-v2" {
		t.Errorf("primary = %s, should follow revision", updated.PrimaryHypothesisID)
	}
	// Prior version stays for audit.
	if _, ok := updated.HypothesisCards["HC-1-1-v1"]; !ok {
		t.Error("prior version removed from card map")
	}
	if len(updated.HypothesisEvolution) != 1 {
		t.Fatalf("evolution events = %d, want 1", len(updated.HypothesisEvolution))
	}
	ev := updated.HypothesisEvolution[0]
	if ev.FromVersion != "HC-1-1-v1" || ev.ToVersion != "HC-1-1-v2" || ev.Trigger != domain.TriggerEvidence {
		t.Errorf("evolution event = %+v", ev)
	}
}

func TestSessionService_ReviseHypothesis_Errors(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	input := NewHypothesisInput{Statement: "revised", Confidence: 40}

	_, _, err := svc.ReviseHypothesis(context.Background(), session.ID, researcherID,
		"HC-9-9-v9", input, "", domain.TriggerManual)
	if !errors.Is(err, ErrHypothesisNotFound) {
		t.Errorf("missing card: err = %v, want ErrHypothesisNotFound", err)
	}

	_, _, err = svc.ReviseHypothesis(context.Background(), session.ID, researcherID,
		"HC-1-1-v1", input, "", domain.EvolutionTrigger("hunch"))
	if !errors.Is(err, ErrInvalidEvolutionTrigger) {
		t.Errorf("bad trigger: err = %v, want ErrInvalidEvolutionTrigger", err)
	}
}

func TestSessionService_ArchiveHypothesis(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	_, card, err := svc.StateHypothesis(context.Background(), session.ID, researcherID, NewHypothesisInput{
		Statement:  "rival explanation",
		Confidence: 20,
	})
	if err != nil {
		t.Fatalf("state alternative: %v", err)
	}

	updated, err := svc.ArchiveHypothesis(context.Background(), session.ID, researcherID, card.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !updated.IsArchived(card.ID) {
		t.Error("card should be archived")
	}
	if len(updated.AlternativeHypothesisIDs) != 0 {
		t.Errorf("alternatives = %v, want empty", updated.AlternativeHypothesisIDs)
	}
	// Archived card stays in the map for audit.
	if _, ok := updated.HypothesisCards[card.ID]; !ok {
		t.Error("archived card removed from map")
	}

	// Archiving again is idempotent.
	if _, err := svc.ArchiveHypothesis(context.Background(), session.ID, researcherID, card.ID); err != nil {
		t.Errorf("second archive: %v", err)
	}

	// Archived cards cannot be revised.
	_, _, err = svc.ReviseHypothesis(context.Background(), session.ID, researcherID,
		card.ID, NewHypothesisInput{Statement: "revived", Confidence: 25}, "", domain.TriggerManual)
	if !errors.Is(err, ErrHypothesisArchived) {
		t.Errorf("err = %v, want ErrHypothesisArchived", err)
	}
}

func TestSessionService_ArchivePrimaryRejected(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	_, err := svc.ArchiveHypothesis(context.Background(), session.ID, researcherID, session.PrimaryHypothesisID)
	if !errors.Is(err, ErrArchivePrimaryHypothesis) {
		t.Errorf("err = %v, want ErrArchivePrimaryHypothesis", err)
	}
}

func TestSessionService_RecordOperatorApplication(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	updated, err := svc.RecordOperatorApplication(context.Background(), session.ID, researcherID,
		domain.OperatorScaleCheck, session.PrimaryHypothesisID, "diffusion too slow by 3 orders")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	apps := updated.OperatorApplications[domain.OperatorScaleCheck]
	if len(apps) != 1 || apps[0].Notes != "diffusion too slow by 3 orders" {
		t.Errorf("applications = %+v", apps)
	}

	_, err = svc.RecordOperatorApplication(context.Background(), session.ID, researcherID,
		domain.OperatorType("vibes"), "", "")
	if !errors.Is(err, ErrInvalidOperatorType) {
		t.Errorf("err = %v, want ErrInvalidOperatorType", err)
	}

	_, err = svc.RecordOperatorApplication(context.Background(), session.ID, researcherID,
		domain.OperatorLevelSplit, "HC-9-9-v9", "")
	if !errors.Is(err, ErrHypothesisNotFound) {
		t.Errorf("err = %v, want ErrHypothesisNotFound", err)
	}
}

func TestSessionService_RecordTest(t *testing.T) {
	svc, _ := newTestSessionService()
	researcherID := uuid.New()
	session := startSession(t, svc, researcherID)

	updated, err := svc.RecordTest(context.Background(), session.ID, researcherID, "patch-clamp-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(updated.TestIDs) != 1 || updated.TestIDs[0] != "patch-clamp-01" {
		t.Errorf("test ids = %v", updated.TestIDs)
	}

	_, err = svc.RecordTest(context.Background(), session.ID, researcherID, "")
	if !errors.Is(err, ErrTestIDEmpty) {
		t.Errorf("err = %v, want ErrTestIDEmpty", err)
	}
}
