package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/store"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound          = errors.New("session not found")
	ErrHypothesisNotFound       = errors.New("hypothesis not found in session")
	ErrHypothesisArchived       = errors.New("hypothesis is archived")
	ErrStatementEmpty           = errors.New("statement is required")
	ErrInvalidPhase             = errors.New("invalid phase")
	ErrInvalidPhaseTransition   = errors.New("invalid phase transition")
	ErrInvalidOperatorType      = errors.New("invalid operator type")
	ErrInvalidEvolutionTrigger  = errors.New("invalid evolution trigger")
	ErrTestIDEmpty              = errors.New("test_id is required")
	ErrArchivePrimaryHypothesis = errors.New("cannot archive the primary hypothesis")
)

// SessionService owns session lifecycle and the session invariants: the
// primary hypothesis id always resolves within the card map, and archived
// ids stay in the map for audit. All mutations are copy-on-write against the
// caller's value and persisted whole.
type SessionService struct {
	store  domain.SessionStore
	logger *zap.Logger
	now    func() time.Time
}

func NewSessionService(store domain.SessionStore, logger *zap.Logger) *SessionService {
	return &SessionService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetNow overrides the clock, for tests.
func (s *SessionService) SetNow(now func() time.Time) {
	s.now = now
}

// NewHypothesisInput is the researcher-authored body of a card.
type NewHypothesisInput struct {
	Statement          string
	Mechanism          string
	Domain             []string
	PredictionsIfTrue  []string
	PredictionsIfFalse []string
	ImpossibleIfTrue   []string
	Confidence         float64
}

// Create starts a session at intake with the stated hypothesis as primary.
func (s *SessionService) Create(ctx context.Context, researcherID uuid.UUID, input NewHypothesisInput) (*domain.Session, error) {
	if input.Statement == "" {
		return nil, ErrStatementEmpty
	}

	seq, err := s.store.NextSeq(ctx, researcherID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.Session{
		ID:                   uuid.New(),
		ResearcherID:         researcherID,
		Seq:                  seq,
		Phase:                domain.PhaseIntake,
		HypothesisCards:      make(map[string]domain.HypothesisCard),
		OperatorApplications: make(map[domain.OperatorType][]domain.OperatorApplication),
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	card := buildCard(session, 1, 1, input, now)
	session.HypothesisCards[card.ID] = card
	session.PrimaryHypothesisID = card.ID

	if err := s.store.Create(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID.String()),
		zap.String("primary_card", card.ID))

	return session, nil
}

func buildCard(session *domain.Session, cardSeq, version int, input NewHypothesisInput, now time.Time) domain.HypothesisCard {
	return domain.HypothesisCard{
		ID:                 domain.NewCardID(session.Seq, cardSeq, version),
		SessionID:          session.ID.String(),
		Version:            version,
		Statement:          input.Statement,
		Mechanism:          input.Mechanism,
		Domain:             append([]string(nil), input.Domain...),
		PredictionsIfTrue:  append([]string(nil), input.PredictionsIfTrue...),
		PredictionsIfFalse: append([]string(nil), input.PredictionsIfFalse...),
		ImpossibleIfTrue:   append([]string(nil), input.ImpossibleIfTrue...),
		Confidence:         input.Confidence,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// loadSession maps the store's not-found sentinel to the service one.
func (s *SessionService) loadSession(ctx context.Context, id, researcherID uuid.UUID) (*domain.Session, error) {
	session, err := s.store.GetByID(ctx, id, researcherID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) GetByID(ctx context.Context, id, researcherID uuid.UUID) (*domain.Session, error) {
	return s.loadSession(ctx, id, researcherID)
}

func (s *SessionService) ListByResearcher(ctx context.Context, researcherID uuid.UUID) ([]domain.Session, error) {
	return s.store.ListByResearcher(ctx, researcherID)
}

// AdvancePhase moves the session to a new phase. Transitions are
// forward-only except revision, which may loop back to sharpening.
func (s *SessionService) AdvancePhase(ctx context.Context, id, researcherID uuid.UUID, to domain.Phase) (*domain.Session, error) {
	if !domain.ValidPhase(string(to)) {
		return nil, ErrInvalidPhase
	}

	session, err := s.loadSession(ctx, id, researcherID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(session.Phase, to) {
		return nil, ErrInvalidPhaseTransition
	}

	updated := session.Clone()
	updated.Phase = to
	updated.UpdatedAt = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.logger.Info("session phase advanced",
		zap.String("session_id", id.String()),
		zap.String("from", string(session.Phase)),
		zap.String("to", string(to)))

	return updated, nil
}

// StateHypothesis adds an alternative hypothesis card to the session.
func (s *SessionService) StateHypothesis(ctx context.Context, id, researcherID uuid.UUID, input NewHypothesisInput) (*domain.Session, domain.HypothesisCard, error) {
	if input.Statement == "" {
		return nil, domain.HypothesisCard{}, ErrStatementEmpty
	}

	session, err := s.loadSession(ctx, id, researcherID)
	if err != nil {
		return nil, domain.HypothesisCard{}, err
	}

	updated := session.Clone()
	now := s.now()
	cardSeq := nextCardSeq(updated)
	card := buildCard(updated, cardSeq, 1, input, now)
	updated.HypothesisCards[card.ID] = card
	updated.AlternativeHypothesisIDs = append(updated.AlternativeHypothesisIDs, card.ID)
	updated.UpdatedAt = now

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, domain.HypothesisCard{}, err
	}

	return updated, card, nil
}

// nextCardSeq finds the highest card sequence in the session and returns the
// next one.
func nextCardSeq(session *domain.Session) int {
	max := 0
	for id := range session.HypothesisCards {
		if _, cardSeq, _, err := domain.ParseCardID(id); err == nil && cardSeq > max {
			max = cardSeq
		}
	}
	return max + 1
}

// ReviseHypothesis creates a new version of a card and records the
// evolution event. The prior version stays in the map for audit. When the
// revised card was the primary, the primary pointer follows the new version
// so the primary invariant holds.
func (s *SessionService) ReviseHypothesis(ctx context.Context, id, researcherID uuid.UUID, cardID string, input NewHypothesisInput, reason string, trigger domain.EvolutionTrigger) (*domain.Session, domain.HypothesisCard, error) {
	if input.Statement == "" {
		return nil, domain.HypothesisCard{}, ErrStatementEmpty
	}
	if !domain.ValidEvolutionTrigger(string(trigger)) {
		return nil, domain.HypothesisCard{}, ErrInvalidEvolutionTrigger
	}

	session, err := s.loadSession(ctx, id, researcherID)
	if err != nil {
		return nil, domain.HypothesisCard{}, err
	}

	prior, ok := session.HypothesisCards[cardID]
	if !ok {
		return nil, domain.HypothesisCard{}, ErrHypothesisNotFound
	}
	if session.IsArchived(cardID) {
		return nil, domain.HypothesisCard{}, ErrHypothesisArchived
	}

	newID, err := domain.NextVersionID(cardID)
	if err != nil {
		return nil, domain.HypothesisCard{}, err
	}

	updated := session.Clone()
	now := s.now()
	_, cardSeq, version, _ := domain.ParseCardID(cardID)
	card := buildCard(updated, cardSeq, version+1, input, now)
	card.ID = newID
	updated.HypothesisCards[card.ID] = card
	updated.HypothesisEvolution = append(updated.HypothesisEvolution, domain.EvolutionEvent{
		FromVersion: prior.ID,
		ToVersion:   card.ID,
		Reason:      reason,
		Trigger:     trigger,
		OccurredAt:  now,
	})
	if updated.PrimaryHypothesisID == cardID {
		updated.PrimaryHypothesisID = card.ID
	} else {
		updated.AlternativeHypothesisIDs = append(updated.AlternativeHypothesisIDs, card.ID)
	}
	updated.UpdatedAt = now

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, domain.HypothesisCard{}, err
	}

	s.logger.Info("hypothesis revised",
		zap.String("session_id", id.String()),
		zap.String("from", prior.ID),
		zap.String("to", card.ID),
		zap.String("trigger", string(trigger)))

	return updated, card, nil
}

// ArchiveHypothesis soft-deletes a card: it leaves active consideration but
// stays in the card map. The primary hypothesis cannot be archived.
func (s *SessionService) ArchiveHypothesis(ctx context.Context, id, researcherID uuid.UUID, cardID string) (*domain.Session, error) {
	session, err := s.loadSession(ctx, id, researcherID)
	if err != nil {
		return nil, err
	}

	if _, ok := session.HypothesisCards[cardID]; !ok {
		return nil, ErrHypothesisNotFound
	}
	if session.PrimaryHypothesisID == cardID {
		return nil, ErrArchivePrimaryHypothesis
	}
	if session.IsArchived(cardID) {
		return session, nil
	}

	updated := session.Clone()
	updated.ArchivedHypothesisIDs = append(updated.ArchivedHypothesisIDs, cardID)

	kept := updated.AlternativeHypothesisIDs[:0]
	for _, altID := range updated.AlternativeHypothesisIDs {
		if altID != cardID {
			kept = append(kept, altID)
		}
	}
	updated.AlternativeHypothesisIDs = kept
	updated.UpdatedAt = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// RecordOperatorApplication appends one operator application to the session.
func (s *SessionService) RecordOperatorApplication(ctx context.Context, id, researcherID uuid.UUID, op domain.OperatorType, cardID, notes string) (*domain.Session, error) {
	if !domain.ValidOperatorType(string(op)) {
		return nil, ErrInvalidOperatorType
	}

	session, err := s.loadSession(ctx, id, researcherID)
	if err != nil {
		return nil, err
	}
	if cardID != "" {
		if _, ok := session.HypothesisCards[cardID]; !ok {
			return nil, ErrHypothesisNotFound
		}
	}

	updated := session.Clone()
	now := s.now()
	if updated.OperatorApplications == nil {
		updated.OperatorApplications = make(map[domain.OperatorType][]domain.OperatorApplication)
	}
	updated.OperatorApplications[op] = append(updated.OperatorApplications[op], domain.OperatorApplication{
		CardID:    cardID,
		Notes:     notes,
		AppliedAt: now,
	})
	updated.UpdatedAt = now

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, err
	}

	return updated, nil
}

// RecordTest appends a test id to the session.
func (s *SessionService) RecordTest(ctx context.Context, id, researcherID uuid.UUID, testID string) (*domain.Session, error) {
	if testID == "" {
		return nil, ErrTestIDEmpty
	}

	session, err := s.loadSession(ctx, id, researcherID)
	if err != nil {
		return nil, err
	}

	updated := session.Clone()
	updated.TestIDs = append(updated.TestIDs, testID)
	updated.UpdatedAt = s.now()

	if err := s.store.Update(ctx, updated); err != nil {
		return nil, err
	}

	return updated, nil
}
