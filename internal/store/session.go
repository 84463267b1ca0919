package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

type SessionStore struct {
	db *pgxpool.Pool
}

func NewSessionStore(db *pgxpool.Pool) *SessionStore {
	return &SessionStore{db: db}
}

// sessionDocument is the JSONB body of a session row. The store treats it
// as an opaque blob; only phase and the primary pointer get their own
// columns for querying.
type sessionDocument struct {
	PrimaryHypothesisID      string                                               `json:"primary_hypothesis_id,omitempty"`
	HypothesisCards          map[string]domain.HypothesisCard                     `json:"hypothesis_cards"`
	AlternativeHypothesisIDs []string                                             `json:"alternative_hypothesis_ids,omitempty"`
	ArchivedHypothesisIDs    []string                                             `json:"archived_hypothesis_ids,omitempty"`
	TestIDs                  []string                                             `json:"test_ids,omitempty"`
	OperatorApplications     map[domain.OperatorType][]domain.OperatorApplication `json:"operator_applications,omitempty"`
	HypothesisEvolution      []domain.EvolutionEvent                              `json:"hypothesis_evolution,omitempty"`
	TribunalDispatches       []domain.TribunalDispatch                            `json:"tribunal_dispatches,omitempty"`
}

func documentOf(s *domain.Session) sessionDocument {
	return sessionDocument{
		PrimaryHypothesisID:      s.PrimaryHypothesisID,
		HypothesisCards:          s.HypothesisCards,
		AlternativeHypothesisIDs: s.AlternativeHypothesisIDs,
		ArchivedHypothesisIDs:    s.ArchivedHypothesisIDs,
		TestIDs:                  s.TestIDs,
		OperatorApplications:     s.OperatorApplications,
		HypothesisEvolution:      s.HypothesisEvolution,
		TribunalDispatches:       s.TribunalDispatches,
	}
}

func (d sessionDocument) applyTo(s *domain.Session) {
	s.PrimaryHypothesisID = d.PrimaryHypothesisID
	s.HypothesisCards = d.HypothesisCards
	if s.HypothesisCards == nil {
		s.HypothesisCards = make(map[string]domain.HypothesisCard)
	}
	s.AlternativeHypothesisIDs = d.AlternativeHypothesisIDs
	s.ArchivedHypothesisIDs = d.ArchivedHypothesisIDs
	s.TestIDs = d.TestIDs
	s.OperatorApplications = d.OperatorApplications
	s.HypothesisEvolution = d.HypothesisEvolution
	s.TribunalDispatches = d.TribunalDispatches
}

func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	doc, err := json.Marshal(documentOf(session))
	if err != nil {
		return fmt.Errorf("marshal session document: %w", err)
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO sessions (id, researcher_id, seq, phase, document, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		session.ID, session.ResearcherID, session.Seq, session.Phase, doc, session.CreatedAt, session.UpdatedAt,
	).Scan(&session.ID)
}

func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID, researcherID uuid.UUID) (*domain.Session, error) {
	session := &domain.Session{}
	var doc []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, researcher_id, seq, phase, document, created_at, updated_at
		 FROM sessions WHERE id = $1 AND researcher_id = $2`,
		id, researcherID,
	).Scan(&session.ID, &session.ResearcherID, &session.Seq, &session.Phase, &doc, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var body sessionDocument
	if err := json.Unmarshal(doc, &body); err != nil {
		return nil, fmt.Errorf("unmarshal session document: %w", err)
	}
	body.applyTo(session)

	return session, nil
}

func (s *SessionStore) Update(ctx context.Context, session *domain.Session) error {
	doc, err := json.Marshal(documentOf(session))
	if err != nil {
		return fmt.Errorf("marshal session document: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE sessions SET phase = $1, document = $2, updated_at = $3
		 WHERE id = $4 AND researcher_id = $5`,
		session.Phase, doc, session.UpdatedAt, session.ID, session.ResearcherID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SessionStore) ListByResearcher(ctx context.Context, researcherID uuid.UUID) ([]domain.Session, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, researcher_id, seq, phase, document, created_at, updated_at
		 FROM sessions WHERE researcher_id = $1
		 ORDER BY created_at`,
		researcherID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var session domain.Session
		var doc []byte
		if err := rows.Scan(&session.ID, &session.ResearcherID, &session.Seq, &session.Phase, &doc, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, err
		}
		var body sessionDocument
		if err := json.Unmarshal(doc, &body); err != nil {
			return nil, fmt.Errorf("unmarshal session document: %w", err)
		}
		body.applyTo(&session)
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (s *SessionStore) NextSeq(ctx context.Context, researcherID uuid.UUID) (int, error) {
	var seq int
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM sessions WHERE researcher_id = $1`,
		researcherID,
	).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
