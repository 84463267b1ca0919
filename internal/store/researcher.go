package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

type ResearcherStore struct {
	db *pgxpool.Pool
}

func NewResearcherStore(db *pgxpool.Pool) *ResearcherStore {
	return &ResearcherStore{db: db}
}

func (s *ResearcherStore) Create(ctx context.Context, r *domain.Researcher) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO researchers (name, api_key_hash)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		r.Name, r.APIKeyHash,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *ResearcherStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Researcher, error) {
	r := &domain.Researcher{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at, updated_at
		 FROM researchers WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Name, &r.APIKeyHash, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *ResearcherStore) GetByAPIKeyHash(ctx context.Context, apiKeyHash string) (*domain.Researcher, error) {
	r := &domain.Researcher{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, api_key_hash, created_at, updated_at
		 FROM researchers WHERE api_key_hash = $1`,
		apiKeyHash,
	).Scan(&r.ID, &r.Name, &r.APIKeyHash, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}
