package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	pgvector "github.com/pgvector/pgvector-go"
)

type CorpusStore struct {
	db *pgxpool.Pool
}

func NewCorpusStore(db *pgxpool.Pool) *CorpusStore {
	return &CorpusStore{db: db}
}

func (s *CorpusStore) Create(ctx context.Context, e *domain.Excerpt) error {
	var embedding *pgvector.Vector
	if len(e.Embedding) > 0 {
		v := pgvector.NewVector(e.Embedding)
		embedding = &v
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO excerpts (tape, title, content, topics, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		e.Tape, e.Title, e.Content, e.Topics, embedding,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *CorpusStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Excerpt, error) {
	e := &domain.Excerpt{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tape, title, content, topics, created_at
		 FROM excerpts WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.Tape, &e.Title, &e.Content, &e.Topics, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// Search returns the topK excerpts nearest to the query embedding by cosine
// distance. Score is 1 - distance, so higher is closer.
func (s *CorpusStore) Search(ctx context.Context, embedding []float32, topK int) ([]domain.ExcerptWithScore, error) {
	if topK <= 0 {
		topK = 10
	}

	vec := pgvector.NewVector(embedding)
	rows, err := s.db.Query(ctx,
		`SELECT id, tape, title, content, topics, created_at, 1 - (embedding <=> $1) AS score
		 FROM excerpts
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.ExcerptWithScore
	for rows.Next() {
		var e domain.ExcerptWithScore
		if err := rows.Scan(&e.ID, &e.Tape, &e.Title, &e.Content, &e.Topics, &e.CreatedAt, &e.Score); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}
