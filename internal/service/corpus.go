package service

import (
	"context"
	"errors"

	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrQueryEmpty          = errors.New("query is required")
	ErrExcerptContentEmpty = errors.New("content is required")
)

const defaultCorpusTopK = 10

// CorpusService provides semantic search over the Brenner interview corpus.
type CorpusService struct {
	store     domain.CorpusStore
	embedding domain.EmbeddingClient
	logger    *zap.Logger
}

func NewCorpusService(store domain.CorpusStore, embedding domain.EmbeddingClient, logger *zap.Logger) *CorpusService {
	return &CorpusService{
		store:     store,
		embedding: embedding,
		logger:    logger,
	}
}

// Search embeds the query and returns the nearest excerpts.
func (s *CorpusService) Search(ctx context.Context, query string, topK int) ([]domain.ExcerptWithScore, error) {
	if query == "" {
		return nil, ErrQueryEmpty
	}
	if topK <= 0 {
		topK = defaultCorpusTopK
	}

	embedding, err := s.embedding.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := s.store.Search(ctx, embedding, topK)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("corpus search",
		zap.String("query", query),
		zap.Int("results", len(results)))

	return results, nil
}

// Ingest embeds an excerpt's content and stores it.
func (s *CorpusService) Ingest(ctx context.Context, excerpt *domain.Excerpt) error {
	if excerpt.Content == "" {
		return ErrExcerptContentEmpty
	}

	embedding, err := s.embedding.Embed(ctx, excerpt.Content)
	if err != nil {
		return err
	}
	excerpt.Embedding = embedding

	return s.store.Create(ctx, excerpt)
}
