// Package embedding turns text into vectors for corpus similarity search.
package embedding

import (
	"fmt"

	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// NewClient builds the embedding client named by EMBEDDING_PROVIDER. The
// mock provider needs no key; openai requires one.
func NewClient(provider, apiKey string) (domain.EmbeddingClient, error) {
	switch provider {
	case ProviderOpenAI:
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai embedding provider")
		}
		return NewOpenAIClient(apiKey), nil
	case ProviderMock:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (valid: openai, mock)", provider)
	}
}
