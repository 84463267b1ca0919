package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

const mockDimensions = 64

// MockClient produces small deterministic embeddings derived from the input
// text, so tests and offline development need no API key.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	out := make([]float32, mockDimensions)
	var norm float64
	for i := range out {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed)) / float64(math.MaxInt64)
		out[i] = float32(v)
		norm += v * v
	}

	// Normalize so cosine distance behaves like the real provider's.
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range out {
			out[i] *= scale
		}
	}

	return out, nil
}
