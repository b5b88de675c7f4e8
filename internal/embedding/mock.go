package embedding

import (
	"context"
	"hash/fnv"
)

const mockDimensions = 1536

// MockClient produces deterministic embeddings for testing. The same text
// always maps to the same vector, so similarity assertions are stable.
type MockClient struct {
	Err error

	// Call tracking for assertions
	Calls []string
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.Calls = append(c.Calls, text)
	if c.Err != nil {
		return nil, c.Err
	}

	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, mockDimensions)
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed>>33))/float32(1<<31) - 0.5
	}
	return vec, nil
}
