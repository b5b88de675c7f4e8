package llm

import (
	"context"

	"github.com/ideialab/maieutica/internal/domain"
)

// MockClient is a configurable chat client for testing.
// Set the response fields to control what Chat returns; Responses takes
// precedence over Response and is consumed one entry per call.
type MockClient struct {
	Response  string
	Responses []string
	Err       error

	// Call tracking for assertions
	Calls [][]domain.Message
}

func NewMockClient() *MockClient {
	return &MockClient{Response: "mock response"}
}

func (c *MockClient) Chat(ctx context.Context, messages []domain.Message) (*domain.ChatResult, error) {
	c.Calls = append(c.Calls, messages)
	if c.Err != nil {
		return nil, c.Err
	}

	content := c.Response
	if len(c.Responses) > 0 {
		content = c.Responses[0]
		c.Responses = c.Responses[1:]
	}

	return &domain.ChatResult{
		Content:      content,
		Model:        "mock",
		InputTokens:  10,
		OutputTokens: 5,
	}, nil
}

// Reset clears recorded calls and restores the default response.
func (c *MockClient) Reset() {
	c.Response = "mock response"
	c.Responses = nil
	c.Err = nil
	c.Calls = nil
}

var _ domain.ChatClient = (*MockClient)(nil)
