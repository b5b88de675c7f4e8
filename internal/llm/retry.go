package llm

import (
	"context"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 500 * time.Millisecond
)

// RetryingClient wraps a chat client with bounded retries and exponential
// backoff. Provider errors are transient often enough that one flaky call
// should not abort a whole session turn.
type RetryingClient struct {
	inner          domain.ChatClient
	maxAttempts    int
	initialBackoff time.Duration
	logger         *zap.Logger
}

func WithRetry(inner domain.ChatClient, logger *zap.Logger) *RetryingClient {
	return &RetryingClient{
		inner:          inner,
		maxAttempts:    defaultMaxAttempts,
		initialBackoff: defaultInitialBackoff,
		logger:         logger,
	}
}

func (c *RetryingClient) Chat(ctx context.Context, messages []domain.Message) (*domain.ChatResult, error) {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		result, err := c.inner.Chat(ctx, messages)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == c.maxAttempts {
			break
		}
		c.logger.Warn("chat attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return nil, lastErr
}

var _ domain.ChatClient = (*RetryingClient)(nil)
