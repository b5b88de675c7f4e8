package agent

import (
	"context"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"go.uber.org/zap"
)

// publishEvent writes to the session log, tolerating a nil log and logging
// publish failures instead of failing the turn.
func publishEvent(ctx context.Context, events domain.EventLog, logger *zap.Logger, e *domain.Event) {
	if events == nil {
		return
	}
	if e.Timestamp == "" {
		e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	if err := events.Publish(ctx, e); err != nil {
		logger.Warn("publish event failed",
			zap.String("session_id", e.SessionID),
			zap.String("event_type", string(e.EventType)),
			zap.Error(err))
	}
}
