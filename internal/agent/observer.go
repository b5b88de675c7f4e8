package agent

import (
	"github.com/ideialab/maieutica/internal/domain"
	"go.uber.org/zap"
)

// LoggingObserver reports turn-level progress of the cognitive model.
type LoggingObserver struct {
	logger *zap.Logger
}

func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) TurnCompleted(state *domain.ConversationState) {
	fields := []zap.Field{
		zap.String("session_id", state.SessionID),
		zap.String("stage", string(state.CurrentStage)),
		zap.String("next_step", string(state.NextStep)),
	}
	if state.CognitiveModel != nil {
		fields = append(fields,
			zap.Float64("solidez", state.CognitiveModel.CalculateSolidez()),
			zap.Float64("completeness", state.CognitiveModel.Completeness()),
			zap.Int("propositions", len(state.CognitiveModel.Propositions)),
			zap.Int("open_questions", len(state.CognitiveModel.OpenQuestions)))
	}
	o.logger.Info("turn completed", fields...)
}

var _ Observer = (*LoggingObserver)(nil)
