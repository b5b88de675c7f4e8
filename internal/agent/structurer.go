package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/llm"
	"go.uber.org/zap"
)

// Structurer turns a mature cognitive model into a formally structured
// research question.
type Structurer struct {
	chat   domain.ChatClient
	events domain.EventLog
	logger *zap.Logger
}

func NewStructurer(chat domain.ChatClient, events domain.EventLog, logger *zap.Logger) *Structurer {
	return &Structurer{chat: chat, events: events, logger: logger}
}

func (a *Structurer) Run(ctx context.Context, state *domain.ConversationState) error {
	if state.CognitiveModel == nil {
		return fmt.Errorf("structurer: no cognitive model to structure")
	}

	started := time.Now()
	publishEvent(ctx, a.events, a.logger, &domain.Event{
		SessionID: state.SessionID,
		EventType: domain.EventAgentStarted,
		AgentName: NodeStructurer,
	})

	payload, err := json.Marshal(state.CognitiveModel)
	if err != nil {
		return fmt.Errorf("marshal cognitive model: %w", err)
	}

	result, err := a.chat.Chat(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: fmt.Sprintf(llm.StructurerPrompt, string(payload), state.CognitiveModel.Claim)},
	})
	if err != nil {
		a.fail(ctx, state.SessionID, err)
		return fmt.Errorf("structurer chat: %w", err)
	}

	var out domain.StructurerOutput
	if err := llm.UnmarshalObject(result.Content, &out); err != nil {
		a.fail(ctx, state.SessionID, err)
		return fmt.Errorf("parse structurer output: %w", err)
	}
	if out.StructuredQuestion == "" {
		err := fmt.Errorf("structurer returned an empty question")
		a.fail(ctx, state.SessionID, err)
		return err
	}

	state.StructurerOutput = &out
	state.CurrentStage = domain.StageStructuring
	state.LastAgentTokensInput = result.InputTokens
	state.LastAgentTokensOutput = result.OutputTokens
	state.LastAgentCost = result.Cost
	state.AppendMessage(domain.RoleAssistant,
		fmt.Sprintf("Proposta de pergunta estruturada: %s", out.StructuredQuestion))

	publishEvent(ctx, a.events, a.logger, &domain.Event{
		SessionID:    state.SessionID,
		EventType:    domain.EventAgentCompleted,
		AgentName:    NodeStructurer,
		Summary:      out.StructuredQuestion,
		TokensInput:  result.InputTokens,
		TokensOutput: result.OutputTokens,
		Cost:         result.Cost,
		Duration:     time.Since(started).Seconds(),
	})
	return nil
}

func (a *Structurer) fail(ctx context.Context, sessionID string, cause error) {
	publishEvent(ctx, a.events, a.logger, &domain.Event{
		SessionID: sessionID,
		EventType: domain.EventAgentError,
		AgentName: NodeStructurer,
		Summary:   cause.Error(),
	})
}
