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

// Methodologist reviews the structured question for methodological
// soundness. When it cannot decide without the researcher it raises an
// interrupt; the graph checkpoints and the session resumes later with the
// answer.
type Methodologist struct {
	chat   domain.ChatClient
	events domain.EventLog
	logger *zap.Logger
}

func NewMethodologist(chat domain.ChatClient, events domain.EventLog, logger *zap.Logger) *Methodologist {
	return &Methodologist{chat: chat, events: events, logger: logger}
}

// methodologistOutput extends the domain contract with the optional
// clarification question that triggers an interrupt.
type methodologistOutput struct {
	domain.MethodologistOutput
	ClarificationQuestion string `json:"clarification_question,omitempty"`
}

func (a *Methodologist) Run(ctx context.Context, state *domain.ConversationState) error {
	if state.StructurerOutput == nil {
		return fmt.Errorf("methodologist: no structured question to review")
	}

	started := time.Now()
	publishEvent(ctx, a.events, a.logger, &domain.Event{
		SessionID: state.SessionID,
		EventType: domain.EventAgentStarted,
		AgentName: NodeMethodologist,
	})

	question, err := json.Marshal(state.StructurerOutput)
	if err != nil {
		return fmt.Errorf("marshal structured question: %w", err)
	}
	var model []byte
	if state.CognitiveModel != nil {
		model, _ = json.Marshal(state.CognitiveModel)
	}

	result, err := a.chat.Chat(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: fmt.Sprintf(llm.MethodologistPrompt, string(question), string(model))},
	})
	if err != nil {
		a.fail(ctx, state.SessionID, err)
		return fmt.Errorf("methodologist chat: %w", err)
	}

	var out methodologistOutput
	if err := llm.UnmarshalObject(result.Content, &out); err != nil {
		a.fail(ctx, state.SessionID, err)
		return fmt.Errorf("parse methodologist output: %w", err)
	}

	state.LastAgentTokensInput = result.InputTokens
	state.LastAgentTokensOutput = result.OutputTokens
	state.LastAgentCost = result.Cost

	if out.ClarificationQuestion != "" {
		state.PendingInterrupt = &domain.Interrupt{
			Agent:    NodeMethodologist,
			Question: out.ClarificationQuestion,
		}
		state.NeedsCheckpoint = true
		state.CheckpointReason = "methodologist awaiting clarification"
		state.AppendMessage(domain.RoleAssistant, out.ClarificationQuestion)

		publishEvent(ctx, a.events, a.logger, &domain.Event{
			SessionID: state.SessionID,
			EventType: domain.EventClarificationRequested,
			AgentName: NodeMethodologist,
			Summary:   out.ClarificationQuestion,
		})
		return nil
	}

	a.applyVerdict(state, &out.MethodologistOutput)

	publishEvent(ctx, a.events, a.logger, &domain.Event{
		SessionID:    state.SessionID,
		EventType:    domain.EventAgentCompleted,
		AgentName:    NodeMethodologist,
		Summary:      out.Status,
		TokensInput:  result.InputTokens,
		TokensOutput: result.OutputTokens,
		Cost:         result.Cost,
		Duration:     time.Since(started).Seconds(),
	})
	return nil
}

// Resume continues a suspended review with the researcher's answer.
func (a *Methodologist) Resume(ctx context.Context, state *domain.ConversationState, answer string) error {
	if state.PendingInterrupt == nil || state.PendingInterrupt.Agent != NodeMethodologist {
		return fmt.Errorf("methodologist: no pending clarification to resume")
	}

	publishEvent(ctx, a.events, a.logger, &domain.Event{
		SessionID: state.SessionID,
		EventType: domain.EventClarificationResolved,
		AgentName: NodeMethodologist,
		Summary:   answer,
	})

	state.AppendMessage(domain.RoleUser, answer)
	state.PendingInterrupt = nil
	state.NeedsCheckpoint = false
	state.CheckpointReason = ""

	return a.Run(ctx, state)
}

func (a *Methodologist) applyVerdict(state *domain.ConversationState, out *domain.MethodologistOutput) {
	switch out.Status {
	case domain.MethodologistApproved:
		state.CurrentStage = domain.StageDone
	case domain.MethodologistNeedsRefinement, domain.MethodologistRejected:
		state.CurrentStage = domain.StageValidating
	default:
		a.logger.Warn("unknown methodologist status, treating as needs_refinement",
			zap.String("status", out.Status))
		out.Status = domain.MethodologistNeedsRefinement
		state.CurrentStage = domain.StageValidating
	}

	state.MethodologistOutput = out

	reply := out.Justification
	if reply == "" {
		reply = fmt.Sprintf("Avaliação metodológica: %s", out.Status)
	}
	state.AppendMessage(domain.RoleAssistant, reply)
}

func (a *Methodologist) fail(ctx context.Context, sessionID string, cause error) {
	publishEvent(ctx, a.events, a.logger, &domain.Event{
		SessionID: sessionID,
		EventType: domain.EventAgentError,
		AgentName: NodeMethodologist,
		Summary:   cause.Error(),
	})
}
