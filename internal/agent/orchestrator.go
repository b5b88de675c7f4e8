package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/llm"
	"github.com/ideialab/maieutica/internal/service"
	"go.uber.org/zap"
)

// fallbackClaimLimit caps the claim extracted from raw input when the
// reasoning capability gives nothing usable.
const fallbackClaimLimit = 200

const fallbackResponse = "Desculpe, tive dificuldade em processar sua mensagem. Pode reformular?"

// Observer is notified after each completed orchestrator turn. Optional.
type Observer interface {
	TurnCompleted(state *domain.ConversationState)
}

// Orchestrator runs the socratic analysis for one conversation turn:
// extract the cognitive model, refresh the focal argument, pick the next
// step and reply. Every failure path degrades to a safe default; a turn
// never errors out of the graph.
type Orchestrator struct {
	chat      domain.ChatClient
	events    domain.EventLog
	snapshots *service.SnapshotService
	observer  Observer
	logger    *zap.Logger
}

func NewOrchestrator(chat domain.ChatClient, events domain.EventLog, snapshots *service.SnapshotService, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		chat:      chat,
		events:    events,
		snapshots: snapshots,
		logger:    logger,
	}
}

// SetObserver attaches a turn observer.
func (o *Orchestrator) SetObserver(obs Observer) { o.observer = obs }

// orchestratorOutput is the wire contract with the reasoning capability.
type orchestratorOutput struct {
	Reasoning        string                  `json:"reasoning"`
	Message          string                  `json:"message"`
	CognitiveModel   *domain.CognitiveModel  `json:"cognitive_model"`
	FocalArgument    *domain.FocalArgument   `json:"focal_argument"`
	NextStep         string                  `json:"next_step"`
	AgentSuggestion  *domain.AgentSuggestion `json:"agent_suggestion"`
	ReflectionPrompt string                  `json:"reflection_prompt"`
	StageSuggestion  *domain.StageSuggestion `json:"stage_suggestion"`
}

func (o *Orchestrator) Run(ctx context.Context, state *domain.ConversationState) error {
	started := time.Now()
	publishEvent(ctx, o.events, o.logger, &domain.Event{
		SessionID: state.SessionID,
		EventType: domain.EventAgentStarted,
		AgentName: NodeOrchestrator,
	})

	result, err := o.chat.Chat(ctx, []domain.Message{
		{Role: domain.RoleSystem, Content: fmt.Sprintf(llm.OrchestratorPrompt, o.contextBlock(state), state.UserInput)},
		{Role: domain.RoleUser, Content: state.UserInput},
	})
	if err != nil {
		o.logger.Warn("orchestrator chat failed, using safe defaults",
			zap.String("session_id", state.SessionID), zap.Error(err))
		o.applyFallback(ctx, state, err)
		return nil
	}

	var out orchestratorOutput
	if err := llm.UnmarshalObject(result.Content, &out); err != nil {
		o.logger.Warn("orchestrator output unparseable, using safe defaults",
			zap.String("session_id", state.SessionID), zap.Error(err))
		o.applyFallback(ctx, state, err)
		return nil
	}

	state.LastAgentTokensInput = result.InputTokens
	state.LastAgentTokensOutput = result.OutputTokens
	state.LastAgentCost = result.Cost

	directionChanged := o.applyOutput(state, &out)

	if state.ActiveIdeaID != "" && o.snapshots != nil && state.CognitiveModel != nil {
		if _, _, err := o.snapshots.CreateIfMature(ctx, state.ActiveIdeaID, state.SessionID, state.CognitiveModel, state.TurnNumber()); err != nil {
			o.logger.Warn("snapshot attempt failed",
				zap.String("idea_id", state.ActiveIdeaID), zap.Error(err))
		}
	}

	publishEvent(ctx, o.events, o.logger, &domain.Event{
		SessionID:    state.SessionID,
		EventType:    domain.EventAgentCompleted,
		AgentName:    NodeOrchestrator,
		Summary:      state.OrchestratorAnalysis,
		TokensInput:  result.InputTokens,
		TokensOutput: result.OutputTokens,
		Cost:         result.Cost,
		Duration:     time.Since(started).Seconds(),
		Metadata: map[string]any{
			"next_step":         string(state.NextStep),
			"direction_changed": directionChanged,
		},
	})

	if o.observer != nil {
		o.observer.TurnCompleted(state)
	}
	return nil
}

// applyOutput validates the raw output and folds it into the state.
// Returns whether the focal argument indicates a direction change.
func (o *Orchestrator) applyOutput(state *domain.ConversationState, out *orchestratorOutput) bool {
	if out.CognitiveModel != nil {
		o.sanitizeModel(out.CognitiveModel)
		state.CognitiveModel = out.CognitiveModel
	}

	var directionChanged bool
	if out.FocalArgument != nil {
		out.FocalArgument.Normalize()
		directionChanged = domain.DirectionChanged(state.FocalArgument, out.FocalArgument)
		if directionChanged {
			o.logger.Info("researcher changed direction",
				zap.String("session_id", state.SessionID),
				zap.String("from", string(state.FocalArgument.Intent)),
				zap.String("to", string(out.FocalArgument.Intent)))
		}
		// Replaced whole every turn, never merged.
		state.FocalArgument = out.FocalArgument
	} else if state.FocalArgument == nil {
		state.FocalArgument = domain.NewUnclearFocalArgument()
	}

	state.NextStep = domain.NextStep(out.NextStep)
	state.AgentSuggestion = nil
	switch {
	case state.NextStep == domain.NextStepSuggestAgent:
		if out.AgentSuggestion != nil &&
			(out.AgentSuggestion.Agent == domain.AgentStructurer || out.AgentSuggestion.Agent == domain.AgentMethodologist) {
			state.AgentSuggestion = out.AgentSuggestion
		} else {
			// A dispatch with no valid target cannot be routed.
			suggested := ""
			if out.AgentSuggestion != nil {
				suggested = out.AgentSuggestion.Agent
			}
			o.logger.Warn("suggest_agent without a valid agent, downgrading to explore",
				zap.String("suggested", suggested))
			state.NextStep = domain.NextStepExplore
		}
	case !domain.ValidNextStep(out.NextStep):
		o.logger.Warn("invalid next step, defaulting to explore", zap.String("next_step", out.NextStep))
		state.NextStep = domain.NextStepExplore
	}

	state.ReflectionPrompt = strings.TrimSpace(out.ReflectionPrompt)
	state.StageSuggestion = nil
	if s := out.StageSuggestion; s != nil {
		if domain.ValidStage(string(s.From)) && domain.ValidStage(string(s.To)) && s.From != s.To {
			state.StageSuggestion = s
		} else {
			o.logger.Warn("dropping invalid stage suggestion",
				zap.String("from", string(s.From)), zap.String("to", string(s.To)))
		}
	}

	message := strings.TrimSpace(out.Message)
	if message == "" {
		message = fallbackResponse
	}
	analysis := strings.TrimSpace(out.Reasoning)
	if analysis == "" {
		analysis = message
	}
	state.OrchestratorAnalysis = analysis
	state.AppendMessage(domain.RoleAssistant, message)

	return directionChanged
}

// sanitizeModel enforces construction invariants without failing the turn:
// low-confidence contradictions are dropped, out-of-range solidity scores
// are cleared back to unevaluated.
func (o *Orchestrator) sanitizeModel(m *domain.CognitiveModel) {
	kept := m.Contradictions[:0]
	for _, c := range m.Contradictions {
		if c.Confidence >= domain.MinContradictionConfidence {
			kept = append(kept, c)
		} else {
			o.logger.Debug("dropping low-confidence contradiction",
				zap.Float64("confidence", c.Confidence))
		}
	}
	m.Contradictions = kept

	for i := range m.Propositions {
		s := m.Propositions[i].Solidity
		if s != nil && (*s < 0 || *s > 1) {
			o.logger.Debug("clearing out-of-range solidez", zap.Float64("solidez", *s))
			m.Propositions[i].Solidity = nil
		}
	}
}

// applyFallback sets safe defaults when the turn's analysis is unusable.
func (o *Orchestrator) applyFallback(ctx context.Context, state *domain.ConversationState, cause error) {
	publishEvent(ctx, o.events, o.logger, &domain.Event{
		SessionID: state.SessionID,
		EventType: domain.EventAgentError,
		AgentName: NodeOrchestrator,
		Summary:   cause.Error(),
	})

	state.NextStep = domain.NextStepExplore
	state.AgentSuggestion = nil
	state.ReflectionPrompt = ""
	state.StageSuggestion = nil
	if state.FocalArgument == nil {
		state.FocalArgument = domain.NewUnclearFocalArgument()
	}
	if state.CognitiveModel == nil {
		claim := []rune(strings.TrimSpace(state.UserInput))
		if len(claim) > fallbackClaimLimit {
			claim = claim[:fallbackClaimLimit]
		}
		state.CognitiveModel = &domain.CognitiveModel{Claim: string(claim)}
	}
	state.OrchestratorAnalysis = fallbackResponse
	state.AppendMessage(domain.RoleAssistant, fallbackResponse)

	if o.observer != nil {
		o.observer.TurnCompleted(state)
	}
}

// contextBlock renders the conversation history and prior analysis for the
// prompt. The latest user message is passed separately.
func (o *Orchestrator) contextBlock(state *domain.ConversationState) string {
	var sb strings.Builder

	msgs := state.Messages
	if n := len(msgs); n > 0 && msgs[n-1].Role == domain.RoleUser && msgs[n-1].Content == state.UserInput {
		msgs = msgs[:n-1]
	}
	for _, m := range msgs {
		sb.WriteString(m.Role)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}

	if state.FocalArgument != nil {
		if data, err := json.Marshal(state.FocalArgument); err == nil {
			sb.WriteString("\nPrevious focal argument: ")
			sb.Write(data)
			sb.WriteString("\n")
		}
	}
	if state.CognitiveModel != nil {
		if data, err := json.Marshal(state.CognitiveModel); err == nil {
			sb.WriteString("\nCurrent cognitive model: ")
			sb.Write(data)
			sb.WriteString("\n")
		}
	}
	if state.StructurerOutput != nil {
		if data, err := json.Marshal(state.StructurerOutput); err == nil {
			sb.WriteString("\nStructurer result: ")
			sb.Write(data)
			sb.WriteString("\n")
		}
	}
	if state.MethodologistOutput != nil {
		if data, err := json.Marshal(state.MethodologistOutput); err == nil {
			sb.WriteString("\nMethodologist verdict: ")
			sb.Write(data)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return "(first message of the session)"
	}
	return sb.String()
}
