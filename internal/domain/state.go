package domain

// Message roles mirror the chat transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Stage is the conversation's coarse lifecycle position.
type Stage string

const (
	StageClassifying Stage = "classifying"
	StageStructuring Stage = "structuring"
	StageValidating  Stage = "validating"
	StageDone        Stage = "done"
)

func ValidStage(s string) bool {
	switch Stage(s) {
	case StageClassifying, StageStructuring, StageValidating, StageDone:
		return true
	}
	return false
}

// NextStep is the orchestrator's routing decision for the turn.
type NextStep string

const (
	NextStepExplore      NextStep = "explore"
	NextStepClarify      NextStep = "clarify"
	NextStepSuggestAgent NextStep = "suggest_agent"
)

func ValidNextStep(s string) bool {
	switch NextStep(s) {
	case NextStepExplore, NextStepClarify, NextStepSuggestAgent:
		return true
	}
	return false
}

// Sub-agent names the orchestrator can dispatch to.
const (
	AgentStructurer    = "structurer"
	AgentMethodologist = "methodologist"
)

// AgentSuggestion accompanies next_step = suggest_agent.
type AgentSuggestion struct {
	Agent         string `json:"agent"`
	Justification string `json:"justification"`
}

// StageSuggestion proposes advancing the conversation stage.
type StageSuggestion struct {
	From          Stage  `json:"from"`
	To            Stage  `json:"to"`
	Justification string `json:"justification"`
}

// StructurerOutput is the Structurer sub-agent's contract.
type StructurerOutput struct {
	StructuredQuestion string             `json:"structured_question"`
	Elements           StructurerElements `json:"elements"`
}

type StructurerElements struct {
	Context      string `json:"context"`
	Problem      string `json:"problem"`
	Contribution string `json:"contribution"`
}

// Methodologist verdict statuses.
const (
	MethodologistApproved        = "approved"
	MethodologistNeedsRefinement = "needs_refinement"
	MethodologistRejected        = "rejected"
)

// MethodologistOutput is the Methodologist sub-agent's contract.
type MethodologistOutput struct {
	Status        string                     `json:"status"`
	Justification string                     `json:"justification"`
	Improvements  []MethodologistImprovement `json:"improvements,omitempty"`
}

type MethodologistImprovement struct {
	Aspect     string `json:"aspect"`
	Gap        string `json:"gap"`
	Suggestion string `json:"suggestion"`
}

// Interrupt suspends a turn while a sub-agent waits for a user answer.
// The graph persists it in the checkpoint and resumes the named agent with
// the answer.
type Interrupt struct {
	Agent    string `json:"agent"`
	Question string `json:"question"`
}

// ConversationState is the checkpointed per-thread state. It is the single
// value flowing through the graph; nodes return modified copies.
type ConversationState struct {
	UserInput    string    `json:"user_input"`
	SessionID    string    `json:"session_id"`
	ActiveIdeaID string    `json:"active_idea_id,omitempty"`
	Messages     []Message `json:"messages"`
	CurrentStage Stage     `json:"current_stage"`

	OrchestratorAnalysis string           `json:"orchestrator_analysis,omitempty"`
	NextStep             NextStep         `json:"next_step,omitempty"`
	AgentSuggestion      *AgentSuggestion `json:"agent_suggestion,omitempty"`
	FocalArgument        *FocalArgument   `json:"focal_argument,omitempty"`
	CognitiveModel       *CognitiveModel  `json:"cognitive_model,omitempty"`
	ReflectionPrompt     string           `json:"reflection_prompt,omitempty"`
	StageSuggestion      *StageSuggestion `json:"stage_suggestion,omitempty"`

	StructurerOutput    *StructurerOutput    `json:"structurer_output,omitempty"`
	MethodologistOutput *MethodologistOutput `json:"methodologist_output,omitempty"`

	PendingInterrupt *Interrupt `json:"pending_interrupt,omitempty"`

	NeedsCheckpoint  bool   `json:"needs_checkpoint,omitempty"`
	CheckpointReason string `json:"checkpoint_reason,omitempty"`

	LastAgentTokensInput  int     `json:"last_agent_tokens_input"`
	LastAgentTokensOutput int     `json:"last_agent_tokens_output"`
	LastAgentCost         float64 `json:"last_agent_cost"`
}

// NewConversationState seeds a fresh thread with the first user message.
func NewConversationState(userInput, sessionID string) *ConversationState {
	return &ConversationState{
		UserInput:    userInput,
		SessionID:    sessionID,
		Messages:     []Message{{Role: RoleUser, Content: userInput}},
		CurrentStage: StageClassifying,
	}
}

// AppendMessage adds a message to the append-only transcript.
func (s *ConversationState) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// TurnNumber counts the user messages on the transcript, so the current
// turn is numbered from 1.
func (s *ConversationState) TurnNumber() int {
	var n int
	for _, m := range s.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// LastAssistantMessage returns the most recent assistant reply, or "".
func (s *ConversationState) LastAssistantMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}
