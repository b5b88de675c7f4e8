package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/llm"
	"go.uber.org/zap"
)

type graphFixture struct {
	graph         *Graph
	orchestrator  *llm.MockClient
	structurer    *llm.MockClient
	methodologist *llm.MockClient
	checkpoints   *memCheckpointStore
	events        *memEventLog
}

func newGraphFixture(t *testing.T) *graphFixture {
	t.Helper()
	f := &graphFixture{
		orchestrator:  llm.NewMockClient(),
		structurer:    llm.NewMockClient(),
		methodologist: llm.NewMockClient(),
		checkpoints:   newMemCheckpointStore(),
		events:        &memEventLog{},
	}
	logger := zap.NewNop()
	f.graph = NewGraph(
		NewOrchestrator(f.orchestrator, f.events, nil, logger),
		NewStructurer(f.structurer, f.events, logger),
		NewMethodologist(f.methodologist, f.events, logger),
		f.checkpoints,
		logger,
	)
	return f
}

func TestGraph_ExploreTurnEndsAfterOrchestrator(t *testing.T) {
	f := newGraphFixture(t)
	f.orchestrator.Response = orchestratorReply("explore", "")

	state, err := f.graph.Invoke(context.Background(), "s1", domain.NewConversationState("input", "s1"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if state.NextStep != domain.NextStepExplore {
		t.Fatalf("expected explore, got %s", state.NextStep)
	}
	if len(f.structurer.Calls) != 0 || len(f.methodologist.Calls) != 0 {
		t.Fatal("explore must not dispatch sub-agents")
	}
	if len(f.checkpoints.saves["s1"]) != 1 {
		t.Fatalf("expected one checkpoint, got %d", len(f.checkpoints.saves["s1"]))
	}
}

func TestGraph_DispatchReturnsToOrchestratorForCuration(t *testing.T) {
	f := newGraphFixture(t)
	f.orchestrator.Responses = []string{
		orchestratorReply("suggest_agent", "structurer"),
		orchestratorReply("explore", ""),
	}
	f.structurer.Response = `{"structured_question": "Does LLM-assisted review reduce escape rate in small teams?", "elements": {"context": "small teams", "problem": "defect escapes", "contribution": "empirical evidence"}}`

	state, err := f.graph.Invoke(context.Background(), "s1", domain.NewConversationState("input", "s1"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	if state.StructurerOutput == nil || state.StructurerOutput.Elements.Problem != "defect escapes" {
		t.Fatalf("structurer output missing: %+v", state.StructurerOutput)
	}
	// The structurer hands back to the orchestrator, which curates the
	// result and closes the turn.
	if got := len(f.orchestrator.Calls); got != 2 {
		t.Fatalf("expected orchestrator to run again after the structurer, got %d calls", got)
	}
	if len(f.methodologist.Calls) != 0 {
		t.Fatal("the methodologist belongs to a later turn, not this dispatch")
	}
	// The curating call must see the structurer's result.
	curatingPrompt := f.orchestrator.Calls[1][0].Content
	if !strings.Contains(curatingPrompt, "Structurer result") {
		t.Fatal("curating pass must receive the structured question in its context")
	}
	// One checkpoint per node: orchestrator, structurer, curating pass.
	if got := len(f.checkpoints.saves["s1"]); got != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", got)
	}
}

func TestGraph_CuratingDispatchWaitsForNextMessage(t *testing.T) {
	f := newGraphFixture(t)
	// The curating pass suggests another dispatch; the turn still ends.
	f.orchestrator.Response = orchestratorReply("suggest_agent", "structurer")
	f.structurer.Response = `{"structured_question": "Q?", "elements": {"context": "c", "problem": "p", "contribution": "x"}}`

	_, err := f.graph.Invoke(context.Background(), "s1", domain.NewConversationState("input", "s1"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got := len(f.structurer.Calls); got != 1 {
		t.Fatalf("a turn dispatches at most one sub-agent, got %d structurer calls", got)
	}
	if got := len(f.orchestrator.Calls); got != 2 {
		t.Fatalf("expected exactly the dispatch and curating passes, got %d", got)
	}
}

func TestGraph_MethodologistRunsOnLaterTurn(t *testing.T) {
	f := newGraphFixture(t)
	f.orchestrator.Responses = []string{
		orchestratorReply("suggest_agent", "structurer"),
		orchestratorReply("explore", ""),
		orchestratorReply("suggest_agent", "methodologist"),
		orchestratorReply("explore", ""),
	}
	f.structurer.Response = `{"structured_question": "Does X reduce Y in Z?", "elements": {"context": "Z", "problem": "Y", "contribution": "evidence"}}`
	f.methodologist.Response = `{"status": "approved", "justification": "sound design"}`

	ctx := context.Background()
	if _, err := f.graph.Invoke(ctx, "s1", domain.NewConversationState("primeira", "s1")); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	state, err := f.graph.Resume(ctx, "s1", "pode validar a metodologia?")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if state.MethodologistOutput == nil || state.MethodologistOutput.Status != domain.MethodologistApproved {
		t.Fatalf("methodologist output missing: %+v", state.MethodologistOutput)
	}
	if state.CurrentStage != domain.StageDone {
		t.Fatalf("approved review must finish the session, got %s", state.CurrentStage)
	}
	if got := len(f.methodologist.Calls); got != 1 {
		t.Fatalf("expected one methodologist call across both turns, got %d", got)
	}
}

func TestGraph_InterruptSuspendsAndResumeAnswers(t *testing.T) {
	f := newGraphFixture(t)
	f.orchestrator.Responses = []string{
		orchestratorReply("suggest_agent", "structurer"),
		orchestratorReply("explore", ""),
		orchestratorReply("suggest_agent", "methodologist"),
		orchestratorReply("explore", ""),
	}
	f.structurer.Response = `{"structured_question": "Does X reduce Y in Z?", "elements": {"context": "Z", "problem": "Y", "contribution": "evidence"}}`
	f.methodologist.Response = `{"status": "needs_refinement", "justification": "", "clarification_question": "Qual seria o desenho do estudo?"}`

	ctx := context.Background()
	if _, err := f.graph.Invoke(ctx, "s1", domain.NewConversationState("primeira", "s1")); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	state, err := f.graph.Resume(ctx, "s1", "pode validar a metodologia?")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if state.PendingInterrupt == nil || state.PendingInterrupt.Agent != NodeMethodologist {
		t.Fatalf("expected a pending interrupt, got %+v", state.PendingInterrupt)
	}
	if state.MethodologistOutput != nil {
		t.Fatal("no verdict must be recorded while suspended")
	}

	f.methodologist.Response = `{"status": "approved", "justification": "agora sim"}`
	resumed, err := f.graph.Resume(ctx, "s1", "Um estudo de caso comparativo")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.PendingInterrupt != nil {
		t.Fatal("interrupt must be cleared after the answer")
	}
	if resumed.MethodologistOutput == nil || resumed.MethodologistOutput.Status != domain.MethodologistApproved {
		t.Fatalf("expected approved verdict after resume, got %+v", resumed.MethodologistOutput)
	}
	// The verdict gets a curating orchestrator pass before the turn ends.
	if got := len(f.orchestrator.Calls); got != 4 {
		t.Fatalf("expected a curating pass after the resumed verdict, got %d orchestrator calls", got)
	}

	types := f.events.types()
	var requested, resolved bool
	for _, ty := range types {
		if ty == domain.EventClarificationRequested {
			requested = true
		}
		if ty == domain.EventClarificationResolved {
			resolved = true
		}
	}
	if !requested || !resolved {
		t.Fatalf("clarification events missing from %v", types)
	}
}

func TestGraph_ResumeWithoutInterruptRunsNewTurn(t *testing.T) {
	f := newGraphFixture(t)
	f.orchestrator.Response = orchestratorReply("explore", "")

	ctx := context.Background()
	if _, err := f.graph.Invoke(ctx, "s1", domain.NewConversationState("primeira", "s1")); err != nil {
		t.Fatalf("invoke: %v", err)
	}

	state, err := f.graph.Resume(ctx, "s1", "segunda mensagem")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if state.UserInput != "segunda mensagem" {
		t.Fatalf("resume must run the new message, got %q", state.UserInput)
	}
	// first turn: user + assistant; second turn adds user + assistant.
	if len(state.Messages) != 4 {
		t.Fatalf("transcript must accumulate across turns, got %d messages", len(state.Messages))
	}
	if len(f.orchestrator.Calls) != 2 {
		t.Fatalf("expected two orchestrator invocations, got %d", len(f.orchestrator.Calls))
	}
}

func TestGraph_ResumeMissingThread(t *testing.T) {
	f := newGraphFixture(t)

	_, err := f.graph.Resume(context.Background(), "never-started", "oi")
	if err == nil {
		t.Fatal("expected error for missing checkpoint")
	}
}

func TestGraph_SubAgentFailureEndsTurnNotSession(t *testing.T) {
	f := newGraphFixture(t)
	f.orchestrator.Response = orchestratorReply("suggest_agent", "structurer")
	f.structurer.Err = errors.New("provider down")

	state, err := f.graph.Invoke(context.Background(), "s1", domain.NewConversationState("input", "s1"))
	if err != nil {
		t.Fatalf("a sub-agent failure must not fail the turn: %v", err)
	}
	if state.LastAssistantMessage() == "" {
		t.Fatal("the orchestrator reply must survive the sub-agent failure")
	}
	// State after the failed node is still checkpointed for resume.
	if len(f.checkpoints.saves["s1"]) < 2 {
		t.Fatalf("expected checkpoints despite failure, got %d", len(f.checkpoints.saves["s1"]))
	}
}

func TestGraph_StateRoundTrip(t *testing.T) {
	f := newGraphFixture(t)
	f.orchestrator.Response = orchestratorReply("explore", "")

	ctx := context.Background()
	state, err := f.graph.Invoke(ctx, "s1", domain.NewConversationState("input", "s1"))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	loaded, err := f.graph.GetState(ctx, "s1")
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	if loaded.SessionID != state.SessionID || len(loaded.Messages) != len(state.Messages) {
		t.Fatalf("loaded state diverges: %+v vs %+v", loaded, state)
	}
	if loaded.CognitiveModel == nil || loaded.CognitiveModel.Claim != state.CognitiveModel.Claim {
		t.Fatal("cognitive model must survive the checkpoint round trip")
	}
}
