package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/llm"
	"go.uber.org/zap"
)

func TestMaturityService_LLMVerdict(t *testing.T) {
	chat := llm.NewMockClient()
	chat.Response = `{"is_mature": true, "confidence": 0.92, "justification": "specific and grounded"}`

	svc := NewMaturityService(chat, DefaultMaturityThreshold, zap.NewNop())
	verdict := svc.Assess(context.Background(), matureModel(), nil)

	if !verdict.IsMature || verdict.Confidence != 0.92 {
		t.Fatalf("unexpected verdict %+v", verdict)
	}
	if !svc.ShouldSnapshot(verdict) {
		t.Fatal("verdict above threshold must allow snapshot")
	}
	if len(chat.Calls) != 1 {
		t.Fatalf("expected one chat call, got %d", len(chat.Calls))
	}
}

func TestMaturityService_FallbackOnChatError(t *testing.T) {
	chat := llm.NewMockClient()
	chat.Err = errors.New("provider down")

	svc := NewMaturityService(chat, DefaultMaturityThreshold, zap.NewNop())
	verdict := svc.Assess(context.Background(), matureModel(), nil)

	if !verdict.IsMature {
		t.Fatal("heuristic should find the model mature")
	}
	if verdict.Confidence != 0.6 {
		t.Fatalf("fallback confidence must be 0.6, got %v", verdict.Confidence)
	}
	// Fallback confidence sits below the default threshold on purpose.
	if svc.ShouldSnapshot(verdict) {
		t.Fatal("fallback verdict must not clear the default threshold")
	}
}

func TestMaturityService_FallbackOnGarbageOutput(t *testing.T) {
	chat := llm.NewMockClient()
	chat.Response = "I think the argument is quite good overall."

	svc := NewMaturityService(chat, DefaultMaturityThreshold, zap.NewNop())
	verdict := svc.Assess(context.Background(), matureModel(), nil)

	if verdict.Confidence != 0.6 {
		t.Fatalf("expected heuristic fallback, got %+v", verdict)
	}
}

func TestMaturityService_TolerantParsing(t *testing.T) {
	chat := llm.NewMockClient()
	chat.Response = "Here is my assessment:\n{\"is_mature\": false, \"confidence\": 0.9, \"missing_elements\": [\"evidence\"]}\nHope that helps."

	svc := NewMaturityService(chat, DefaultMaturityThreshold, zap.NewNop())
	verdict := svc.Assess(context.Background(), matureModel(), nil)

	if verdict.IsMature {
		t.Fatal("expected immature verdict")
	}
	if len(verdict.MissingElements) != 1 || verdict.MissingElements[0] != "evidence" {
		t.Fatalf("missing elements not parsed: %+v", verdict)
	}
}

func TestMaturityService_HeuristicMissingElements(t *testing.T) {
	svc := NewMaturityService(nil, DefaultMaturityThreshold, zap.NewNop())

	model := &domain.CognitiveModel{
		Claim: "too short",
		Contradictions: []domain.Contradiction{
			{Description: "tension", Confidence: 0.9},
		},
	}
	verdict := svc.Assess(context.Background(), model, nil)

	if verdict.IsMature {
		t.Fatal("expected immature verdict")
	}
	if len(verdict.MissingElements) == 0 {
		t.Fatal("expected missing elements to be reported")
	}
}

func TestMaturityService_PriorClaimsReachThePrompt(t *testing.T) {
	chat := llm.NewMockClient()
	chat.Response = `{"is_mature": true, "confidence": 0.9}`

	svc := NewMaturityService(chat, DefaultMaturityThreshold, zap.NewNop())
	svc.Assess(context.Background(), matureModel(), []string{
		"LLMs help reviewers",
		"LLM-assisted review reduces escape rate in small teams",
	})

	if len(chat.Calls) != 1 {
		t.Fatalf("expected one chat call, got %d", len(chat.Calls))
	}
	prompt := chat.Calls[0][0].Content
	if !strings.Contains(prompt, "Previous claim versions") {
		t.Fatal("claim history must be presented to the assessor")
	}
	if !strings.Contains(prompt, "LLMs help reviewers") ||
		!strings.Contains(prompt, "reduces escape rate in small teams") {
		t.Fatalf("both prior claims must appear in the prompt:\n%s", prompt)
	}
}

func TestMaturityService_NoHistoryKeepsPromptBare(t *testing.T) {
	chat := llm.NewMockClient()
	chat.Response = `{"is_mature": true, "confidence": 0.9}`

	svc := NewMaturityService(chat, DefaultMaturityThreshold, zap.NewNop())
	svc.Assess(context.Background(), matureModel(), nil)

	if strings.Contains(chat.Calls[0][0].Content, "Previous claim versions") {
		t.Fatal("no history section without prior claims")
	}
}

func TestMaturityService_ConfidenceClamped(t *testing.T) {
	chat := llm.NewMockClient()
	chat.Response = `{"is_mature": true, "confidence": 1.7}`

	svc := NewMaturityService(chat, DefaultMaturityThreshold, zap.NewNop())
	verdict := svc.Assess(context.Background(), matureModel(), nil)

	if verdict.Confidence != 1 {
		t.Fatalf("confidence must be clamped to 1, got %v", verdict.Confidence)
	}
}
