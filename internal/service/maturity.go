package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/llm"
	"go.uber.org/zap"
)

const (
	// DefaultMaturityThreshold gates snapshot creation: a verdict must be
	// mature with at least this confidence.
	DefaultMaturityThreshold = 0.8

	// fallbackConfidence is reported when the assessor falls back to the
	// deterministic heuristic. Low enough that the default threshold never
	// snapshots on a fallback alone.
	fallbackConfidence = 0.6
)

// MaturityService decides whether a cognitive model is developed enough to
// snapshot. The primary path asks the reasoning capability; any failure
// there degrades to the deterministic heuristic, never to an error.
type MaturityService struct {
	chat      domain.ChatClient
	threshold float64
	logger    *zap.Logger
}

func NewMaturityService(chat domain.ChatClient, threshold float64, logger *zap.Logger) *MaturityService {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMaturityThreshold
	}
	return &MaturityService{
		chat:      chat,
		threshold: threshold,
		logger:    logger,
	}
}

func (s *MaturityService) Threshold() float64 { return s.threshold }

// Assess returns a maturity verdict for the model. priorClaims, oldest
// first, lets the assessor weigh whether the claim has stabilized across
// snapshots; pass nil when no history exists. Never returns an error for
// LLM failures; those produce a heuristic verdict instead.
func (s *MaturityService) Assess(ctx context.Context, model *domain.CognitiveModel, priorClaims []string) *domain.MaturityVerdict {
	if s.chat != nil {
		verdict, err := s.assessWithLLM(ctx, model, priorClaims)
		if err == nil {
			return verdict
		}
		s.logger.Warn("maturity assessment fell back to heuristic", zap.Error(err))
	}
	return s.heuristicVerdict(model)
}

// ShouldSnapshot applies the confidence threshold to a verdict.
func (s *MaturityService) ShouldSnapshot(v *domain.MaturityVerdict) bool {
	return v != nil && v.IsMature && v.Confidence >= s.threshold
}

func (s *MaturityService) assessWithLLM(ctx context.Context, model *domain.CognitiveModel, priorClaims []string) (*domain.MaturityVerdict, error) {
	payload, err := json.Marshal(model)
	if err != nil {
		return nil, fmt.Errorf("marshal cognitive model: %w", err)
	}

	content := fmt.Sprintf(llm.MaturityPrompt, string(payload))
	if len(priorClaims) > 0 {
		var sb strings.Builder
		sb.WriteString(content)
		sb.WriteString("\n\nPrevious claim versions, oldest first:\n")
		for _, c := range priorClaims {
			sb.WriteString("- ")
			sb.WriteString(c)
			sb.WriteString("\n")
		}
		sb.WriteString("A claim that has stopped shifting between versions is a sign of maturity; one still being reworded is not.")
		content = sb.String()
	}

	result, err := s.chat.Chat(ctx, []domain.Message{
		{Role: domain.RoleUser, Content: content},
	})
	if err != nil {
		return nil, fmt.Errorf("maturity chat: %w", err)
	}

	var verdict domain.MaturityVerdict
	if err := llm.UnmarshalObject(result.Content, &verdict); err != nil {
		return nil, fmt.Errorf("parse maturity verdict: %w", err)
	}

	if verdict.Confidence < 0 {
		verdict.Confidence = 0
	}
	if verdict.Confidence > 1 {
		verdict.Confidence = 1
	}
	return &verdict, nil
}

func (s *MaturityService) heuristicVerdict(model *domain.CognitiveModel) *domain.MaturityVerdict {
	verdict := &domain.MaturityVerdict{
		IsMature:      model.IsMature(),
		Confidence:    fallbackConfidence,
		Justification: "heuristic assessment: claim length, proposition solidity, open questions and contradictions",
	}
	if !verdict.IsMature {
		if len(model.Claim) <= 20 {
			verdict.MissingElements = append(verdict.MissingElements, "specific claim")
		}
		if len(model.Propositions) < 2 {
			verdict.MissingElements = append(verdict.MissingElements, "at least two propositions")
		}
		if model.MeanSolidity() < domain.SolidPropositionThreshold {
			verdict.MissingElements = append(verdict.MissingElements, "solid propositions")
		}
		if len(model.OpenQuestions) > 1 {
			verdict.MissingElements = append(verdict.MissingElements, "resolved open questions")
		}
		if len(model.Contradictions) > 0 {
			verdict.MissingElements = append(verdict.MissingElements, "resolved contradictions")
		}
	}
	return verdict
}
