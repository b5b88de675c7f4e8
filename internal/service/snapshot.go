package service

import (
	"context"
	"fmt"

	"github.com/ideialab/maieutica/internal/domain"
	"go.uber.org/zap"
)

// SnapshotService persists mature cognitive models as versioned arguments
// and keeps the owning idea's focal pointer current.
type SnapshotService struct {
	ideas     domain.IdeaStore
	arguments domain.ArgumentStore
	maturity  *MaturityService
	embedder  domain.EmbeddingClient
	events    domain.EventLog
	logger    *zap.Logger
}

func NewSnapshotService(
	ideas domain.IdeaStore,
	arguments domain.ArgumentStore,
	maturity *MaturityService,
	embedder domain.EmbeddingClient,
	events domain.EventLog,
	logger *zap.Logger,
) *SnapshotService {
	return &SnapshotService{
		ideas:     ideas,
		arguments: arguments,
		maturity:  maturity,
		embedder:  embedder,
		events:    events,
		logger:    logger,
	}
}

// claimHistoryLimit caps how many prior snapshots feed the maturity
// assessment.
const claimHistoryLimit = 5

// CreateIfMature snapshots the model only when the maturity assessor clears
// the confidence threshold. turn is the conversation turn the model came
// from. Returns the created argument, or nil with the verdict when the
// model is not ready.
func (s *SnapshotService) CreateIfMature(ctx context.Context, ideaID, sessionID string, model *domain.CognitiveModel, turn int) (*domain.Argument, *domain.MaturityVerdict, error) {
	verdict := s.maturity.Assess(ctx, model, s.priorClaims(ctx, ideaID))
	if !s.maturity.ShouldSnapshot(verdict) {
		s.logger.Debug("model not mature enough to snapshot",
			zap.String("idea_id", ideaID),
			zap.Bool("is_mature", verdict.IsMature),
			zap.Float64("confidence", verdict.Confidence))
		return nil, verdict, nil
	}

	arg, err := s.Create(ctx, ideaID, sessionID, model, turn)
	if err != nil {
		return nil, verdict, err
	}
	return arg, verdict, nil
}

// priorClaims collects earlier snapshot claims for the idea, oldest first.
// Best effort; history is advisory for the maturity assessment.
func (s *SnapshotService) priorClaims(ctx context.Context, ideaID string) []string {
	args, err := s.arguments.ListByIdea(ctx, ideaID, claimHistoryLimit)
	if err != nil {
		s.logger.Debug("claim history unavailable", zap.String("idea_id", ideaID), zap.Error(err))
		return nil
	}
	claims := make([]string, 0, len(args))
	for i := len(args) - 1; i >= 0; i-- {
		if c := args[i].Claim; c != "" {
			claims = append(claims, c)
		}
	}
	return claims
}

// Create snapshots the model unconditionally. The version is assigned by
// the store inside its insert transaction. A failure updating the idea's
// focal pointer is logged but does not undo the persisted argument.
func (s *SnapshotService) Create(ctx context.Context, ideaID, sessionID string, model *domain.CognitiveModel, turn int) (*domain.Argument, error) {
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cognitive model: %w", err)
	}
	if _, err := s.ideas.GetByID(ctx, ideaID); err != nil {
		return nil, err
	}

	// Claim embedding is best effort; a snapshot without one is still valid,
	// it just stays invisible to similarity search.
	var claimEmbedding []float32
	if s.embedder != nil && model.Claim != "" {
		vec, err := s.embedder.Embed(ctx, model.Claim)
		if err != nil {
			s.logger.Warn("claim embedding failed, snapshotting without one",
				zap.String("idea_id", ideaID), zap.Error(err))
		} else {
			claimEmbedding = vec
		}
	}

	arg := &domain.Argument{
		IdeaID:         ideaID,
		Claim:          model.Claim,
		Propositions:   model.Propositions,
		OpenQuestions:  model.OpenQuestions,
		Contradictions: model.Contradictions,
		SolidGrounds:   model.SolidGrounds,
		Context:        model.Context,
	}
	if err := s.arguments.Create(ctx, arg, claimEmbedding); err != nil {
		return nil, fmt.Errorf("create argument snapshot: %w", err)
	}

	if _, err := s.ideas.Update(ctx, ideaID, domain.IdeaUpdate{CurrentArgumentID: &arg.ID}); err != nil {
		s.logger.Error("argument persisted but focal pointer update failed",
			zap.String("idea_id", ideaID),
			zap.String("argument_id", arg.ID),
			zap.Error(err))
	}

	s.logger.Info("argument snapshot created",
		zap.String("idea_id", ideaID),
		zap.String("argument_id", arg.ID),
		zap.Int("version", arg.Version))

	if s.events != nil && sessionID != "" {
		e := domain.NewEvent(sessionID, domain.EventCognitiveModelUpdated)
		e.Metadata = map[string]any{
			"idea_id":        ideaID,
			"argument_id":    arg.ID,
			"version":        arg.Version,
			"turn":           turn,
			"solidez":        model.CalculateSolidez(),
			"completeness":   model.Completeness(),
			"propositions":   len(model.Propositions),
			"open_questions": len(model.OpenQuestions),
		}
		if err := s.events.Publish(ctx, e); err != nil {
			s.logger.Warn("publish snapshot event failed", zap.Error(err))
		}
	}

	return arg, nil
}
