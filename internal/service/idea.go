package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/store"
	"go.uber.org/zap"
)

const (
	defaultRelatedThreshold = 0.75
	defaultRelatedLimit     = 5
)

// IdeaService manages the idea catalog and its argument history.
type IdeaService struct {
	ideas     domain.IdeaStore
	arguments domain.ArgumentStore
	embedder  domain.EmbeddingClient
	logger    *zap.Logger
}

func NewIdeaService(ideas domain.IdeaStore, arguments domain.ArgumentStore, embedder domain.EmbeddingClient, logger *zap.Logger) *IdeaService {
	return &IdeaService{
		ideas:     ideas,
		arguments: arguments,
		embedder:  embedder,
		logger:    logger,
	}
}

func (s *IdeaService) Create(ctx context.Context, title string) (*domain.Idea, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("idea title is required")
	}

	idea := &domain.Idea{
		Title:  title,
		Status: domain.IdeaStatusExploring,
	}
	if err := s.ideas.Create(ctx, idea); err != nil {
		return nil, fmt.Errorf("create idea: %w", err)
	}

	s.logger.Info("idea created", zap.String("idea_id", idea.ID), zap.String("title", title))
	return idea, nil
}

func (s *IdeaService) Get(ctx context.Context, id string) (*domain.Idea, error) {
	return s.ideas.GetByID(ctx, id)
}

func (s *IdeaService) List(ctx context.Context, status *domain.IdeaStatus, limit int) ([]domain.Idea, error) {
	return s.ideas.List(ctx, status, limit)
}

func (s *IdeaService) Update(ctx context.Context, id string, upd domain.IdeaUpdate) (*domain.Idea, error) {
	matched, err := s.ideas.Update(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update idea: %w", err)
	}
	if !matched {
		return nil, store.ErrNotFound
	}
	return s.ideas.GetByID(ctx, id)
}

func (s *IdeaService) Arguments(ctx context.Context, ideaID string, limit int) ([]domain.Argument, error) {
	if _, err := s.ideas.GetByID(ctx, ideaID); err != nil {
		return nil, err
	}
	return s.arguments.ListByIdea(ctx, ideaID, limit)
}

func (s *IdeaService) Argument(ctx context.Context, id string) (*domain.Argument, error) {
	return s.arguments.GetByID(ctx, id)
}

// Related finds ideas whose latest snapshot makes a similar claim, by
// embedding similarity. Without an embedding client it returns nothing.
func (s *IdeaService) Related(ctx context.Context, ideaID string, limit int) ([]domain.ArgumentWithScore, error) {
	if s.embedder == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = defaultRelatedLimit
	}

	latest, err := s.arguments.LatestByIdea(ctx, ideaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	vec, err := s.embedder.Embed(ctx, latest.Claim)
	if err != nil {
		return nil, fmt.Errorf("embed claim: %w", err)
	}

	// Fetch one extra so the idea's own snapshot can be dropped.
	matches, err := s.arguments.FindSimilarClaims(ctx, vec, defaultRelatedThreshold, limit+1)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ArgumentWithScore, 0, len(matches))
	for _, m := range matches {
		if m.IdeaID == ideaID {
			continue
		}
		out = append(out, m)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
