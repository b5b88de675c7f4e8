package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/store"
)

// In-memory stores for service tests.

type memIdeaStore struct {
	ideas     map[string]*domain.Idea
	nextID    int
	updateErr error
}

func newMemIdeaStore() *memIdeaStore {
	return &memIdeaStore{ideas: make(map[string]*domain.Idea)}
}

func (s *memIdeaStore) Create(ctx context.Context, idea *domain.Idea) error {
	s.nextID++
	if idea.ID == "" {
		idea.ID = fmt.Sprintf("idea-%d", s.nextID)
	}
	now := time.Now().UTC()
	idea.CreatedAt = now
	idea.UpdatedAt = now
	cp := *idea
	s.ideas[idea.ID] = &cp
	return nil
}

func (s *memIdeaStore) GetByID(ctx context.Context, id string) (*domain.Idea, error) {
	idea, ok := s.ideas[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *idea
	return &cp, nil
}

func (s *memIdeaStore) Update(ctx context.Context, id string, upd domain.IdeaUpdate) (bool, error) {
	if s.updateErr != nil {
		return false, s.updateErr
	}
	idea, ok := s.ideas[id]
	if !ok {
		return false, nil
	}
	if upd.Title != nil {
		idea.Title = *upd.Title
	}
	if upd.Status != nil {
		idea.Status = *upd.Status
	}
	if upd.ThreadID != nil {
		idea.ThreadID = upd.ThreadID
	}
	if upd.CurrentArgumentID != nil {
		idea.CurrentArgumentID = upd.CurrentArgumentID
	}
	idea.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *memIdeaStore) List(ctx context.Context, status *domain.IdeaStatus, limit int) ([]domain.Idea, error) {
	var out []domain.Idea
	for _, idea := range s.ideas {
		if status != nil && idea.Status != *status {
			continue
		}
		out = append(out, *idea)
	}
	return out, nil
}

type memArgumentStore struct {
	arguments []*domain.Argument
	nextID    int
	createErr error
	similar   []domain.ArgumentWithScore
}

func newMemArgumentStore() *memArgumentStore {
	return &memArgumentStore{}
}

func (s *memArgumentStore) Create(ctx context.Context, arg *domain.Argument, claimEmbedding []float32) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	arg.ID = fmt.Sprintf("arg-%d", s.nextID)
	if arg.Version == 0 {
		max := 0
		for _, a := range s.arguments {
			if a.IdeaID == arg.IdeaID && a.Version > max {
				max = a.Version
			}
		}
		arg.Version = max + 1
	}
	now := time.Now().UTC()
	arg.CreatedAt = now
	arg.UpdatedAt = now
	cp := *arg
	s.arguments = append(s.arguments, &cp)
	return nil
}

func (s *memArgumentStore) GetByID(ctx context.Context, id string) (*domain.Argument, error) {
	for _, a := range s.arguments {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memArgumentStore) ListByIdea(ctx context.Context, ideaID string, limit int) ([]domain.Argument, error) {
	var out []domain.Argument
	for i := len(s.arguments) - 1; i >= 0; i-- {
		if s.arguments[i].IdeaID == ideaID {
			out = append(out, *s.arguments[i])
		}
	}
	return out, nil
}

func (s *memArgumentStore) LatestByIdea(ctx context.Context, ideaID string) (*domain.Argument, error) {
	var latest *domain.Argument
	for _, a := range s.arguments {
		if a.IdeaID == ideaID && (latest == nil || a.Version > latest.Version) {
			latest = a
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (s *memArgumentStore) FindSimilarClaims(ctx context.Context, embedding []float32, threshold float32, limit int) ([]domain.ArgumentWithScore, error) {
	if limit < len(s.similar) {
		return s.similar[:limit], nil
	}
	return s.similar, nil
}

type memEventLog struct {
	events []domain.Event
}

func (l *memEventLog) Publish(ctx context.Context, e *domain.Event) error {
	l.events = append(l.events, *e)
	return nil
}

func (l *memEventLog) SessionEvents(ctx context.Context, sessionID string) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range l.events {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *memEventLog) ActiveSessions(ctx context.Context, maxAge time.Duration) ([]string, error) {
	return nil, nil
}

func (l *memEventLog) SessionSummary(ctx context.Context, sessionID string) (*domain.SessionSummary, error) {
	return nil, nil
}

func (l *memEventLog) Clear(ctx context.Context, sessionID string) (bool, error) {
	return false, nil
}

var (
	_ domain.IdeaStore     = (*memIdeaStore)(nil)
	_ domain.ArgumentStore = (*memArgumentStore)(nil)
	_ domain.EventLog      = (*memEventLog)(nil)
)

func solidity(v float64) *float64 { return &v }

func matureModel() *domain.CognitiveModel {
	return &domain.CognitiveModel{
		Claim: "LLM-assisted code review reduces defect escape rate in small teams",
		Propositions: []domain.Proposition{
			{ID: "p1", Text: "Reviewers using LLM suggestions find more defects per hour", Solidity: solidity(0.8)},
			{ID: "p2", Text: "Defect escape rate is measurable from production incident logs", Solidity: solidity(0.7)},
		},
	}
}
