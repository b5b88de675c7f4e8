package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/store"
)

// In-memory checkpoint store and event log for agent tests.

type memCheckpointStore struct {
	saves   map[string][]string
	saveErr error
	nextID  int
}

func newMemCheckpointStore() *memCheckpointStore {
	return &memCheckpointStore{saves: make(map[string][]string)}
}

func (s *memCheckpointStore) Save(ctx context.Context, threadID string, state *domain.ConversationState) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	s.saves[threadID] = append(s.saves[threadID], string(data))
	s.nextID++
	return fmt.Sprintf("ckpt-%d", s.nextID), nil
}

func (s *memCheckpointStore) Load(ctx context.Context, threadID string) (*domain.ConversationState, error) {
	versions := s.saves[threadID]
	if len(versions) == 0 {
		return nil, store.ErrNotFound
	}
	var state domain.ConversationState
	if err := json.Unmarshal([]byte(versions[len(versions)-1]), &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *memCheckpointStore) ListThreads(ctx context.Context, limit int) ([]domain.ThreadInfo, error) {
	var out []domain.ThreadInfo
	for id := range s.saves {
		out = append(out, domain.ThreadInfo{ThreadID: id, UpdatedAt: time.Now().UTC()})
		if len(out) == limit {
			break
		}
	}
	return out, nil
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

func (l *memEventLog) types() []domain.EventType {
	out := make([]domain.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.EventType
	}
	return out
}

var (
	_ domain.CheckpointStore = (*memCheckpointStore)(nil)
	_ domain.EventLog        = (*memEventLog)(nil)
)

// orchestratorReply renders a full well-formed orchestrator payload.
func orchestratorReply(nextStep, agent string) string {
	suggestion := "null"
	if agent != "" {
		suggestion = fmt.Sprintf(`{"agent": %q, "justification": "argumento pronto para estruturar"}`, agent)
	}
	return fmt.Sprintf(`{
		"reasoning": "A população do estudo ainda não foi definida.",
		"message": "E qual seria a população desse estudo?",
		"cognitive_model": {
			"claim": "LLM-assisted code review reduces defect escape rate in small teams",
			"proposicoes": [
				{"id": "p1", "texto": "Reviewers find more defects per hour", "solidez": 0.8},
				{"id": "p2", "texto": "Escape rate is measurable from incident logs", "solidez": 0.7}
			],
			"open_questions": [],
			"contradictions": [],
			"solid_grounds": []
		},
		"focal_argument": {
			"intent": "test_hypothesis",
			"subject": "LLM-assisted code review",
			"population": "small teams",
			"metrics": "defect escape rate",
			"article_type": "empirical study"
		},
		"next_step": %q,
		"agent_suggestion": %s
	}`, nextStep, suggestion)
}
