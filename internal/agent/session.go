package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ideialab/maieutica/internal/domain"
	"github.com/ideialab/maieutica/internal/store"
	"go.uber.org/zap"
)

const sessionTitleLimit = 80

// SessionInfo is a thread listing entry.
type SessionInfo struct {
	SessionID string    `json:"session_id"`
	Title     string    `json:"title"`
	Stage     string    `json:"stage"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Coordinator owns the session lifecycle: id generation, session events
// and dispatch into the graph. Session ids double as checkpoint thread ids.
type Coordinator struct {
	graph       *Graph
	checkpoints domain.CheckpointStore
	events      domain.EventLog
	logger      *zap.Logger

	mu      sync.Mutex
	lastSec string
	seq     int
}

func NewCoordinator(graph *Graph, checkpoints domain.CheckpointStore, events domain.EventLog, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		graph:       graph,
		checkpoints: checkpoints,
		events:      events,
		logger:      logger,
	}
}

// Start opens a new session with the researcher's first message. ideaID
// may be empty; when set, mature models snapshot into that idea.
func (c *Coordinator) Start(ctx context.Context, userInput, ideaID string) (*domain.ConversationState, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return nil, fmt.Errorf("user input is required")
	}

	sessionID := c.newSessionID()
	e := domain.NewEvent(sessionID, domain.EventSessionStarted)
	e.Metadata = map[string]any{"user_input": userInput}
	publishEvent(ctx, c.events, c.logger, e)

	state := domain.NewConversationState(userInput, sessionID)
	state.ActiveIdeaID = ideaID

	state, err := c.graph.Invoke(ctx, sessionID, state)
	if err != nil {
		return state, err
	}
	c.completeIfDone(ctx, state)
	return state, nil
}

// Message continues an existing session. A missing checkpoint starts the
// thread over under the same session id instead of failing the researcher.
func (c *Coordinator) Message(ctx context.Context, sessionID, message string) (*domain.ConversationState, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	state, err := c.graph.Resume(ctx, sessionID, message)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		c.logger.Warn("checkpoint missing, restarting thread",
			zap.String("session_id", sessionID))

		e := domain.NewEvent(sessionID, domain.EventSessionStarted)
		e.Metadata = map[string]any{"user_input": message, "restarted": true}
		publishEvent(ctx, c.events, c.logger, e)

		fresh := domain.NewConversationState(message, sessionID)
		state, err = c.graph.Invoke(ctx, sessionID, fresh)
		if err != nil {
			return state, err
		}
	}
	c.completeIfDone(ctx, state)
	return state, nil
}

// State returns the latest checkpointed state of a session.
func (c *Coordinator) State(ctx context.Context, sessionID string) (*domain.ConversationState, error) {
	return c.graph.GetState(ctx, sessionID)
}

// ListSessions lists checkpointed threads, titled by their first user
// message.
func (c *Coordinator) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	threads, err := c.checkpoints.ListThreads(ctx, limit)
	if err != nil {
		return nil, err
	}

	infos := make([]SessionInfo, 0, len(threads))
	for _, t := range threads {
		info := SessionInfo{SessionID: t.ThreadID, UpdatedAt: t.UpdatedAt}
		state, err := c.checkpoints.Load(ctx, t.ThreadID)
		if err != nil {
			c.logger.Warn("thread listed but unloadable",
				zap.String("thread_id", t.ThreadID), zap.Error(err))
			infos = append(infos, info)
			continue
		}
		info.Stage = string(state.CurrentStage)
		info.Title = sessionTitle(state)
		infos = append(infos, info)
	}
	return infos, nil
}

func (c *Coordinator) completeIfDone(ctx context.Context, state *domain.ConversationState) {
	if state == nil || state.CurrentStage != domain.StageDone {
		return
	}
	e := domain.NewEvent(state.SessionID, domain.EventSessionCompleted)
	e.Metadata = map[string]any{"final_status": string(state.CurrentStage)}
	publishEvent(ctx, c.events, c.logger, e)
}

// newSessionID yields session-YYYYMMDD-HHMMSS-NNN, with NNN disambiguating
// sessions started within the same second.
func (c *Coordinator) newSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	sec := time.Now().UTC().Format("20060102-150405")
	if sec == c.lastSec {
		c.seq++
	} else {
		c.lastSec = sec
		c.seq = 1
	}
	return fmt.Sprintf("session-%s-%03d", sec, c.seq)
}

func sessionTitle(state *domain.ConversationState) string {
	for _, m := range state.Messages {
		if m.Role == domain.RoleUser {
			title := []rune(strings.TrimSpace(m.Content))
			if len(title) > sessionTitleLimit {
				return string(title[:sessionTitleLimit]) + "…"
			}
			return string(title)
		}
	}
	return "(empty session)"
}
