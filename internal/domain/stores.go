package domain

import (
	"context"
	"time"
)

type IdeaStore interface {
	Create(ctx context.Context, idea *Idea) error
	GetByID(ctx context.Context, id string) (*Idea, error)
	// Update returns false when no row matched.
	Update(ctx context.Context, id string, upd IdeaUpdate) (bool, error)
	// List returns ideas ordered by updated_at descending, optionally
	// filtered by status.
	List(ctx context.Context, status *IdeaStatus, limit int) ([]Idea, error)
}

type ArgumentStore interface {
	// Create inserts the snapshot. When arg.Version is zero the next
	// contiguous version for the idea is assigned inside the same
	// transaction; a duplicate (idea_id, version) fails with ErrConflict.
	Create(ctx context.Context, arg *Argument, claimEmbedding []float32) error
	GetByID(ctx context.Context, id string) (*Argument, error)
	// ListByIdea returns snapshots ordered by version descending.
	ListByIdea(ctx context.Context, ideaID string, limit int) ([]Argument, error)
	LatestByIdea(ctx context.Context, ideaID string) (*Argument, error)
	// FindSimilarClaims searches latest snapshots by claim-embedding
	// cosine similarity. Arguments without embeddings are invisible here.
	FindSimilarClaims(ctx context.Context, embedding []float32, threshold float32, limit int) ([]ArgumentWithScore, error)
}

// ThreadInfo identifies a checkpointed conversation thread.
type ThreadInfo struct {
	ThreadID         string    `json:"thread_id"`
	LastCheckpointID string    `json:"last_checkpoint_id"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type CheckpointStore interface {
	// Save persists a snapshot of the state and returns its checkpoint id.
	Save(ctx context.Context, threadID string, state *ConversationState) (string, error)
	// Load returns the latest checkpoint for the thread, or ErrNotFound.
	Load(ctx context.Context, threadID string) (*ConversationState, error)
	ListThreads(ctx context.Context, limit int) ([]ThreadInfo, error)
}

type EventLog interface {
	Publish(ctx context.Context, e *Event) error
	SessionEvents(ctx context.Context, sessionID string) ([]Event, error)
	ActiveSessions(ctx context.Context, maxAge time.Duration) ([]string, error)
	SessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error)
	Clear(ctx context.Context, sessionID string) (bool, error)
}

// ChatResult is a reasoning capability's reply plus usage metadata.
type ChatResult struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
}

// ChatClient is the reasoning capability: a chat-completion call over the
// running transcript. Providers surface token usage when the API reports it.
type ChatClient interface {
	Chat(ctx context.Context, messages []Message) (*ChatResult, error)
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// MaturityVerdict is the maturity assessor's decision.
type MaturityVerdict struct {
	IsMature        bool     `json:"is_mature"`
	Confidence      float64  `json:"confidence"`
	Justification   string   `json:"justification"`
	MissingElements []string `json:"missing_elements"`
}
