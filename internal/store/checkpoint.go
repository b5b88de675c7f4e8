package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ideialab/maieutica/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheckpointStore persists conversation state snapshots keyed by
// (thread_id, checkpoint_id). State is stored as canonical JSON so a load
// in another process reconstructs the exact same value.
type CheckpointStore struct {
	db *pgxpool.Pool
}

func NewCheckpointStore(db *pgxpool.Pool) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) Save(ctx context.Context, threadID string, state *domain.ConversationState) (string, error) {
	if threadID == "" {
		return "", fmt.Errorf("thread_id is required")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal conversation state: %w", err)
	}

	checkpointID := uuid.NewString()
	_, err = s.db.Exec(ctx,
		`INSERT INTO checkpoints (thread_id, checkpoint_id, state) VALUES ($1, $2, $3)`,
		threadID, checkpointID, string(data),
	)
	if err != nil {
		return "", mapPgError(err)
	}
	return checkpointID, nil
}

func (s *CheckpointStore) Load(ctx context.Context, threadID string) (*domain.ConversationState, error) {
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT state FROM checkpoints WHERE thread_id = $1 ORDER BY seq DESC LIMIT 1`,
		threadID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var state domain.ConversationState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshal conversation state: %w", err)
	}
	return &state, nil
}

func (s *CheckpointStore) ListThreads(ctx context.Context, limit int) ([]domain.ThreadInfo, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		`SELECT thread_id, checkpoint_id, created_at FROM (
			SELECT DISTINCT ON (thread_id) thread_id, checkpoint_id, created_at, seq
			FROM checkpoints
			ORDER BY thread_id, seq DESC
		) latest
		ORDER BY created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []domain.ThreadInfo
	for rows.Next() {
		var t domain.ThreadInfo
		if err := rows.Scan(&t.ThreadID, &t.LastCheckpointID, &t.UpdatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

var _ domain.CheckpointStore = (*CheckpointStore)(nil)
