package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ideialab/maieutica/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type IdeaStore struct {
	db *pgxpool.Pool
}

func NewIdeaStore(db *pgxpool.Pool) *IdeaStore {
	return &IdeaStore{db: db}
}

func (s *IdeaStore) Create(ctx context.Context, idea *domain.Idea) error {
	if idea.ID == "" {
		idea.ID = uuid.NewString()
	}
	if idea.Status == "" {
		idea.Status = domain.IdeaStatusExploring
	}
	if !domain.ValidIdeaStatus(string(idea.Status)) {
		return fmt.Errorf("invalid idea status %q", idea.Status)
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO ideas (id, title, status, thread_id)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		idea.ID, idea.Title, idea.Status, idea.ThreadID,
	).Scan(&idea.CreatedAt, &idea.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (s *IdeaStore) GetByID(ctx context.Context, id string) (*domain.Idea, error) {
	idea := &domain.Idea{}
	err := s.db.QueryRow(ctx,
		`SELECT id, title, status, current_argument_id, thread_id, created_at, updated_at
		FROM ideas WHERE id = $1`,
		id,
	).Scan(&idea.ID, &idea.Title, &idea.Status, &idea.CurrentArgumentID,
		&idea.ThreadID, &idea.CreatedAt, &idea.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return idea, nil
}

// Update applies the non-nil fields and reports whether a row matched.
func (s *IdeaStore) Update(ctx context.Context, id string, upd domain.IdeaUpdate) (bool, error) {
	if upd.Empty() {
		// Nothing to set; treat as a touch so updated_at still advances.
		tag, err := s.db.Exec(ctx, `UPDATE ideas SET id = id WHERE id = $1`, id)
		if err != nil {
			return false, mapPgError(err)
		}
		return tag.RowsAffected() > 0, nil
	}

	if upd.Status != nil && !domain.ValidIdeaStatus(string(*upd.Status)) {
		return false, fmt.Errorf("invalid idea status %q", *upd.Status)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE ideas SET
			title               = COALESCE($2, title),
			status              = COALESCE($3, status),
			thread_id           = COALESCE($4, thread_id),
			current_argument_id = COALESCE($5, current_argument_id)
		WHERE id = $1`,
		id, upd.Title, upd.Status, upd.ThreadID, upd.CurrentArgumentID,
	)
	if err != nil {
		return false, mapPgError(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *IdeaStore) List(ctx context.Context, status *domain.IdeaStatus, limit int) ([]domain.Idea, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error
	if status != nil {
		rows, err = s.db.Query(ctx,
			`SELECT id, title, status, current_argument_id, thread_id, created_at, updated_at
			FROM ideas WHERE status = $1
			ORDER BY updated_at DESC LIMIT $2`,
			*status, limit,
		)
	} else {
		rows, err = s.db.Query(ctx,
			`SELECT id, title, status, current_argument_id, thread_id, created_at, updated_at
			FROM ideas
			ORDER BY updated_at DESC LIMIT $1`,
			limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ideas []domain.Idea
	for rows.Next() {
		var idea domain.Idea
		if err := rows.Scan(&idea.ID, &idea.Title, &idea.Status, &idea.CurrentArgumentID,
			&idea.ThreadID, &idea.CreatedAt, &idea.UpdatedAt); err != nil {
			return nil, err
		}
		ideas = append(ideas, idea)
	}
	return ideas, rows.Err()
}

var _ domain.IdeaStore = (*IdeaStore)(nil)
