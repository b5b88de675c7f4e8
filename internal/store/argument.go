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
	pgvector "github.com/pgvector/pgvector-go"
)

type ArgumentStore struct {
	db *pgxpool.Pool
}

func NewArgumentStore(db *pgxpool.Pool) *ArgumentStore {
	return &ArgumentStore{db: db}
}

const argumentColumns = `id, idea_id, claim, proposicoes, open_questions,
	contradictions, solid_grounds, context, version, created_at, updated_at`

// Create inserts a snapshot. A zero Version is assigned MAX+1 for the idea
// inside the insert transaction; the UNIQUE (idea_id, version) constraint
// turns concurrent races into ErrConflict.
func (s *ArgumentStore) Create(ctx context.Context, arg *domain.Argument, claimEmbedding []float32) error {
	if arg.IdeaID == "" {
		return fmt.Errorf("idea_id is required")
	}
	if arg.Claim == "" {
		return fmt.Errorf("claim is required")
	}
	if arg.ID == "" {
		arg.ID = uuid.NewString()
	}

	proposicoes, err := json.Marshal(arg.Propositions)
	if err != nil {
		return fmt.Errorf("marshal proposicoes: %w", err)
	}
	openQuestions, err := json.Marshal(arg.OpenQuestions)
	if err != nil {
		return fmt.Errorf("marshal open_questions: %w", err)
	}
	contradictions, err := json.Marshal(arg.Contradictions)
	if err != nil {
		return fmt.Errorf("marshal contradictions: %w", err)
	}
	solidGrounds, err := json.Marshal(arg.SolidGrounds)
	if err != nil {
		return fmt.Errorf("marshal solid_grounds: %w", err)
	}
	contextJSON, err := json.Marshal(arg.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	var embedding *pgvector.Vector
	if len(claimEmbedding) > 0 {
		v := pgvector.NewVector(claimEmbedding)
		embedding = &v
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create argument: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if arg.Version == 0 {
		err = tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) + 1 FROM arguments WHERE idea_id = $1`,
			arg.IdeaID,
		).Scan(&arg.Version)
		if err != nil {
			return fmt.Errorf("next argument version: %w", err)
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO arguments (
			id, idea_id, claim, proposicoes, open_questions,
			contradictions, solid_grounds, context, claim_embedding, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		arg.ID, arg.IdeaID, arg.Claim, string(proposicoes), string(openQuestions),
		string(contradictions), string(solidGrounds), string(contextJSON),
		embedding, arg.Version,
	).Scan(&arg.CreatedAt, &arg.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err)
	}
	return nil
}

func (s *ArgumentStore) GetByID(ctx context.Context, id string) (*domain.Argument, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+argumentColumns+` FROM arguments WHERE id = $1`, id)

	arg, err := scanArgument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return arg, nil
}

func (s *ArgumentStore) ListByIdea(ctx context.Context, ideaID string, limit int) ([]domain.Argument, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT `+argumentColumns+` FROM arguments
		WHERE idea_id = $1
		ORDER BY version DESC LIMIT $2`,
		ideaID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var args []domain.Argument
	for rows.Next() {
		arg, err := scanArgument(rows)
		if err != nil {
			return nil, err
		}
		args = append(args, *arg)
	}
	return args, rows.Err()
}

func (s *ArgumentStore) LatestByIdea(ctx context.Context, ideaID string) (*domain.Argument, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+argumentColumns+` FROM arguments
		WHERE idea_id = $1
		ORDER BY version DESC LIMIT 1`,
		ideaID,
	)

	arg, err := scanArgument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return arg, nil
}

// FindSimilarClaims searches the latest snapshot of every idea by
// claim-embedding cosine similarity.
func (s *ArgumentStore) FindSimilarClaims(ctx context.Context, embedding []float32, threshold float32, limit int) ([]domain.ArgumentWithScore, error) {
	if limit <= 0 {
		limit = 10
	}

	vec := pgvector.NewVector(embedding)

	rows, err := s.db.Query(ctx,
		`SELECT `+argumentColumns+`, 1 - (claim_embedding <=> $1) AS score
		FROM (
			SELECT DISTINCT ON (idea_id) * FROM arguments
			WHERE claim_embedding IS NOT NULL
			ORDER BY idea_id, version DESC
		) latest
		WHERE 1 - (claim_embedding <=> $1) >= $2
		ORDER BY score DESC
		LIMIT $3`,
		vec, threshold, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("find similar claims query: %w", err)
	}
	defer rows.Close()

	var results []domain.ArgumentWithScore
	for rows.Next() {
		var r domain.ArgumentWithScore
		var proposicoes, openQuestions, contradictions, solidGrounds, contextJSON []byte
		err := rows.Scan(
			&r.ID, &r.IdeaID, &r.Claim, &proposicoes, &openQuestions,
			&contradictions, &solidGrounds, &contextJSON, &r.Version,
			&r.CreatedAt, &r.UpdatedAt, &r.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan similar claim row: %w", err)
		}
		if err := unmarshalArgumentJSON(&r.Argument, proposicoes, openQuestions, contradictions, solidGrounds, contextJSON); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanArgument(row pgx.Row) (*domain.Argument, error) {
	arg := &domain.Argument{}
	var proposicoes, openQuestions, contradictions, solidGrounds, contextJSON []byte

	err := row.Scan(
		&arg.ID, &arg.IdeaID, &arg.Claim, &proposicoes, &openQuestions,
		&contradictions, &solidGrounds, &contextJSON, &arg.Version,
		&arg.CreatedAt, &arg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := unmarshalArgumentJSON(arg, proposicoes, openQuestions, contradictions, solidGrounds, contextJSON); err != nil {
		return nil, err
	}
	return arg, nil
}

func unmarshalArgumentJSON(arg *domain.Argument, proposicoes, openQuestions, contradictions, solidGrounds, contextJSON []byte) error {
	if len(proposicoes) > 0 {
		if err := json.Unmarshal(proposicoes, &arg.Propositions); err != nil {
			return fmt.Errorf("unmarshal proposicoes: %w", err)
		}
	}
	if len(openQuestions) > 0 {
		if err := json.Unmarshal(openQuestions, &arg.OpenQuestions); err != nil {
			return fmt.Errorf("unmarshal open_questions: %w", err)
		}
	}
	if len(contradictions) > 0 {
		if err := json.Unmarshal(contradictions, &arg.Contradictions); err != nil {
			return fmt.Errorf("unmarshal contradictions: %w", err)
		}
	}
	if len(solidGrounds) > 0 {
		if err := json.Unmarshal(solidGrounds, &arg.SolidGrounds); err != nil {
			return fmt.Errorf("unmarshal solid_grounds: %w", err)
		}
	}
	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &arg.Context); err != nil {
			return fmt.Errorf("unmarshal context: %w", err)
		}
	}
	return nil
}

var _ domain.ArgumentStore = (*ArgumentStore)(nil)
