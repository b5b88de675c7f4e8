package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// SchemaVersion is recorded in the metadata table on init.
const SchemaVersion = "1"

// Init creates the schema if it does not exist. Safe to call on every boot:
// all statements are idempotent, so opening an already-initialized database
// is a no-op.
//
// The Idea <-> Argument reference cycle is resolved by creating ideas
// without the argument foreign key and attaching it after arguments exists:
// arguments -> ideas is ON DELETE CASCADE, ideas -> arguments is
// ON DELETE SET NULL.
func Init(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS metadata (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS ideas (
			id                  TEXT PRIMARY KEY,
			title               TEXT NOT NULL CHECK (title <> ''),
			status              TEXT NOT NULL DEFAULT 'exploring'
				CHECK (status IN ('exploring', 'structured', 'validated')),
			current_argument_id TEXT NULL,
			thread_id           TEXT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS arguments (
			id              TEXT PRIMARY KEY,
			idea_id         TEXT NOT NULL REFERENCES ideas(id) ON DELETE CASCADE,
			claim           TEXT NOT NULL CHECK (claim <> ''),
			proposicoes     TEXT,
			open_questions  TEXT,
			contradictions  TEXT,
			solid_grounds   TEXT,
			context         TEXT,
			claim_embedding vector(1536) NULL,
			version         INTEGER NOT NULL CHECK (version >= 1),
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (idea_id, version)
		)`,

		`DO $$ BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM pg_constraint WHERE conname = 'ideas_current_argument_fk'
			) THEN
				ALTER TABLE ideas
					ADD CONSTRAINT ideas_current_argument_fk
					FOREIGN KEY (current_argument_id)
					REFERENCES arguments(id) ON DELETE SET NULL;
			END IF;
		END $$`,

		`CREATE TABLE IF NOT EXISTS checkpoints (
			seq           BIGSERIAL,
			thread_id     TEXT NOT NULL,
			checkpoint_id TEXT NOT NULL,
			state         TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (thread_id, checkpoint_id)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_ideas_status ON ideas(status)`,
		`CREATE INDEX IF NOT EXISTS idx_ideas_updated_at ON ideas(updated_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_arguments_idea ON arguments(idea_id)`,
		`CREATE INDEX IF NOT EXISTS idx_arguments_idea_version ON arguments(idea_id, version DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_checkpoints_thread ON checkpoints(thread_id, seq DESC)`,

		`CREATE OR REPLACE FUNCTION set_updated_at() RETURNS TRIGGER AS $$
		BEGIN
			NEW.updated_at = NOW();
			RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,

		`DROP TRIGGER IF EXISTS trg_ideas_updated_at ON ideas`,
		`CREATE TRIGGER trg_ideas_updated_at
			BEFORE UPDATE ON ideas
			FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,

		`DROP TRIGGER IF EXISTS trg_arguments_updated_at ON arguments`,
		`CREATE TRIGGER trg_arguments_updated_at
			BEFORE UPDATE ON arguments
			FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,

		`DROP TRIGGER IF EXISTS trg_metadata_updated_at ON metadata`,
		`CREATE TRIGGER trg_metadata_updated_at
			BEFORE UPDATE ON metadata
			FOR EACH ROW EXECUTE FUNCTION set_updated_at()`,

		`INSERT INTO metadata (key, value) VALUES ('schema_version', '` + SchemaVersion + `')
			ON CONFLICT (key) DO NOTHING`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	logger.Info("database schema ready", zap.String("schema_version", SchemaVersion))
	return nil
}
