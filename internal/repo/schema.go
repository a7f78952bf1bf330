package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema — таблицы источника заказов. Идемпотентна.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id              BIGSERIAL PRIMARY KEY,
		title           TEXT        NOT NULL,
		content         TEXT        NOT NULL DEFAULT '',
		worker          TEXT        NOT NULL,
		workflow_status TEXT        NOT NULL DEFAULT 'pending',
		status_message  TEXT,
		priority        INT         NOT NULL DEFAULT 0,
		metadata        JSONB,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS documents_pending_idx
		ON documents (worker, priority DESC, created_at)
		WHERE workflow_status = 'pending'`,
	`CREATE TABLE IF NOT EXISTS reports (
		id         BIGSERIAL PRIMARY KEY,
		worker     TEXT        NOT NULL,
		title      TEXT        NOT NULL,
		content    TEXT        NOT NULL DEFAULT '',
		tags       TEXT[]      NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS reports_worker_idx ON reports (worker, created_at DESC)`,
}

// Migrate создаёт таблицы, если их ещё нет.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
