// internal/workers/restaurant-search/record-search/schema.go
package recordsearch

import "context"

const createSearchLogTable = `CREATE TABLE IF NOT EXISTS search_log (
	id           UUID PRIMARY KEY,
	message      TEXT NOT NULL,
	params       JSONB NOT NULL DEFAULT '{}'::jsonb,
	result_count INTEGER NOT NULL DEFAULT 0,
	status       VARCHAR(16) NOT NULL,
	error_code   VARCHAR(64),
	duration_ms  BIGINT NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createSearchLogIndex = `CREATE INDEX IF NOT EXISTS idx_search_log_created_at ON search_log (created_at DESC)`

const insertSearchLog = `INSERT INTO search_log
	(id, message, params, result_count, status, error_code, duration_ms, created_at)
	VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`

// Migrator is satisfied by database.PostgresClient.
type Migrator interface {
	Migrate(ctx context.Context, statements ...string) error
}

// EnsureSchema creates the search_log table and its index when missing.
func EnsureSchema(ctx context.Context, db Migrator) error {
	return db.Migrate(ctx, createSearchLogTable, createSearchLogIndex)
}
