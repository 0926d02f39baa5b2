package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// schemaMu serializes first-run schema creation so two callers bootstrapping
// the same fresh database file cannot interleave table creation.
var schemaMu sync.Mutex

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tickets (
        id           INTEGER PRIMARY KEY AUTOINCREMENT,
        author_id    INTEGER NOT NULL,
        text         TEXT    NOT NULL,
        created_at   INTEGER NOT NULL,
        claimed_by   INTEGER,
        claimed_at   INTEGER,
        reminded_at  INTEGER,
        external_ref TEXT
    )`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_author_created
        ON tickets (author_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_unclaimed
        ON tickets (claimed_by, created_at)`,
	`CREATE TABLE IF NOT EXISTS reviewers (
        user_id INTEGER PRIMARY KEY
    )`,
	`CREATE TABLE IF NOT EXISTS ping_subscribers (
        user_id INTEGER PRIMARY KEY
    )`,
}

// ApplySchema creates the tables and indexes if not already present.
func ApplySchema(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	for i, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}

	logger.Info("schema applied", zap.Int("statements", len(schemaStatements)))
	return nil
}
