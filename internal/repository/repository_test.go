package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/L235/OversightBot/internal/config"
	"github.com/L235/OversightBot/internal/persistence"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "oversight.sqlite")}
	store, err := persistence.NewSQLite(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, persistence.ApplySchema(context.Background(), store.Handle(), zap.NewNop()))
	return store.Handle()
}
