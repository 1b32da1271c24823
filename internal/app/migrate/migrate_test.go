package migrate_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnzoTheBrown/bribe/internal/app/migrate"
	"github.com/EnzoTheBrown/bribe/internal/repository/sqlite"
)

func TestRunnerLifecycle(t *testing.T) {
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	runner, err := migrate.New(db, migrate.DialectSQLite, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	ctx := context.Background()

	statuses, err := runner.Status(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	assert.Equal(t, goose.StatePending, statuses[0].State)

	require.NoError(t, runner.Ensure(ctx))
	require.NoError(t, runner.Ensure(ctx), "ensure must be idempotent")

	statuses, err = runner.Status(ctx)
	require.NoError(t, err)
	for _, st := range statuses {
		assert.Equal(t, goose.StateApplied, st.State)
	}

	require.NoError(t, runner.Down(ctx, 0))
	statuses, err = runner.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, goose.StatePending, statuses[0].State)
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := migrate.New(nil, migrate.DialectSQLite, nil)
	assert.Error(t, err)

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "dialect.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrate.New(db, "mysql", nil)
	assert.Error(t, err)
}
