package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/api/internal/workshop"
)

func TestSQLStorePostgresPut(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	session := workshop.NewSession("Board")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO workshop_sessions (id, board_name, current_phase, document, created_at, updated_at)`)).
		WithArgs(session.ID, "Board", "problem_framing", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSQLStore(db, DialectPostgres)
	require.NoError(t, repo.Put(context.Background(), session))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStorePostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	session := workshop.NewSession("Board")
	_, err = workshop.RecordVote(session, "f1", 4, 2, "p1")
	require.NoError(t, err)
	document, err := json.Marshal(session)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT document FROM workshop_sessions WHERE id=$1`)).
		WithArgs(session.ID).
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(string(document)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT document FROM workshop_sessions WHERE id=$1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"document"}))

	repo := NewSQLStore(db, DialectPostgres)
	loaded, err := repo.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	require.Len(t, loaded.Data.Prioritization, 1)
	assert.Equal(t, workshop.QuadrantQuickWins, loaded.Data.Prioritization[0].Quadrant)

	_, err = repo.Get(context.Background(), "missing")
	assert.True(t, workshop.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyMigrationsSkipsRecordedVersions(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(1) FROM schema_migrations WHERE version=$1`)).
		WithArgs("0001_workshop_sessions.up.sql").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	require.NoError(t, ApplyMigrations(context.Background(), db, DialectPostgres))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationsHaveMatchingUpAndDownFiles(t *testing.T) {
	for _, dialect := range []Dialect{DialectPostgres, DialectSQLite} {
		ups, err := migrationNames(dialect)
		require.NoError(t, err)
		require.NotEmpty(t, ups)
		for _, up := range ups {
			down := up[:len(up)-len(".up.sql")] + ".down.sql"
			_, err := migrationFiles.ReadFile("migrations/" + string(dialect) + "/" + down)
			assert.NoError(t, err, "%s/%s", dialect, down)
		}
	}
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, DialectSQLite, filepath.Join(t.TempDir(), "workshop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, ApplyMigrations(ctx, db, DialectSQLite))
	// second pass is a no-op
	require.NoError(t, ApplyMigrations(ctx, db, DialectSQLite))
	return NewSQLStore(db, DialectSQLite)
}

func TestSQLStoreSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openSQLite(t)

	session := workshop.NewSession("Board")
	_, err := workshop.AddItem(session, "features", "Login", "mod-1", "ana")
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, session))

	_, err = workshop.AddItem(session, "features", "SSO", "mod-1", "ana")
	require.NoError(t, err)
	workshop.Advance(session)
	require.NoError(t, repo.Put(ctx, session))

	loaded, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, workshop.PhaseActors, loaded.CurrentPhase)
	assert.Len(t, loaded.Data.Features["mod-1"], 2)
	assert.True(t, session.UpdatedAt.Equal(loaded.UpdatedAt))

	_, err = repo.Get(ctx, "ws_missing")
	assert.True(t, workshop.IsNotFound(err))
}

func TestSQLStoreSQLiteListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := openSQLite(t)

	first := workshop.NewSession("first")
	second := workshop.NewSession("second")
	second.CreatedAt = first.CreatedAt.Add(1)
	require.NoError(t, repo.Put(ctx, first))
	require.NoError(t, repo.Put(ctx, second))

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "second", sessions[0].BoardName)
	assert.Equal(t, "first", sessions[1].BoardName)
}
