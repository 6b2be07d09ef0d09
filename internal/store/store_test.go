package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/api/internal/workshop"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore()

	session := workshop.NewSession("Board")
	_, err := workshop.AddItem(session, "actors", "Admin", "", "")
	require.NoError(t, err)
	require.NoError(t, repo.Put(ctx, session))

	loaded, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session, loaded)

	loaded.Data.Actors[0].Text = "changed"
	again, err := repo.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Admin", again.Data.Actors[0].Text)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope")
	assert.True(t, workshop.IsNotFound(err))
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		session := workshop.NewSession(id)
		session.ID = id
		session.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.Put(ctx, session))
	}

	sessions, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, "c", sessions[0].ID)
	assert.Equal(t, "a", sessions[2].ID)
}

func TestDialectBind(t *testing.T) {
	assert.Equal(t, "SELECT 1 WHERE a=$1 AND b=$2", DialectPostgres.bind("SELECT 1 WHERE a=? AND b=?"))
	assert.Equal(t, "SELECT 1 WHERE a=?", DialectSQLite.bind("SELECT 1 WHERE a=?"))

	dialect, err := ParseDialect(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, dialect)
	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}
