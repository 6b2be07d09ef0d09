package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/api/internal/config"
	"workshop/api/internal/workshop"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"serve", "mcp", "migrate"} {
		assert.True(t, names[want], "missing %s", want)
	}
}

func TestOpenRepositoryMemory(t *testing.T) {
	repo, closeFn, err := openRepository(context.Background(), config.Config{StoreDriver: "memory"}, quietLogger())
	require.NoError(t, err)
	defer closeFn()

	session := workshop.NewSession("Board")
	require.NoError(t, repo.Put(context.Background(), session))
	loaded, err := repo.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Board", loaded.BoardName)
}

func TestOpenRepositorySQLiteAppliesMigrations(t *testing.T) {
	cfg := config.Config{
		StoreDriver: "sqlite",
		SQLitePath:  filepath.Join(t.TempDir(), "workshop.db"),
	}
	repo, closeFn, err := openRepository(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer closeFn()

	sessions, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestOpenRepositoryUnknownDriver(t *testing.T) {
	_, _, err := openRepository(context.Background(), config.Config{StoreDriver: "mongo"}, quietLogger())
	assert.Error(t, err)
}
