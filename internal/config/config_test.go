package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":8787", cfg.Addr)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 20*time.Second, cfg.GroupingTimeout)
	assert.True(t, cfg.GroupingFallback)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,127.0.0.1")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.TrustedProxies)
}

func TestLoadReadsEnvFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_DRIVER=Memory\nGROUPING_TIMEOUT=5s\n"), 0o600))
	t.Setenv("API_ADDR", ":9999")
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("GROUPING_TIMEOUT")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.GroupingTimeout)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
