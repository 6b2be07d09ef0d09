package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Options{Level: "debug", Format: "json", Output: &buf})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("session_id", "ws_1").Info("created")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "created", entry["message"])
	assert.Equal(t, "ws_1", entry["session_id"])
}

func TestNewFallsBackToInfo(t *testing.T) {
	logger := New(Options{Level: "loud", Output: &bytes.Buffer{}})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.log")
	logger := New(Options{File: path, Output: &bytes.Buffer{}})
	logger.Info("hello")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "hello")
}
