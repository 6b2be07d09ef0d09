package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/api/internal/workshop"
)

func TestRecordAndHistory(t *testing.T) {
	svc := New(t.TempDir())
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	session := workshop.NewSession("Board")
	first, err := svc.Record(session, "Ana María", "create session")
	require.NoError(t, err)
	assert.Len(t, first.Hash, 7)
	assert.Equal(t, "Ana María", first.Author)

	workshop.Advance(session)
	_, err = svc.Record(session, "", "advance problem_framing -> actors")
	require.NoError(t, err)
	_, err = svc.Record(session, "", "advance clamped")
	require.NoError(t, err)

	entries, err := svc.History(session.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "advance clamped", entries[0].Message)
	assert.Equal(t, "facilitator", entries[0].Author)
	assert.Equal(t, "create session", entries[2].Message)

	limited, err := svc.History(session.ID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	old, err := svc.Snapshot(session.ID, first.Hash)
	require.NoError(t, err)
	assert.Equal(t, workshop.PhaseProblemFraming, old.CurrentPhase)

	latest, err := svc.Snapshot(session.ID, entries[0].Hash)
	require.NoError(t, err)
	assert.Equal(t, workshop.PhaseActors, latest.CurrentPhase)
}

func TestHistoryOfUnknownSessionIsEmpty(t *testing.T) {
	svc := New(t.TempDir())
	entries, err := svc.History("ws_unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = svc.Snapshot("ws_unknown", "abc1234")
	assert.True(t, workshop.IsNotFound(err))
	assert.Equal(t, 0, svc.locks.Len())
}

func TestRepoPathStaysInBaseDir(t *testing.T) {
	svc := New("/data/history")
	assert.Equal(t, "/data/history/ws_1", svc.repoPath("ws_1"))
	assert.Equal(t, "/data/history/passwd", svc.repoPath("../../etc/passwd"))
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "Ana.Mara", sanitizeEmail("Ana María"))
	assert.Equal(t, "participant", sanitizeEmail("ñ"))
}
