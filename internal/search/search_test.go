package search

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/api/internal/store"
	"workshop/api/internal/workshop"
)

func seed(t *testing.T) (*store.MemoryStore, *workshop.Session) {
	t.Helper()
	repo := store.NewMemoryStore()
	session := workshop.NewSession("Retail")
	_, err := workshop.AddItem(session, "problem_framing", "Slow onboarding", "", "ana")
	require.NoError(t, err)
	_, err = workshop.AddItem(session, "problem_framing", "No notifications", "", "ana")
	require.NoError(t, err)
	module, err := workshop.AddItem(session, "modules", "Onboarding portal", "", "")
	require.NoError(t, err)
	_, err = workshop.AddItem(session, "features", "Guided ONBOARDING wizard", module.ID, "")
	require.NoError(t, err)
	require.NoError(t, repo.Put(context.Background(), session))
	return repo, session
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRecordsCoverEveryPhase(t *testing.T) {
	_, session := seed(t)
	records := Records(session)
	require.Len(t, records, 4)
	assert.Equal(t, "problem_framing", records[0].Phase)
	assert.Equal(t, "modules", records[2].Phase)
	assert.Equal(t, "features", records[3].Phase)
	assert.Equal(t, session.Data.Modules[0].ID, records[3].ModuleID)
	assert.Equal(t, "Retail", records[3].BoardName)
}

func TestScannerMatchesCaseInsensitively(t *testing.T) {
	repo, session := seed(t)
	results, total, err := NewScanner(repo).Search(context.Background(), Query{Text: "onboarding"})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, results, 3)
	assert.Equal(t, session.ID, results[0].SessionID)
	assert.Equal(t, "Slow <mark>onboarding</mark>", results[0].Snippet)
	assert.Equal(t, "Guided <mark>ONBOARDING</mark> wizard", results[2].Snippet)
}

func TestScannerFiltersAndLimits(t *testing.T) {
	repo, session := seed(t)
	scanner := NewScanner(repo)
	ctx := context.Background()

	results, total, err := scanner.Search(ctx, Query{Text: "onboarding", Phase: "features"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Guided ONBOARDING wizard", results[0].Text)

	results, total, err = scanner.Search(ctx, Query{Text: "o", SessionID: session.ID, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, results, 2)

	_, _, err = scanner.Search(ctx, Query{Text: "o", SessionID: "ws_missing"})
	assert.True(t, workshop.IsNotFound(err))
}

func TestScannerEmptyQuery(t *testing.T) {
	repo, _ := seed(t)
	results, total, err := NewScanner(repo).Search(context.Background(), Query{Text: "   "})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, results)
}

func TestServiceWithoutMeiliUsesScan(t *testing.T) {
	repo, session := seed(t)
	svc := NewService(nil, NewScanner(repo), quietLogger())

	resp := svc.Search(context.Background(), Query{Text: "notifications"})
	assert.Equal(t, BackendScan, resp.Backend)
	assert.Equal(t, "notifications", resp.Query)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, session.Data.Problems[1].ID, resp.Results[0].ItemID)

	// no-ops without an index
	svc.IndexSession(session)
	svc.DeleteItem(session.Data.Problems[0].ID)
	svc.ReindexAll(context.Background())
}

func TestServiceScanErrorReturnsEmpty(t *testing.T) {
	svc := NewService(nil, NewScanner(store.NewMemoryStore()), quietLogger())
	resp := svc.Search(context.Background(), Query{Text: "x", SessionID: "nope"})
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestHighlightKeepsTextWhenLengthsDiffer(t *testing.T) {
	assert.Equal(t, "İstanbul", highlight("İstanbul", 0, 2))
	assert.Equal(t, "a<mark>b</mark>c", highlight("abc", 1, 1))
}

func TestScannerDefaultLimit(t *testing.T) {
	repo := store.NewMemoryStore()
	session := workshop.NewSession("Bulk")
	for i := 0; i < 25; i++ {
		_, err := workshop.AddItem(session, "actors", fmt.Sprintf("Cashier %d", i), "", "")
		require.NoError(t, err)
	}
	require.NoError(t, repo.Put(context.Background(), session))

	results, total, err := NewScanner(repo).Search(context.Background(), Query{Text: "cashier", Limit: 0})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, results, 20)
	assert.Equal(t, 20, defaultLimit(-1))
	assert.Equal(t, 5, defaultLimit(5))
}
