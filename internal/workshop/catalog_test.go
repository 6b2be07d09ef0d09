package workshop

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGuidanceCoversEveryPhase(t *testing.T) {
	catalog := DefaultCatalog()
	for _, phase := range Phases() {
		assert.NotEmpty(t, catalog.Guidance(phase), phase)
	}
	assert.Empty(t, catalog.Guidance(PhaseStart))
	var nilCatalog *Catalog
	assert.Equal(t, catalog.Guidance(PhaseActors), nilCatalog.Guidance(PhaseActors))
}

func TestClassifyIsDeterministicAndExhaustive(t *testing.T) {
	texts := []string{"Slow onboarding", "No notifications", "Weekly metric review", "Coffee"}
	catalog := DefaultCatalog()

	first := catalog.Classify(texts)
	assert.Equal(t, first, catalog.Classify(texts))

	seen := map[int]int{}
	byCategory := map[string][]int{}
	for _, group := range first {
		for _, index := range group.Items {
			seen[index]++
		}
		byCategory[group.Category] = group.Items
	}
	assert.Equal(t, map[int]int{1: 1, 2: 1, 3: 1, 4: 1}, seen)
	assert.Equal(t, []int{1}, byCategory["Processes"])
	assert.Equal(t, []int{2}, byCategory["Communication"])
	assert.Equal(t, []int{3}, byCategory["Analytics"])
	assert.Equal(t, []int{4}, byCategory[OtherCategory])
}

func TestClassifyEmpty(t *testing.T) {
	assert.Empty(t, DefaultCatalog().Classify(nil))
}

func TestLoadCatalogOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	raw := []byte(`
guidance:
  actors: "Who uses it?"
categories:
  - category: Money
    keywords: [" Budget ", "COST"]
other_category: Misc
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "Who uses it?", catalog.Guidance(PhaseActors))
	assert.Equal(t, DefaultCatalog().Guidance(PhaseKPIs), catalog.Guidance(PhaseKPIs))

	groups := catalog.Classify([]string{"Budget overrun", "Slow onboarding"})
	require.Len(t, groups, 2)
	assert.Equal(t, "Money", groups[0].Category)
	assert.Equal(t, "Misc", groups[1].Category)
}

func TestParseCatalogRejectsUnknownPhase(t *testing.T) {
	_, err := ParseCatalog([]byte("guidance:\n  launch: go\n"))
	require.Error(t, err)
	_, err = ParseCatalog([]byte("categories:\n  - keywords: [x]\n"))
	require.Error(t, err)
}
