package workshop

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupPhase(t *testing.T, session *Session, phase string, grouper Grouper, fallback bool) ([]GroupView, bool, error) {
	t.Helper()
	plan, err := PlanGrouping(session, phase, nil)
	if err != nil {
		return nil, false, err
	}
	raw, used, err := RunGrouping(context.Background(), plan, grouper, nil, fallback)
	if err != nil {
		return nil, false, err
	}
	return CommitGrouping(session, plan, raw), used, nil
}

func coveredTexts(groups []GroupView) map[string]int {
	out := map[string]int{}
	for _, group := range groups {
		for _, item := range group.Items {
			out[item.Text]++
		}
	}
	return out
}

func TestGroupPhaseEndToEnd(t *testing.T) {
	session := NewSession("Board")
	for _, text := range []string{"Slow onboarding", "No notifications"} {
		_, err := AddItem(session, "problem_framing", text, "", "")
		require.NoError(t, err)
	}

	var gotContext string
	grouper := GrouperFunc(func(_ context.Context, items []string, phaseContext string) ([]RawGroup, error) {
		gotContext = phaseContext
		require.Equal(t, []string{"Slow onboarding", "No notifications"}, items)
		return []RawGroup{
			{Category: "Experience", Items: []int{1}, Description: "first use"},
			{Category: "Messaging", Items: []int{2}},
		}, nil
	})

	groups, used, err := groupPhase(t, session, "problem_framing", grouper, false)
	require.NoError(t, err)
	assert.False(t, used)
	assert.Equal(t, DefaultCatalog().Guidance(PhaseProblemFraming), gotContext)
	assert.Equal(t, map[string]int{"Slow onboarding": 1, "No notifications": 1}, coveredTexts(groups))
	assert.Equal(t, Position{X: 100, Y: 100}, groups[0].Position)
	assert.Equal(t, Position{X: 450, Y: 100}, groups[1].Position)
}

func TestGroupPhaseFallbackCoversEveryItem(t *testing.T) {
	session := NewSession("Board")
	for _, text := range []string{"Slow onboarding", "No notifications"} {
		_, _ = AddItem(session, "problem_framing", text, "", "")
	}
	failing := GrouperFunc(func(context.Context, []string, string) ([]RawGroup, error) {
		return nil, errors.New("upstream down")
	})

	groups, used, err := groupPhase(t, session, "problem_framing", failing, true)
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, map[string]int{"Slow onboarding": 1, "No notifications": 1}, coveredTexts(groups))
}

func TestGroupPhaseWithoutFallbackSurfacesError(t *testing.T) {
	session := NewSession("Board")
	_, _ = AddItem(session, "actors", "Admin", "", "")
	failing := GrouperFunc(func(context.Context, []string, string) ([]RawGroup, error) {
		return nil, context.DeadlineExceeded
	})

	_, _, err := groupPhase(t, session, "actors", failing, false)
	var unavailable *GroupingUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, session.Groups.Actors)
}

func TestGroupPhaseEmptySkipsGrouper(t *testing.T) {
	session := NewSession("Board")
	called := false
	grouper := GrouperFunc(func(context.Context, []string, string) ([]RawGroup, error) {
		called = true
		return nil, nil
	})
	groups, used, err := groupPhase(t, session, "kpis", grouper, false)
	require.NoError(t, err)
	assert.False(t, called)
	assert.False(t, used)
	assert.Empty(t, groups)
}

func TestGroupPhaseRejectsUngroupedPhases(t *testing.T) {
	session := NewSession("Board")
	for _, phase := range []string{"features", "prioritization", "complete", "bogus"} {
		_, err := PlanGrouping(session, phase, nil)
		assert.True(t, IsValidation(err), phase)
	}
}

func TestGroupPhaseIsIdempotent(t *testing.T) {
	session := NewSession("Board")
	for _, text := range []string{"Data silos", "Slow reports", "Access control", "Unclear ownership"} {
		_, _ = AddItem(session, "problem_framing", text, "", "")
	}
	first, _, err := groupPhase(t, session, "problem_framing", nil, true)
	require.NoError(t, err)
	second, _, err := groupPhase(t, session, "problem_framing", nil, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, session.Groups.Problems, len(second))
}

func TestCommitGroupingDropsBadIndexes(t *testing.T) {
	session := NewSession("Board")
	for _, text := range []string{"a", "b", "c"} {
		_, _ = AddItem(session, "modules", text, "", "")
	}
	plan, err := PlanGrouping(session, "modules", nil)
	require.NoError(t, err)

	groups := CommitGrouping(session, plan, []RawGroup{
		{Category: "One", Items: []int{1, 1, 9, 0, -2}},
		{Category: "Two", Items: []int{1, 2}},
		{Category: "Empty", Items: []int{42}},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, []string{"a"}, texts(groups[0].Items))
	assert.Equal(t, []string{"b"}, texts(groups[1].Items))
	assert.Equal(t, []string{"c"}, texts(session.Ungrouped(PhaseModules)))
}

func TestCommitGroupingSkipsItemsDeletedDuringCall(t *testing.T) {
	session := NewSession("Board")
	first, _ := AddItem(session, "kpis", "Retention", "", "")
	_, _ = AddItem(session, "kpis", "Revenue", "", "")
	plan, err := PlanGrouping(session, "kpis", nil)
	require.NoError(t, err)

	require.NoError(t, DeleteItem(session, "kpis", first.ID, ""))
	groups := CommitGrouping(session, plan, []RawGroup{{Category: "Business", Items: []int{1, 2}}})
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"Revenue"}, texts(groups[0].Items))
}

func TestGroupPolicyEditPropagatesDeleteClears(t *testing.T) {
	session := NewSession("Board")
	item, _ := AddItem(session, "actors", "Admin", "", "")
	_, _ = AddItem(session, "actors", "Guest", "", "")
	_, _, err := groupPhase(t, session, "actors", nil, true)
	require.NoError(t, err)

	_, err = EditItem(session, "actors", item.ID, "Administrator", "")
	require.NoError(t, err)
	groups := session.ResolveGroups(PhaseActors)
	assert.Contains(t, coveredTexts(groups), "Administrator")

	added, _ := AddItem(session, "actors", "Auditor", "", "")
	assert.NotEmpty(t, session.ResolveGroups(PhaseActors))
	assert.Equal(t, []string{added.Text}, texts(session.Ungrouped(PhaseActors)))

	require.NoError(t, DeleteItem(session, "actors", item.ID, ""))
	assert.Empty(t, session.ResolveGroups(PhaseActors))
}

func TestGridPosition(t *testing.T) {
	assert.Equal(t, Position{X: 100, Y: 100}, GridPosition(0))
	assert.Equal(t, Position{X: 800, Y: 100}, GridPosition(2))
	assert.Equal(t, Position{X: 100, Y: 500}, GridPosition(3))
	assert.Equal(t, Position{X: 450, Y: 900}, GridPosition(7))
}

func texts(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Text
	}
	return out
}
