package workshop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionStartsAtProblemFraming(t *testing.T) {
	session := NewSession("  ")
	assert.Equal(t, PhaseProblemFraming, session.CurrentPhase)
	assert.Equal(t, "Workshop", session.BoardName)
	assert.NotEmpty(t, session.ID)
	assert.NotNil(t, session.Data.Features)
	assert.NotNil(t, session.Groups.Modules)
}

func TestAdvanceWalksTheFixedOrder(t *testing.T) {
	session := NewSession("Board")
	var visited []Phase
	for i := 0; i < 6; i++ {
		tr := Advance(session)
		require.True(t, tr.Changed)
		visited = append(visited, tr.To)
	}
	assert.Equal(t, []Phase{PhaseActors, PhaseKPIs, PhaseModules, PhaseFeatures, PhasePrioritization, PhaseComplete}, visited)

	tr := Advance(session)
	assert.False(t, tr.Changed)
	assert.True(t, tr.Clamped)
	assert.Equal(t, PhaseComplete, session.CurrentPhase)
}

func TestAdvanceFromStart(t *testing.T) {
	session := NewSession("Board")
	session.CurrentPhase = PhaseStart
	tr := Advance(session)
	assert.Equal(t, PhaseProblemFraming, tr.To)
}

func TestRetreatAndJump(t *testing.T) {
	session := NewSession("Board")

	tr, err := JumpTo(session, "features")
	require.NoError(t, err)
	assert.True(t, tr.Changed)
	Retreat(session)
	assert.Equal(t, PhaseModules, session.CurrentPhase)

	_, err = JumpTo(session, "prioritization")
	require.NoError(t, err)
	Retreat(session)
	Retreat(session)
	assert.Equal(t, PhaseModules, session.CurrentPhase)

	for session.CurrentPhase != PhaseProblemFraming {
		Retreat(session)
	}
	before := session.UpdatedAt
	tr = Retreat(session)
	assert.False(t, tr.Changed)
	assert.Equal(t, PhaseProblemFraming, session.CurrentPhase)
	assert.Equal(t, before, session.UpdatedAt)
}

func TestJumpToRejectsUnknownAndStart(t *testing.T) {
	session := NewSession("Board")
	for _, target := range []string{"start", "launch", ""} {
		_, err := JumpTo(session, target)
		require.Error(t, err, target)
		assert.True(t, IsValidation(err), target)
	}
	assert.Equal(t, PhaseProblemFraming, session.CurrentPhase)
}

func TestParsePhaseNormalizes(t *testing.T) {
	phase, ok := ParsePhase("  KPIs ")
	require.True(t, ok)
	assert.Equal(t, PhaseKPIs, phase)
	assert.Len(t, Phases(), 7)
	assert.True(t, PhaseModules.Grouped())
	assert.False(t, PhaseFeatures.Grouped())
	assert.True(t, PhaseFeatures.HoldsItems())
	assert.False(t, PhasePrioritization.HoldsItems())
}
