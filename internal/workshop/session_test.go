package workshop

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportRecomputesDerivedFields(t *testing.T) {
	raw := `{
		"currentStep": "prioritization",
		"data": {
			"problems": [{"id": "p1", "text": "Slow onboarding"}],
			"prioritization": [{
				"featureId": "f1",
				"quadrant": "avoid",
				"votes": [
					{"participantId": "a", "value": 5, "complexity": 1},
					{"participantId": "b", "value": 4, "complexity": 2},
					{"participantId": "a", "value": 4, "complexity": 1}
				]
			}]
		}
	}`
	var doc ImportDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	session, err := Import("Imported", doc)
	require.NoError(t, err)
	assert.Equal(t, PhasePrioritization, session.CurrentPhase)
	assert.Equal(t, "Imported", session.BoardName)
	require.Len(t, session.Data.Problems, 1)
	assert.NotNil(t, session.Data.Actors)

	feature := session.Data.Prioritization[0]
	require.Len(t, feature.Votes, 2)
	assert.Equal(t, Averages{Value: 4, Complexity: 1.5}, *feature.Averages)
	assert.Equal(t, QuadrantQuickWins, feature.Quadrant)
}

func TestImportAcceptsEmbeddedGroupItems(t *testing.T) {
	raw := `{
		"currentStep": "actors",
		"data": {
			"problems": [
				{"id": "p1", "text": "Slow onboarding"},
				{"id": "p2", "text": "Manual reporting"}
			]
		},
		"groups": {
			"problems": [
				{
					"category": "Processes",
					"description": "Manual work",
					"items": [
						{"id": "p1", "text": "Slow onboarding"},
						{"id": "p2", "text": "Manual reporting"}
					],
					"position": {"x": 100, "y": 100}
				},
				{"category": "Ghost", "items": [{"id": "gone", "text": "Deleted"}]},
				{"category": "Stored", "itemIds": ["p1", "missing"]}
			]
		}
	}`
	var doc ImportDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	session, err := Import("Imported", doc)
	require.NoError(t, err)

	require.Len(t, session.Groups.Problems, 2)
	assert.Equal(t, []string{"p1", "p2"}, session.Groups.Problems[0].ItemIDs)
	assert.Equal(t, "Stored", session.Groups.Problems[1].Category)
	assert.Equal(t, []string{"p1"}, session.Groups.Problems[1].ItemIDs)

	views := session.ResolveGroups(PhaseProblemFraming)
	require.Len(t, views[0].Items, 2)
	assert.Equal(t, "Manual reporting", views[0].Items[1].Text)
	assert.Empty(t, session.Ungrouped(PhaseProblemFraming))

	out, err := json.Marshal(session.Groups.Problems[0])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"itemIds":["p1","p2"]`)
}

func TestImportRejectsBadInput(t *testing.T) {
	_, err := Import("x", ImportDocument{CurrentPhase: "launch"})
	assert.True(t, IsValidation(err))

	_, err = Import("x", ImportDocument{Data: &Data{Prioritization: []PrioritizedFeature{{
		FeatureID: "f",
		Votes:     []Vote{{ParticipantID: "a", Value: 9, Complexity: 1}},
	}}}})
	assert.True(t, IsValidation(err))
}

func TestCloneIsDeep(t *testing.T) {
	session := NewSession("Board")
	_, _ = AddItem(session, "features", "Login", "m1", "")
	_, _ = RecordVote(session, "f1", 3, 3, "p1")
	require.NoError(t, session.SetBoard("board-1", "https://example.test/b"))

	clone := session.Clone()
	clone.Data.Features["m1"][0].Text = "changed"
	clone.Data.Prioritization[0].Averages.Value = 1
	clone.Board.ID = "other"

	assert.Equal(t, "Login", session.Data.Features["m1"][0].Text)
	assert.Equal(t, 3.0, session.Data.Prioritization[0].Averages.Value)
	assert.Equal(t, "board-1", session.Board.ID)
}

func TestSetBoardRequiresID(t *testing.T) {
	session := NewSession("Board")
	assert.True(t, IsValidation(session.SetBoard(" ", "u")))
	assert.Nil(t, session.Board)
}

func TestSummarizeCountsItems(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	t.Cleanup(func() { timeNow = time.Now })

	session := NewSession("Board")
	_, _ = AddItem(session, "problem_framing", "a", "", "")
	_, _ = AddItem(session, "features", "b", "m1", "")
	_, _ = AddItem(session, "features", "c", "m2", "")

	summary := session.Summarize()
	assert.Equal(t, fixed, summary.CreatedAt)
	assert.Equal(t, 1, summary.ItemCounts["problems"])
	assert.Equal(t, 2, summary.ItemCounts["features"])
	assert.Equal(t, 0, summary.ItemCounts["actors"])
}
