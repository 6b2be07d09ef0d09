package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/api/internal/workshop"
)

type fakeGenerator struct {
	text   string
	err    error
	model  string
	prompt string
}

func (f *fakeGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	f.model = model
	f.prompt = prompt
	return f.text, f.err
}

func TestGroupParsesFencedResponse(t *testing.T) {
	gen := &fakeGenerator{text: "Here you go:\n```json\n" + `{
  "groups": [
    {"category": "Onboarding", "items": [1], "description": "First use"},
    {"category": "Messaging", "items": [2, "x", 3]},
    {"category": "", "items": [4]}
  ]
}` + "\n```"}
	grouper := NewGrouper(gen, "")

	groups, err := grouper.Group(context.Background(), []string{"Slow onboarding", "No notifications", "No email"}, "problems")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, gen.model)
	assert.Equal(t, []workshop.RawGroup{
		{Category: "Onboarding", Items: []int{1}, Description: "First use"},
		{Category: "Messaging", Items: []int{2, 3}, Description: ""},
	}, groups)
	assert.Contains(t, gen.prompt, "1. Slow onboarding\n2. No notifications\n3. No email\n")
	assert.Contains(t, gen.prompt, "problems")
}

func TestGroupPropagatesGeneratorError(t *testing.T) {
	grouper := NewGrouper(&fakeGenerator{err: errors.New("quota")}, "gemini-x")
	_, err := grouper.Group(context.Background(), []string{"a"}, "")
	assert.ErrorContains(t, err, "quota")
}

func TestParseGroupsRejectsGarbage(t *testing.T) {
	for _, text := range []string{"", "sorry", "{not json}", `{"categories": []}`} {
		_, err := ParseGroups(text)
		assert.Error(t, err, text)
	}
}

func TestNewGeminiGrouperRequiresKey(t *testing.T) {
	_, err := NewGeminiGrouper(context.Background(), " ", "")
	assert.Error(t, err)
}

func TestAnalyzeParsesResponse(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + `{
  "isValid": false,
  "clarity": "baja",
  "suggestions": ["Name the user", "", 3],
  "relatedItems": ["Password reset"]
}` + "\n```"}
	analysis, err := NewGrouper(gen, "").Analyze(context.Background(), "Login is bad", "problem")
	require.NoError(t, err)
	assert.False(t, analysis.IsValid)
	assert.Equal(t, workshop.ClarityLow, analysis.Clarity)
	assert.Equal(t, []string{"Name the user"}, analysis.Suggestions)
	assert.Equal(t, []string{"Password reset"}, analysis.RelatedItems)
	assert.False(t, analysis.Fallback)
	assert.Contains(t, gen.prompt, "review this problem")
	assert.Contains(t, gen.prompt, `"Login is bad"`)
}

func TestParseAnalysisDefaults(t *testing.T) {
	analysis, err := ParseAnalysis(`{"clarity": "crystal"}`)
	require.NoError(t, err)
	assert.True(t, analysis.IsValid)
	assert.Equal(t, workshop.ClarityMedium, analysis.Clarity)
	assert.Empty(t, analysis.Suggestions)
	assert.NotNil(t, analysis.RelatedItems)

	_, err = ParseAnalysis("no json here")
	assert.Error(t, err)
}
