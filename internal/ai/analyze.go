package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"workshop/api/internal/workshop"
)

// Analyze asks the model whether text is a clear, specific item of kind.
func (g *GeminiGrouper) Analyze(ctx context.Context, text, kind string) (workshop.Analysis, error) {
	out, err := g.generator.Generate(ctx, g.model, BuildAnalysisPrompt(text, kind))
	if err != nil {
		return workshop.Analysis{}, fmt.Errorf("generate analysis: %w", err)
	}
	return ParseAnalysis(out)
}

func BuildAnalysisPrompt(text, kind string) string {
	return fmt.Sprintf(`As a product design expert, review this %s from a workshop:

"%s"

Report:
1. Whether it is clear and specific
2. Suggestions to improve it, if any
3. Related items that may be missing

Answer ONLY with valid JSON:
{
  "isValid": true,
  "clarity": "high|medium|low",
  "suggestions": ["suggestion 1"],
  "relatedItems": ["related item 1"]
}`, kind, text)
}

// ParseAnalysis extracts the analysis document from model output. Missing
// fields default to the neutral answer; an unknown clarity becomes medium.
func ParseAnalysis(text string) (workshop.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return workshop.Analysis{}, errors.New("no JSON object in model response")
	}
	document := text[start : end+1]
	if !gjson.Valid(document) {
		return workshop.Analysis{}, errors.New("invalid JSON in model response")
	}

	analysis := workshop.Analysis{
		IsValid:      true,
		Clarity:      workshop.ClarityMedium,
		Suggestions:  stringList(gjson.Get(document, "suggestions")),
		RelatedItems: stringList(gjson.Get(document, "relatedItems")),
	}
	if valid := gjson.Get(document, "isValid"); valid.IsBool() {
		analysis.IsValid = valid.Bool()
	}
	switch strings.ToLower(strings.TrimSpace(gjson.Get(document, "clarity").String())) {
	case "high", "alta":
		analysis.Clarity = workshop.ClarityHigh
	case "low", "baja":
		analysis.Clarity = workshop.ClarityLow
	}
	return analysis, nil
}

func stringList(value gjson.Result) []string {
	out := []string{}
	value.ForEach(func(_, entry gjson.Result) bool {
		if entry.Type == gjson.String {
			if s := strings.TrimSpace(entry.String()); s != "" {
				out = append(out, s)
			}
		}
		return true
	})
	return out
}
