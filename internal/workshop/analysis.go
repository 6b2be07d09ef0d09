package workshop

import (
	"context"
	"strings"
)

// Clarity levels reported by an item analysis.
const (
	ClarityHigh   = "high"
	ClarityMedium = "medium"
	ClarityLow    = "low"
)

// Analysis is feedback on a single item before it is submitted.
type Analysis struct {
	IsValid      bool     `json:"isValid"`
	Clarity      string   `json:"clarity"`
	Suggestions  []string `json:"suggestions"`
	RelatedItems []string `json:"relatedItems"`
	// Fallback is set when no analyzer answered and the neutral result was
	// returned instead.
	Fallback bool `json:"fallback"`
}

// Analyzer reviews item text. kind names what the item is, such as
// "problem" or "feature".
type Analyzer interface {
	Analyze(ctx context.Context, text, kind string) (Analysis, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, text, kind string) (Analysis, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, text, kind string) (Analysis, error) {
	return f(ctx, text, kind)
}

// NeutralAnalysis is returned when analysis is unavailable.
func NeutralAnalysis() Analysis {
	return Analysis{
		IsValid:      true,
		Clarity:      ClarityMedium,
		Suggestions:  []string{},
		RelatedItems: []string{},
		Fallback:     true,
	}
}

var itemKinds = map[Phase]string{
	PhaseProblemFraming: "problem",
	PhaseActors:         "actor",
	PhaseKPIs:           "KPI",
	PhaseModules:        "module",
	PhaseFeatures:       "feature",
}

// ItemKind names the kind of item collected during p, or "" when p holds no
// items.
func (p Phase) ItemKind() string {
	return itemKinds[p]
}

// PrepareAnalysis validates an analysis request and returns the trimmed
// text with the item kind of the phase.
func PrepareAnalysis(rawPhase, text string) (string, string, error) {
	phase, ok := ParsePhase(rawPhase)
	if !ok {
		return "", "", invalidPhase(rawPhase)
	}
	if !phase.HoldsItems() {
		return "", "", validation("phase", "phase %q does not hold items", phase)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", validation("text", "must not be empty")
	}
	return text, phase.ItemKind(), nil
}
