package workshop

import "strings"

// Phase is one stage of the workshop flow.
type Phase string

const (
	PhaseStart          Phase = "start"
	PhaseProblemFraming Phase = "problem_framing"
	PhaseActors         Phase = "actors"
	PhaseKPIs           Phase = "kpis"
	PhaseModules        Phase = "modules"
	PhaseFeatures       Phase = "features"
	PhasePrioritization Phase = "prioritization"
	PhaseComplete       Phase = "complete"
)

// phaseOrder is the fixed order of the workflow. PhaseStart is a virtual
// pre-state and never the target of a jump.
var phaseOrder = []Phase{
	PhaseStart,
	PhaseProblemFraming,
	PhaseActors,
	PhaseKPIs,
	PhaseModules,
	PhaseFeatures,
	PhasePrioritization,
	PhaseComplete,
}

// groupedPhases are the phases whose items can be grouped.
var groupedPhases = map[Phase]struct{}{
	PhaseProblemFraming: {},
	PhaseActors:         {},
	PhaseKPIs:           {},
	PhaseModules:        {},
}

// Phases returns the seven user-facing phases in order.
func Phases() []Phase {
	out := make([]Phase, 0, len(phaseOrder)-1)
	out = append(out, phaseOrder[1:]...)
	return out
}

// ParsePhase normalizes raw and reports whether it names a user-facing phase.
func ParsePhase(raw string) (Phase, bool) {
	phase := Phase(strings.ToLower(strings.TrimSpace(raw)))
	if phase == PhaseStart {
		return "", false
	}
	if phaseIndex(phase) < 0 {
		return "", false
	}
	return phase, true
}

// Valid reports whether p is one of the stored phase values, including start.
func (p Phase) Valid() bool {
	return phaseIndex(p) >= 0
}

// Grouped reports whether items of p can be grouped.
func (p Phase) Grouped() bool {
	_, ok := groupedPhases[p]
	return ok
}

// HoldsItems reports whether participants submit items during p.
func (p Phase) HoldsItems() bool {
	return p.Grouped() || p == PhaseFeatures
}

func phaseIndex(p Phase) int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Transition is the outcome of a phase change.
type Transition struct {
	From    Phase `json:"from"`
	To      Phase `json:"to"`
	Changed bool  `json:"changed"`
	// Clamped is set when advance was requested at the terminal phase.
	Clamped bool `json:"clamped,omitempty"`
}

// Advance moves the session to the next phase. At PhaseComplete the call
// clamps: the phase stays put and Clamped is reported.
func Advance(session *Session) Transition {
	from := session.CurrentPhase
	idx := phaseIndex(from)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(phaseOrder)-1 {
		return Transition{From: from, To: from, Clamped: true}
	}
	session.CurrentPhase = phaseOrder[idx+1]
	session.touch()
	return Transition{From: from, To: session.CurrentPhase, Changed: true}
}

// Retreat moves the session to the previous phase. It is a no-op at
// problem_framing and before.
func Retreat(session *Session) Transition {
	from := session.CurrentPhase
	idx := phaseIndex(from)
	if idx <= phaseIndex(PhaseProblemFraming) {
		return Transition{From: from, To: from}
	}
	session.CurrentPhase = phaseOrder[idx-1]
	session.touch()
	return Transition{From: from, To: session.CurrentPhase, Changed: true}
}

// JumpTo sets the phase directly. Prerequisite phases are not checked so
// facilitators can navigate freely.
func JumpTo(session *Session, target string) (Transition, error) {
	phase, ok := ParsePhase(target)
	if !ok {
		return Transition{}, invalidPhase(target)
	}
	from := session.CurrentPhase
	if from == phase {
		return Transition{From: from, To: phase}, nil
	}
	session.CurrentPhase = phase
	session.touch()
	return Transition{From: from, To: phase, Changed: true}, nil
}
