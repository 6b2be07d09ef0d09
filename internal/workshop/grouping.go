package workshop

import (
	"context"
	"errors"
	"math"
)

// RawGroup is one category returned by a grouper. Items are 1-based indexes
// into the texts that were submitted.
type RawGroup struct {
	Category    string `json:"category"`
	Items       []int  `json:"items"`
	Description string `json:"description"`
}

// Grouper partitions item texts into named categories.
type Grouper interface {
	Group(ctx context.Context, items []string, phaseContext string) ([]RawGroup, error)
}

// GrouperFunc adapts a function to Grouper.
type GrouperFunc func(ctx context.Context, items []string, phaseContext string) ([]RawGroup, error)

func (f GrouperFunc) Group(ctx context.Context, items []string, phaseContext string) ([]RawGroup, error) {
	return f(ctx, items, phaseContext)
}

// GroupingPlan is the snapshot taken before calling a grouper. It is
// detached from the session so the call can run without holding the lock.
type GroupingPlan struct {
	Phase   Phase
	Context string
	Texts   []string
	ItemIDs []string
}

// GroupingResult is what GroupPhase reports back to callers.
type GroupingResult struct {
	Phase        Phase       `json:"phase"`
	Groups       []GroupView `json:"groups"`
	UsedFallback bool        `json:"usedFallback"`
}

// PlanGrouping snapshots the items of a grouped phase.
func PlanGrouping(session *Session, rawPhase string, guide *Catalog) (GroupingPlan, error) {
	phase, ok := ParsePhase(rawPhase)
	if !ok {
		return GroupingPlan{}, invalidPhase(rawPhase)
	}
	if !phase.Grouped() {
		return GroupingPlan{}, validation("phase", "phase %q cannot be grouped", phase)
	}
	items := session.groupSource(phase)
	plan := GroupingPlan{
		Phase:   phase,
		Context: guide.Guidance(phase),
		Texts:   make([]string, len(items)),
		ItemIDs: make([]string, len(items)),
	}
	for i, item := range items {
		plan.Texts[i] = item.Text
		plan.ItemIDs[i] = item.ID
	}
	return plan, nil
}

// RunGrouping calls grouper for plan. When the call fails and fallback is
// set, the keyword classifier of guide is used instead and the result is
// flagged. Empty plans never reach the grouper.
func RunGrouping(ctx context.Context, plan GroupingPlan, grouper Grouper, guide *Catalog, fallback bool) ([]RawGroup, bool, error) {
	if len(plan.Texts) == 0 {
		return []RawGroup{}, false, nil
	}
	var err error
	if grouper != nil {
		var groups []RawGroup
		groups, err = grouper.Group(ctx, plan.Texts, plan.Context)
		if err == nil {
			return groups, false, nil
		}
	} else {
		err = errors.New("no grouper configured")
	}
	if !fallback {
		return nil, false, &GroupingUnavailableError{Err: err}
	}
	return guide.Classify(plan.Texts), true, nil
}

// CommitGrouping maps raw groups back to item references through plan and
// replaces the phase's group set. Indexes out of range or already used are
// dropped, as are items deleted since the plan was taken.
func CommitGrouping(session *Session, plan GroupingPlan, raw []RawGroup) []GroupView {
	live := make(map[string]struct{})
	for _, item := range session.groupSource(plan.Phase) {
		live[item.ID] = struct{}{}
	}
	used := make(map[int]struct{})
	groups := make([]Group, 0, len(raw))
	for _, candidate := range raw {
		ids := make([]string, 0, len(candidate.Items))
		for _, index := range candidate.Items {
			if index < 1 || index > len(plan.ItemIDs) {
				continue
			}
			if _, dup := used[index]; dup {
				continue
			}
			used[index] = struct{}{}
			id := plan.ItemIDs[index-1]
			if _, ok := live[id]; !ok {
				continue
			}
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		groups = append(groups, Group{
			Category:    candidate.Category,
			Description: candidate.Description,
			ItemIDs:     ids,
		})
	}
	for i := range groups {
		groups[i].Position = GridPosition(i)
	}
	session.setGroups(plan.Phase, groups)
	session.touch()
	return session.ResolveGroups(plan.Phase)
}

// GridPosition is the board placement of the i-th group: three columns,
// 350 apart, rows 400 apart.
func GridPosition(i int) Position {
	return Position{
		X: 100 + float64(i%3)*350,
		Y: 100 + math.Floor(float64(i)/3)*400,
	}
}

// ResolveGroups returns the phase's groups with items looked up in the live
// collection. Ids that no longer resolve are skipped.
func (s *Session) ResolveGroups(phase Phase) []GroupView {
	byID := make(map[string]Item)
	for _, item := range s.groupSource(phase) {
		byID[item.ID] = item
	}
	stored := s.groupSet(phase)
	views := make([]GroupView, 0, len(stored))
	for _, group := range stored {
		view := GroupView{
			Category:    group.Category,
			Description: group.Description,
			Items:       make([]Item, 0, len(group.ItemIDs)),
			Position:    group.Position,
		}
		for _, id := range group.ItemIDs {
			if item, ok := byID[id]; ok {
				view.Items = append(view.Items, item)
			}
		}
		views = append(views, view)
	}
	return views
}

// Ungrouped returns the items of phase that no stored group references.
func (s *Session) Ungrouped(phase Phase) []Item {
	seen := make(map[string]struct{})
	for _, group := range s.groupSet(phase) {
		for _, id := range group.ItemIDs {
			seen[id] = struct{}{}
		}
	}
	out := []Item{}
	for _, item := range s.groupSource(phase) {
		if _, ok := seen[item.ID]; !ok {
			out = append(out, item)
		}
	}
	return out
}

func (s *Session) groupSource(phase Phase) []Item {
	switch phase {
	case PhaseProblemFraming:
		return s.Data.Problems
	case PhaseActors:
		return s.Data.Actors
	case PhaseKPIs:
		return s.Data.KPIs
	case PhaseModules:
		return s.Data.Modules
	}
	return nil
}

func (s *Session) groupSet(phase Phase) []Group {
	switch phase {
	case PhaseProblemFraming:
		return s.Groups.Problems
	case PhaseActors:
		return s.Groups.Actors
	case PhaseKPIs:
		return s.Groups.KPIs
	case PhaseModules:
		return s.Groups.Modules
	}
	return nil
}

func (s *Session) setGroups(phase Phase, groups []Group) {
	switch phase {
	case PhaseProblemFraming:
		s.Groups.Problems = groups
	case PhaseActors:
		s.Groups.Actors = groups
	case PhaseKPIs:
		s.Groups.KPIs = groups
	case PhaseModules:
		s.Groups.Modules = groups
	}
}
