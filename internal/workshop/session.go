package workshop

import (
	"strings"
	"time"

	"workshop/api/internal/util"
)

// NewSession returns an empty session positioned at problem_framing.
func NewSession(boardName string) *Session {
	now := timeNow().UTC()
	name := strings.TrimSpace(boardName)
	if name == "" {
		name = "Workshop"
	}
	session := &Session{
		ID:           util.NewID("ws"),
		BoardName:    name,
		CurrentPhase: PhaseProblemFraming,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	session.Normalize()
	return session
}

// ImportDocument is the payload accepted by Import.
type ImportDocument struct {
	CurrentPhase string  `json:"currentStep"`
	Data         *Data   `json:"data"`
	Groups       *Groups `json:"groups"`
}

// Import builds a new session from an exported document. Missing sections
// start empty; an unrecognized phase is rejected.
func Import(boardName string, doc ImportDocument) (*Session, error) {
	session := NewSession(boardName)
	if strings.TrimSpace(doc.CurrentPhase) != "" {
		phase, ok := ParsePhase(doc.CurrentPhase)
		if !ok {
			return nil, invalidPhase(doc.CurrentPhase)
		}
		session.CurrentPhase = phase
	}
	if doc.Data != nil {
		session.Data = *cloneData(doc.Data)
	}
	if doc.Groups != nil {
		session.Groups = *cloneGroups(doc.Groups)
	}
	session.Normalize()
	session.pruneGroups()
	for _, feature := range session.Data.Prioritization {
		for _, vote := range feature.Votes {
			if err := validateRating(vote.Value, vote.Complexity); err != nil {
				return nil, err
			}
		}
	}
	for i := range session.Data.Prioritization {
		recompute(&session.Data.Prioritization[i])
	}
	return session, nil
}

// pruneGroups drops group references to items that are not in the phase's
// collection, then drops groups left without items.
func (s *Session) pruneGroups() {
	for _, phase := range []Phase{PhaseProblemFraming, PhaseActors, PhaseKPIs, PhaseModules} {
		known := make(map[string]struct{})
		for _, item := range s.groupSource(phase) {
			known[item.ID] = struct{}{}
		}
		kept := []Group{}
		for _, group := range s.groupSet(phase) {
			ids := make([]string, 0, len(group.ItemIDs))
			for _, id := range group.ItemIDs {
				if _, ok := known[id]; ok {
					ids = append(ids, id)
				}
			}
			if len(ids) == 0 {
				continue
			}
			group.ItemIDs = ids
			kept = append(kept, group)
		}
		s.setGroups(phase, kept)
	}
}

// Normalize replaces nil collections with empty ones so the JSON form is stable.
func (s *Session) Normalize() {
	if s.Data.Problems == nil {
		s.Data.Problems = []Item{}
	}
	if s.Data.Actors == nil {
		s.Data.Actors = []Item{}
	}
	if s.Data.KPIs == nil {
		s.Data.KPIs = []Item{}
	}
	if s.Data.Modules == nil {
		s.Data.Modules = []Item{}
	}
	if s.Data.Features == nil {
		s.Data.Features = map[string][]Item{}
	}
	if s.Data.Prioritization == nil {
		s.Data.Prioritization = []PrioritizedFeature{}
	}
	if s.Groups.Problems == nil {
		s.Groups.Problems = []Group{}
	}
	if s.Groups.Actors == nil {
		s.Groups.Actors = []Group{}
	}
	if s.Groups.KPIs == nil {
		s.Groups.KPIs = []Group{}
	}
	if s.Groups.Modules == nil {
		s.Groups.Modules = []Group{}
	}
	if !s.CurrentPhase.Valid() {
		s.CurrentPhase = PhaseProblemFraming
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Board != nil {
		board := *s.Board
		out.Board = &board
	}
	out.Data = *cloneData(&s.Data)
	out.Groups = *cloneGroups(&s.Groups)
	return &out
}

// SetBoard records the external collaboration board of the session.
func (s *Session) SetBoard(id, url string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return validation("boardId", "is required")
	}
	s.Board = &BoardLink{ID: id, URL: strings.TrimSpace(url)}
	s.touch()
	return nil
}

func (s *Session) touch() {
	s.UpdatedAt = timeNow().UTC()
}

// Summary is the list view of a session.
type Summary struct {
	ID           string         `json:"id"`
	BoardName    string         `json:"boardName"`
	CurrentPhase Phase          `json:"currentPhase"`
	CreatedAt    time.Time      `json:"createdAt"`
	Board        *BoardLink     `json:"board,omitempty"`
	ItemCounts   map[string]int `json:"itemCounts"`
}

// Summarize returns the list view of s.
func (s *Session) Summarize() Summary {
	features := 0
	for _, items := range s.Data.Features {
		features += len(items)
	}
	return Summary{
		ID:           s.ID,
		BoardName:    s.BoardName,
		CurrentPhase: s.CurrentPhase,
		CreatedAt:    s.CreatedAt,
		Board:        s.Board,
		ItemCounts: map[string]int{
			"problems": len(s.Data.Problems),
			"actors":   len(s.Data.Actors),
			"kpis":     len(s.Data.KPIs),
			"modules":  len(s.Data.Modules),
			"features": features,
		},
	}
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

func cloneData(in *Data) *Data {
	out := &Data{
		Problems: cloneItems(in.Problems),
		Actors:   cloneItems(in.Actors),
		KPIs:     cloneItems(in.KPIs),
		Modules:  cloneItems(in.Modules),
	}
	if in.Features != nil {
		out.Features = make(map[string][]Item, len(in.Features))
		for moduleID, items := range in.Features {
			out.Features[moduleID] = cloneItems(items)
		}
	}
	if in.Prioritization != nil {
		out.Prioritization = make([]PrioritizedFeature, len(in.Prioritization))
		for i, feature := range in.Prioritization {
			copied := feature
			copied.Votes = append([]Vote(nil), feature.Votes...)
			if feature.Averages != nil {
				averages := *feature.Averages
				copied.Averages = &averages
			}
			out.Prioritization[i] = copied
		}
	}
	return out
}

func cloneGroupSet(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, group := range groups {
		copied := group
		copied.ItemIDs = append([]string(nil), group.ItemIDs...)
		out[i] = copied
	}
	return out
}

func cloneGroups(in *Groups) *Groups {
	return &Groups{
		Problems: cloneGroupSet(in.Problems),
		Actors:   cloneGroupSet(in.Actors),
		KPIs:     cloneGroupSet(in.KPIs),
		Modules:  cloneGroupSet(in.Modules),
	}
}
