// Package workshop holds the session aggregate of a product-design workshop:
// the phase state machine, per-phase item collections, semantic grouping of
// items and the value/complexity voting engine.
//
// Every operation here works on a *Session value and never touches storage.
// Callers load a session, apply one operation and persist the result.
package workshop

import (
	"encoding/json"
	"time"
)

// Item is one participant-submitted sticky note.
type Item struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
}

// Position is a layout coordinate for downstream renderers.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Group is a named cluster of items. Items are referenced by id and resolved
// against the live collection, so edits show up without regrouping.
type Group struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	ItemIDs     []string `json:"itemIds"`
	Position    Position `json:"position"`
}

// UnmarshalJSON also accepts groups whose items are embedded as objects,
// the shape exported by earlier versions of the workshop tool.
func (g *Group) UnmarshalJSON(data []byte) error {
	type plain Group
	var raw struct {
		plain
		Items []struct {
			ID string `json:"id"`
		} `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*g = Group(raw.plain)
	if g.ItemIDs == nil && len(raw.Items) > 0 {
		g.ItemIDs = make([]string, 0, len(raw.Items))
		for _, item := range raw.Items {
			if item.ID != "" {
				g.ItemIDs = append(g.ItemIDs, item.ID)
			}
		}
	}
	return nil
}

// GroupView is a Group with its items resolved.
type GroupView struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Items       []Item   `json:"items"`
	Position    Position `json:"position"`
}

// Vote is one participant's rating of one feature.
type Vote struct {
	ParticipantID string    `json:"participantId"`
	Value         int       `json:"value"`
	Complexity    int       `json:"complexity"`
	Timestamp     time.Time `json:"timestamp"`
}

// Averages holds the rounded mean of a feature's votes.
type Averages struct {
	Value      float64 `json:"value"`
	Complexity float64 `json:"complexity"`
}

// Quadrant is a value/complexity matrix cell.
type Quadrant string

const (
	QuadrantQuickWins     Quadrant = "quick-wins"
	QuadrantMajorProjects Quadrant = "major-projects"
	QuadrantFillIns       Quadrant = "fill-ins"
	QuadrantAvoid         Quadrant = "avoid"
)

// Quadrants lists the matrix cells in display order.
var Quadrants = []Quadrant{QuadrantQuickWins, QuadrantMajorProjects, QuadrantFillIns, QuadrantAvoid}

// PrioritizedFeature aggregates the votes cast for one feature.
type PrioritizedFeature struct {
	FeatureID string    `json:"featureId"`
	Votes     []Vote    `json:"votes"`
	Averages  *Averages `json:"averages,omitempty"`
	Quadrant  Quadrant  `json:"quadrant,omitempty"`
}

// Data holds the per-phase item collections and votes.
type Data struct {
	Problems       []Item               `json:"problems"`
	Actors         []Item               `json:"actors"`
	KPIs           []Item               `json:"kpis"`
	Modules        []Item               `json:"modules"`
	Features       map[string][]Item    `json:"features"`
	Prioritization []PrioritizedFeature `json:"prioritization"`
}

// Groups holds the current group set of each grouped phase.
type Groups struct {
	Problems []Group `json:"problems"`
	Actors   []Group `json:"actors"`
	KPIs     []Group `json:"kpis"`
	Modules  []Group `json:"modules"`
}

// BoardLink references the external collaboration board of a session.
type BoardLink struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Session is the workshop aggregate and the unit of persistence.
type Session struct {
	ID           string     `json:"id"`
	BoardName    string     `json:"boardName"`
	CurrentPhase Phase      `json:"currentPhase"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Board        *BoardLink `json:"board,omitempty"`
	Data         Data       `json:"data"`
	Groups       Groups     `json:"groups"`
}
