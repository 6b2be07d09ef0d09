// Package search indexes workshop items for full-text lookup across sessions.
package search

import (
	"sort"

	"workshop/api/internal/workshop"
)

// ItemRecord is the data we index for an item.
type ItemRecord struct {
	ID        string `json:"id"`
	SessionID string `json:"sessionId"`
	BoardName string `json:"boardName"`
	Phase     string `json:"phase"`
	ModuleID  string `json:"moduleId,omitempty"`
	Text      string `json:"text"`
}

// Result is a single search hit returned to the caller.
type Result struct {
	ItemID    string `json:"itemId"`
	SessionID string `json:"sessionId"`
	BoardName string `json:"boardName"`
	Phase     string `json:"phase"`
	ModuleID  string `json:"moduleId,omitempty"`
	Text      string `json:"text"`
	Snippet   string `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text      string
	SessionID string // empty = all sessions
	Phase     string // empty = all phases
	Limit     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// Records flattens every item of session in phase order. Features follow
// module id order.
func Records(session *workshop.Session) []ItemRecord {
	var out []ItemRecord
	add := func(phase workshop.Phase, moduleID string, items []workshop.Item) {
		for _, item := range items {
			out = append(out, ItemRecord{
				ID:        item.ID,
				SessionID: session.ID,
				BoardName: session.BoardName,
				Phase:     string(phase),
				ModuleID:  moduleID,
				Text:      item.Text,
			})
		}
	}
	add(workshop.PhaseProblemFraming, "", session.Data.Problems)
	add(workshop.PhaseActors, "", session.Data.Actors)
	add(workshop.PhaseKPIs, "", session.Data.KPIs)
	add(workshop.PhaseModules, "", session.Data.Modules)
	moduleIDs := make([]string, 0, len(session.Data.Features))
	for moduleID := range session.Data.Features {
		moduleIDs = append(moduleIDs, moduleID)
	}
	sort.Strings(moduleIDs)
	for _, moduleID := range moduleIDs {
		add(workshop.PhaseFeatures, moduleID, session.Data.Features[moduleID])
	}
	return out
}

func defaultLimit(n int) int {
	if n <= 0 {
		return 20
	}
	return n
}
