package export

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"workshop/api/internal/workshop"
)

// Snapshot is the structured export of a session.
type Snapshot struct {
	WorkshopName string    `json:"workshopName"`
	CreatedAt    time.Time `json:"createdAt"`
	CurrentPhase string    `json:"currentStep"`
	Sections     []Section `json:"sections"`
}

// Section is one block of the export. Item phases fill Items and Groups, the
// features section fills Modules and the matrix section fills Features.
type Section struct {
	Title    string           `json:"title"`
	Phase    workshop.Phase   `json:"phase"`
	Items    []string         `json:"items,omitempty"`
	Groups   []SectionGroup   `json:"groups,omitempty"`
	Modules  []ModuleFeatures `json:"modules,omitempty"`
	Features []MatrixFeature  `json:"features,omitempty"`
}

type SectionGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

type ModuleFeatures struct {
	ModuleID string   `json:"moduleId"`
	Module   string   `json:"module"`
	Features []string `json:"features"`
}

// MatrixFeature is a voted feature with its name resolved.
type MatrixFeature struct {
	FeatureID  string            `json:"featureId"`
	Name       string            `json:"name"`
	Value      float64           `json:"value"`
	Complexity float64           `json:"complexity"`
	Score      float64           `json:"score"`
	Votes      int               `json:"votes"`
	Quadrant   workshop.Quadrant `json:"quadrant"`
}

var sectionTitles = map[workshop.Phase]string{
	workshop.PhaseProblemFraming: "PROBLEM FRAMING",
	workshop.PhaseActors:         "ACTORS",
	workshop.PhaseKPIs:           "KPIS",
	workshop.PhaseModules:        "MODULES",
	workshop.PhaseFeatures:       "FEATURES BY MODULE",
	workshop.PhasePrioritization: "PRIORITIZATION MATRIX",
}

var quadrantTitles = map[workshop.Quadrant]string{
	workshop.QuadrantQuickWins:     "QUICK WINS (high value, low complexity)",
	workshop.QuadrantMajorProjects: "MAJOR PROJECTS (high value, high complexity)",
	workshop.QuadrantFillIns:       "FILL-INS (low value, low complexity)",
	workshop.QuadrantAvoid:         "AVOID (low value, high complexity)",
}

// QuadrantTitle returns the display heading of q.
func QuadrantTitle(q workshop.Quadrant) string {
	return quadrantTitles[q]
}

// BuildSnapshot exports session. Empty phases are left out.
func BuildSnapshot(session *workshop.Session) Snapshot {
	snapshot := Snapshot{
		WorkshopName: session.BoardName,
		CreatedAt:    session.CreatedAt,
		CurrentPhase: string(session.CurrentPhase),
		Sections:     []Section{},
	}

	for _, phase := range []workshop.Phase{workshop.PhaseProblemFraming, workshop.PhaseActors, workshop.PhaseKPIs, workshop.PhaseModules} {
		items, _ := workshop.ListItems(session, string(phase), "")
		if len(items) == 0 {
			continue
		}
		section := Section{Title: sectionTitles[phase], Phase: phase, Items: itemTexts(items)}
		for _, group := range session.ResolveGroups(phase) {
			section.Groups = append(section.Groups, SectionGroup{Category: group.Category, Items: itemTexts(group.Items)})
		}
		snapshot.Sections = append(snapshot.Sections, section)
	}

	if modules := FeaturesByModule(session); len(modules) > 0 {
		snapshot.Sections = append(snapshot.Sections, Section{
			Title:   sectionTitles[workshop.PhaseFeatures],
			Phase:   workshop.PhaseFeatures,
			Modules: modules,
		})
	}

	if features := RankedFeatures(session); len(features) > 0 {
		snapshot.Sections = append(snapshot.Sections, Section{
			Title:    sectionTitles[workshop.PhasePrioritization],
			Phase:    workshop.PhasePrioritization,
			Features: features,
		})
	}
	return snapshot
}

// FeaturesByModule lists feature buckets in module order. Buckets whose
// module was deleted follow, sorted by id, under their raw id.
func FeaturesByModule(session *workshop.Session) []ModuleFeatures {
	var out []ModuleFeatures
	seen := make(map[string]struct{})
	for _, module := range session.Data.Modules {
		seen[module.ID] = struct{}{}
		if features := session.Data.Features[module.ID]; len(features) > 0 {
			out = append(out, ModuleFeatures{ModuleID: module.ID, Module: module.Text, Features: itemTexts(features)})
		}
	}
	var orphans []string
	for moduleID, features := range session.Data.Features {
		if _, ok := seen[moduleID]; !ok && len(features) > 0 {
			orphans = append(orphans, moduleID)
		}
	}
	sort.Strings(orphans)
	for _, moduleID := range orphans {
		out = append(out, ModuleFeatures{ModuleID: moduleID, Module: moduleID, Features: itemTexts(session.Data.Features[moduleID])})
	}
	return out
}

// RankedFeatures returns voted features quadrant by quadrant, ranked by score.
func RankedFeatures(session *workshop.Session) []MatrixFeature {
	ranked := workshop.Ranked(session)
	var out []MatrixFeature
	for _, quadrant := range workshop.Quadrants {
		for _, feature := range ranked[quadrant] {
			name := feature.FeatureID
			if item, _, ok := session.FindFeature(feature.FeatureID); ok {
				name = item.Text
			}
			out = append(out, MatrixFeature{
				FeatureID:  feature.FeatureID,
				Name:       name,
				Value:      feature.Averages.Value,
				Complexity: feature.Averages.Complexity,
				Score:      workshop.Score(*feature.Averages),
				Votes:      len(feature.Votes),
				Quadrant:   quadrant,
			})
		}
	}
	return out
}

// RenderText renders snapshot as copy-paste friendly text.
func RenderText(snapshot Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s ===\n", strings.ToUpper(snapshot.WorkshopName))
	fmt.Fprintf(&b, "Date: %s\n\n", snapshot.CreatedAt.Format("2006-01-02"))

	for _, section := range snapshot.Sections {
		fmt.Fprintf(&b, "--- %s ---\n\n", section.Title)

		if len(section.Items) > 0 {
			for _, item := range section.Items {
				fmt.Fprintf(&b, "• %s\n", item)
			}
			b.WriteString("\n")
			if len(section.Groups) > 0 {
				b.WriteString("GROUPS:\n")
				for _, group := range section.Groups {
					fmt.Fprintf(&b, "  [%s]\n", group.Category)
					for _, item := range group.Items {
						fmt.Fprintf(&b, "    - %s\n", item)
					}
				}
				b.WriteString("\n")
			}
		}

		if len(section.Modules) > 0 {
			for _, module := range section.Modules {
				fmt.Fprintf(&b, "  [%s]\n", module.Module)
				for _, feature := range module.Features {
					fmt.Fprintf(&b, "    - %s\n", feature)
				}
			}
			b.WriteString("\n")
		}

		if len(section.Features) > 0 {
			for i, quadrant := range workshop.Quadrants {
				if i > 0 {
					b.WriteString("\n")
				}
				fmt.Fprintf(&b, "%s:\n", QuadrantTitle(quadrant))
				for _, feature := range section.Features {
					if feature.Quadrant == quadrant {
						fmt.Fprintf(&b, "  • %s (V:%.1f, C:%.1f)\n", feature.Name, feature.Value, feature.Complexity)
					}
				}
			}
		}
	}
	return b.String()
}

func itemTexts(items []workshop.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Text
	}
	return out
}
