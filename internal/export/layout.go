package export

import (
	"math"

	"workshop/api/internal/workshop"
)

// ElementKind is the type of a board element.
type ElementKind string

const (
	KindFrame  ElementKind = "frame"
	KindText   ElementKind = "text"
	KindSticky ElementKind = "sticky"
)

// Element is one shape to create on the collaboration board. Coordinates
// are absolute board units.
type Element struct {
	Kind   ElementKind `json:"kind"`
	Name   string      `json:"name"`
	Text   string      `json:"text,omitempty"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Color  string      `json:"color,omitempty"`
}

// StickyColors cycles through the note palette.
var StickyColors = []string{"#7EFFC4", "#D4E4FF", "#FFD1DC", "#FFD4A3"}

const (
	stickyWidth   = 150
	stickyHeight  = 120
	stickyGap     = 10
	groupHeader   = 50
	groupColumns  = 2
	sectionGap    = 200
	sectionMargin = 100
	quadrantSize  = 600
)

var quadrantColors = map[workshop.Quadrant]string{
	workshop.QuadrantQuickWins:     "#E3F9E5",
	workshop.QuadrantMajorProjects: "#E3F0FF",
	workshop.QuadrantFillIns:       "#FFF8E1",
	workshop.QuadrantAvoid:         "#FDE7E9",
}

// BoardLayout stacks one frame per non-empty section: grouped phases use
// the group grid, features get one column per module and the matrix gets a
// 2x2 quadrant frame.
func BoardLayout(session *workshop.Session) []Element {
	var out []Element
	y := 0.0
	for _, phase := range []workshop.Phase{workshop.PhaseProblemFraming, workshop.PhaseActors, workshop.PhaseKPIs, workshop.PhaseModules} {
		elements, height := phaseElements(session, phase, y)
		if len(elements) == 0 {
			continue
		}
		out = append(out, elements...)
		y += height + sectionGap
	}
	if elements, height := featureElements(session, y); len(elements) > 0 {
		out = append(out, elements...)
		y += height + sectionGap
	}
	out = append(out, matrixElements(session, y)...)
	return out
}

func phaseElements(session *workshop.Session, phase workshop.Phase, top float64) ([]Element, float64) {
	items, _ := workshop.ListItems(session, string(phase), "")
	if len(items) == 0 {
		return nil, 0
	}
	var notes []Element
	width, height := 0.0, 0.0
	groups := session.ResolveGroups(phase)
	if len(groups) == 0 {
		for i, item := range items {
			x, y := item.X+sectionMargin, top+item.Y+sectionMargin
			notes = append(notes, sticky(item.Text, x, y, i))
			width = math.Max(width, item.X+stickyWidth+2*sectionMargin)
			height = math.Max(height, item.Y+stickyHeight+2*sectionMargin)
		}
	} else {
		for i, group := range groups {
			gx, gy := group.Position.X, top+group.Position.Y
			notes = append(notes, Element{
				Kind: KindText, Name: group.Category, Text: group.Category,
				X: gx, Y: gy, Width: groupColumns*(stickyWidth+stickyGap) - stickyGap, Height: groupHeader - stickyGap,
			})
			for k, item := range group.Items {
				x := gx + float64(k%groupColumns)*(stickyWidth+stickyGap)
				y := gy + groupHeader + float64(k/groupColumns)*(stickyHeight+stickyGap)
				notes = append(notes, sticky(item.Text, x, y, i))
				width = math.Max(width, x+stickyWidth+sectionMargin)
				height = math.Max(height, y-top+stickyHeight+sectionMargin)
			}
		}
	}
	frame := Element{Kind: KindFrame, Name: sectionTitles[phase], Text: sectionTitles[phase], X: 0, Y: top, Width: width, Height: height}
	return append([]Element{frame}, notes...), height
}

func featureElements(session *workshop.Session, top float64) ([]Element, float64) {
	modules := FeaturesByModule(session)
	if len(modules) == 0 {
		return nil, 0
	}
	var notes []Element
	height := 0.0
	columnWidth := float64(stickyWidth + 2*stickyGap)
	for i, module := range modules {
		x := sectionMargin + float64(i)*columnWidth
		notes = append(notes, Element{Kind: KindText, Name: module.Module, Text: module.Module, X: x, Y: top + sectionMargin, Width: stickyWidth, Height: groupHeader - stickyGap})
		for k, feature := range module.Features {
			y := top + sectionMargin + groupHeader + float64(k)*(stickyHeight+stickyGap)
			notes = append(notes, sticky(feature, x, y, i))
			height = math.Max(height, y-top+stickyHeight+sectionMargin)
		}
	}
	width := 2*sectionMargin + float64(len(modules))*columnWidth
	frame := Element{Kind: KindFrame, Name: sectionTitles[workshop.PhaseFeatures], Text: sectionTitles[workshop.PhaseFeatures], Y: top, Width: width, Height: height}
	return append([]Element{frame}, notes...), height
}

// quadrantOrigin places quick wins top-left, major projects top-right,
// fill-ins bottom-left and avoid bottom-right.
func quadrantOrigin(q workshop.Quadrant) (float64, float64) {
	switch q {
	case workshop.QuadrantMajorProjects:
		return quadrantSize, 0
	case workshop.QuadrantFillIns:
		return 0, quadrantSize
	case workshop.QuadrantAvoid:
		return quadrantSize, quadrantSize
	}
	return 0, 0
}

func matrixElements(session *workshop.Session, top float64) []Element {
	features := RankedFeatures(session)
	if len(features) == 0 {
		return nil
	}
	out := []Element{{
		Kind: KindFrame, Name: sectionTitles[workshop.PhasePrioritization], Text: sectionTitles[workshop.PhasePrioritization],
		Y: top, Width: 2*quadrantSize + 2*sectionMargin, Height: 2*quadrantSize + 2*sectionMargin,
	}}
	perRow := int((quadrantSize - stickyGap) / (stickyWidth + stickyGap))
	counts := make(map[workshop.Quadrant]int)
	for _, quadrant := range workshop.Quadrants {
		qx, qy := quadrantOrigin(quadrant)
		out = append(out, Element{
			Kind: KindFrame, Name: string(quadrant), Text: QuadrantTitle(quadrant),
			X: sectionMargin + qx, Y: top + sectionMargin + qy, Width: quadrantSize, Height: quadrantSize,
			Color: quadrantColors[quadrant],
		})
	}
	for _, feature := range features {
		qx, qy := quadrantOrigin(feature.Quadrant)
		k := counts[feature.Quadrant]
		counts[feature.Quadrant]++
		x := sectionMargin + qx + stickyGap + float64(k%perRow)*(stickyWidth+stickyGap)
		y := top + sectionMargin + qy + groupHeader + float64(k/perRow)*(stickyHeight+stickyGap)
		out = append(out, sticky(feature.Name, x, y, k))
	}
	return out
}

func sticky(text string, x, y float64, colorIndex int) Element {
	return Element{
		Kind: KindSticky, Name: text, Text: text,
		X: x, Y: y, Width: stickyWidth, Height: stickyHeight,
		Color: StickyColors[colorIndex%len(StickyColors)],
	}
}
