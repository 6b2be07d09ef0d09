package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"workshop/api/internal/workshop"
)

// NotesPerSlide is the capacity of the 4x2 sticky grid of a slide.
const NotesPerSlide = 8

const maxNoteText = 100

// Deck is the slide model rendered by RenderDeckHTML.
type Deck struct {
	Title     string
	CreatedAt time.Time
	Slides    []Slide
}

// Slide is either a note grid or, with Matrix set, the quadrant slide.
type Slide struct {
	Title  string
	Notes  []Note
	Matrix []MatrixCell
}

type Note struct {
	Text  string
	Color string
}

type MatrixCell struct {
	Quadrant workshop.Quadrant
	Title    string
	Features []MatrixFeature
}

var deckPhaseTitles = map[workshop.Phase]string{
	workshop.PhaseProblemFraming: "Problem Framing",
	workshop.PhaseActors:         "Actors",
	workshop.PhaseKPIs:           "KPIs",
	workshop.PhaseModules:        "Modules",
}

// BuildDeck lays session out as slides: one per grouped phase (with
// continuation slides past NotesPerSlide notes), one per feature module and
// the prioritization matrix.
func BuildDeck(session *workshop.Session) Deck {
	deck := Deck{Title: session.BoardName, CreatedAt: session.CreatedAt}
	for _, phase := range []workshop.Phase{workshop.PhaseProblemFraming, workshop.PhaseActors, workshop.PhaseKPIs, workshop.PhaseModules} {
		var texts []string
		for _, group := range session.ResolveGroups(phase) {
			texts = append(texts, itemTexts(group.Items)...)
		}
		deck.Slides = append(deck.Slides, noteSlides(deckPhaseTitles[phase], texts)...)
	}
	for _, module := range FeaturesByModule(session) {
		deck.Slides = append(deck.Slides, noteSlides("Features - "+module.Module, module.Features)...)
	}
	if features := RankedFeatures(session); len(features) > 0 {
		slide := Slide{Title: "Prioritization Matrix"}
		for _, quadrant := range workshop.Quadrants {
			cell := MatrixCell{Quadrant: quadrant, Title: QuadrantTitle(quadrant)}
			for _, feature := range features {
				if feature.Quadrant == quadrant {
					cell.Features = append(cell.Features, feature)
				}
			}
			slide.Matrix = append(slide.Matrix, cell)
		}
		deck.Slides = append(deck.Slides, slide)
	}
	return deck
}

func noteSlides(title string, texts []string) []Slide {
	var slides []Slide
	for start := 0; start < len(texts); start += NotesPerSlide {
		end := min(start+NotesPerSlide, len(texts))
		slide := Slide{Title: title}
		if start > 0 {
			slide.Title = title + " (continued)"
		}
		for i, text := range texts[start:end] {
			slide.Notes = append(slide.Notes, Note{Text: truncate(text, maxNoteText), Color: StickyColors[i%len(StickyColors)]})
		}
		slides = append(slides, slide)
	}
	return slides
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

//go:embed templates/*.html
var templateFS embed.FS

var deckTemplate = template.Must(template.New("deck.html").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
	"css": func(s string) template.CSS {
		return template.CSS(s)
	},
	"upper": strings.ToUpper,
}).ParseFS(templateFS, "templates/deck.html"))

// RenderDeckHTML renders deck as a printable HTML page, one slide per page.
func RenderDeckHTML(deck Deck) (string, error) {
	var buf bytes.Buffer
	if err := deckTemplate.Execute(&buf, deck); err != nil {
		return "", fmt.Errorf("render deck: %w", err)
	}
	return buf.String(), nil
}
