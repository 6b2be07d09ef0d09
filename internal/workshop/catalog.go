package workshop

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// KeywordCategory is one bucket of the offline fallback classifier.
type KeywordCategory struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Catalog carries the phase guidance table and the fallback keyword table.
// A nil *Catalog behaves like DefaultCatalog.
type Catalog struct {
	guidance      map[Phase]string
	categories    []KeywordCategory
	otherCategory string
}

// OtherCategory is the catch-all of the default keyword table.
const OtherCategory = "Other"

var defaultGuidance = map[Phase]string{
	PhaseProblemFraming: "We are in Problem Framing. Ask participants for current problems, identified opportunities and expectations for the new platform. Each idea is captured as a sticky note.",
	PhaseActors:         "Now we identify the main Actors of the system. Who are the primary users? Which roles interact with the platform? What are their needs and behaviours?",
	PhaseKPIs:           "Let's define the Success Indicators. How will we measure the platform's success? Which KPIs matter to the business? Which user metrics are important?",
	PhaseModules:        "Now we define the platform Modules. Which main modules does it need? How are the capabilities organised?",
	PhaseFeatures:       "For each module, list its Features. Which specific capabilities does each module have? What must it offer?",
	PhasePrioritization: "Finally, we prioritise with the Value/Complexity matrix. For each feature vote its business value from 1 to 5 and its implementation complexity from 1 to 5.",
	PhaseComplete:       "The workshop has been completed successfully.",
}

var defaultCategories = []KeywordCategory{
	{Category: "Technology", Keywords: []string{"system", "platform", "software", "digital", "app", "data", "integration", "automat", "technology", "sistema", "plataforma", "aplicación", "datos", "integración", "tecnología"}},
	{Category: "Users", Keywords: []string{"user", "customer", "client", "person", "people", "team", "employee", "operator", "admin", "usuario", "cliente", "persona", "equipo", "empleado"}},
	{Category: "Processes", Keywords: []string{"process", "flow", "workflow", "operation", "management", "control", "tracking", "monitor", "onboarding", "proceso", "flujo", "gestión", "seguimiento"}},
	{Category: "Communication", Keywords: []string{"communication", "information", "report", "notification", "alert", "message", "comunicación", "información", "reporte", "notificación", "mensaje"}},
	{Category: "Efficiency", Keywords: []string{"time", "cost", "efficien", "productiv", "optimi", "improve", "reduce", "slow", "fast", "tiempo", "costo", "eficiencia", "mejorar", "reducir"}},
	{Category: "Quality", Keywords: []string{"quality", "error", "failure", "bug", "defect", "reliab", "calidad", "falla", "defecto", "confiabilidad"}},
	{Category: "Security", Keywords: []string{"security", "access", "permission", "authoriz", "privacy", "seguridad", "acceso", "permiso", "privacidad"}},
	{Category: "Analytics", Keywords: []string{"analysis", "analytics", "metric", "kpi", "indicator", "measure", "statistic", "análisis", "métrica", "indicador", "medición"}},
}

// DefaultCatalog returns the built-in tables.
func DefaultCatalog() *Catalog {
	guidance := make(map[Phase]string, len(defaultGuidance))
	for phase, text := range defaultGuidance {
		guidance[phase] = text
	}
	categories := make([]KeywordCategory, len(defaultCategories))
	for i, category := range defaultCategories {
		categories[i] = KeywordCategory{
			Category: category.Category,
			Keywords: append([]string(nil), category.Keywords...),
		}
	}
	return &Catalog{guidance: guidance, categories: categories, otherCategory: OtherCategory}
}

type catalogFile struct {
	Guidance      map[string]string `yaml:"guidance"`
	Categories    []KeywordCategory `yaml:"categories"`
	OtherCategory string            `yaml:"other_category"`
}

// LoadCatalog reads a YAML catalog and overlays it on the defaults. Guidance
// keys must name recognized phases; an empty categories list keeps the
// built-in table.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog is LoadCatalog on an in-memory document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	catalog := DefaultCatalog()
	for key, text := range file.Guidance {
		phase, ok := ParsePhase(key)
		if !ok {
			return nil, fmt.Errorf("catalog guidance: %w", invalidPhase(key))
		}
		if strings.TrimSpace(text) != "" {
			catalog.guidance[phase] = strings.TrimSpace(text)
		}
	}
	if len(file.Categories) > 0 {
		categories := make([]KeywordCategory, 0, len(file.Categories))
		for _, category := range file.Categories {
			name := strings.TrimSpace(category.Category)
			if name == "" {
				return nil, fmt.Errorf("catalog category without a name")
			}
			keywords := make([]string, 0, len(category.Keywords))
			for _, keyword := range category.Keywords {
				if keyword = strings.ToLower(strings.TrimSpace(keyword)); keyword != "" {
					keywords = append(keywords, keyword)
				}
			}
			categories = append(categories, KeywordCategory{Category: name, Keywords: keywords})
		}
		catalog.categories = categories
	}
	if other := strings.TrimSpace(file.OtherCategory); other != "" {
		catalog.otherCategory = other
	}
	return catalog, nil
}

// Guidance returns the instructional text of phase, or "" for start.
func (c *Catalog) Guidance(phase Phase) string {
	if c == nil {
		return defaultGuidance[phase]
	}
	return c.guidance[phase]
}

// Classify is the offline grouper: each text goes to the first category
// with a keyword it contains, the rest to the catch-all category. The
// output is deterministic for a given input.
func (c *Catalog) Classify(texts []string) []RawGroup {
	if c == nil {
		c = DefaultCatalog()
	}
	assigned := make([]bool, len(texts))
	lowered := make([]string, len(texts))
	for i, text := range texts {
		lowered[i] = strings.ToLower(text)
	}
	groups := []RawGroup{}
	for _, category := range c.categories {
		var members []int
		for i, text := range lowered {
			if assigned[i] {
				continue
			}
			for _, keyword := range category.Keywords {
				if strings.Contains(text, keyword) {
					members = append(members, i+1)
					assigned[i] = true
					break
				}
			}
		}
		if len(members) > 0 {
			groups = append(groups, RawGroup{
				Category:    category.Category,
				Items:       members,
				Description: "Items related to " + strings.ToLower(category.Category),
			})
		}
	}
	var rest []int
	for i := range texts {
		if !assigned[i] {
			rest = append(rest, i+1)
		}
	}
	if len(rest) > 0 {
		groups = append(groups, RawGroup{
			Category:    c.otherCategory,
			Items:       rest,
			Description: "Items that match no specific category",
		})
	}
	return groups
}
