// Package ai implements semantic grouping on top of the Gemini API.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"workshop/api/internal/workshop"
)

const DefaultModel = "gemini-2.0-flash"

// Generator produces raw model text for a prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
}

func (g genaiGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// GeminiGrouper implements workshop.Grouper and workshop.Analyzer.
type GeminiGrouper struct {
	generator Generator
	model     string
}

// NewGeminiGrouper creates a client for the Gemini developer API.
func NewGeminiGrouper(ctx context.Context, apiKey, model string) (*GeminiGrouper, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewGrouper(genaiGenerator{client: client}, model), nil
}

// NewGrouper wraps any generator; used with fakes in tests.
func NewGrouper(generator Generator, model string) *GeminiGrouper {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &GeminiGrouper{generator: generator, model: model}
}

func (g *GeminiGrouper) Group(ctx context.Context, items []string, phaseContext string) ([]workshop.RawGroup, error) {
	text, err := g.generator.Generate(ctx, g.model, BuildPrompt(items, phaseContext))
	if err != nil {
		return nil, fmt.Errorf("generate grouping: %w", err)
	}
	return ParseGroups(text)
}

// BuildPrompt renders the grouping instructions with items numbered from 1.
func BuildPrompt(items []string, phaseContext string) string {
	var b strings.Builder
	b.WriteString("You are a semantic analyst who finds the patterns and concepts behind the notes of a product design workshop.\n\n")
	b.WriteString("CURRENT PHASE CONTEXT:\n")
	b.WriteString(phaseContext)
	b.WriteString("\n\nYour job:\n")
	b.WriteString("1. UNDERSTAND the goal of this workshop phase from the context\n")
	b.WriteString("2. IDENTIFY semantically related concepts with that goal in mind\n")
	b.WriteString("3. GROUP items that share the same underlying concept, purpose or area of impact\n\n")
	b.WriteString("Items:\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	b.WriteString(`
RULES:
- Look for meaning, not literal word matches
- Category names are clear and actionable (1-3 words)
- Every item belongs to exactly one group

Answer ONLY with valid JSON:
{
  "groups": [
    {"category": "Concept name", "items": [1, 3, 5], "description": "What unites these items"}
  ]
}`)
	return b.String()
}

// ParseGroups extracts the groups document from model output, which may wrap
// the JSON in prose or code fences.
func ParseGroups(text string) ([]workshop.RawGroup, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in model response")
	}
	document := text[start : end+1]
	if !gjson.Valid(document) {
		return nil, errors.New("invalid JSON in model response")
	}
	raw := gjson.Get(document, "groups")
	if !raw.IsArray() {
		return nil, errors.New("model response has no groups array")
	}

	groups := make([]workshop.RawGroup, 0, len(raw.Array()))
	raw.ForEach(func(_, value gjson.Result) bool {
		category := strings.TrimSpace(value.Get("category").String())
		if category == "" {
			return true
		}
		group := workshop.RawGroup{
			Category:    category,
			Description: strings.TrimSpace(value.Get("description").String()),
			Items:       []int{},
		}
		value.Get("items").ForEach(func(_, index gjson.Result) bool {
			if index.Type == gjson.Number {
				group.Items = append(group.Items, int(index.Int()))
			}
			return true
		})
		groups = append(groups, group)
		return true
	})
	return groups, nil
}
