// Package mcptools exposes workshop operations as MCP tools so AI assistants
// can facilitate a session over stdio.
//
// Each tool is a struct holding the app service, with Definition() returning
// the mcp.Tool schema and Handle() processing a call.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"workshop/api/internal/app"
	"workshop/api/internal/workshop"
)

// Workshop is the subset of *app.Service the tools call.
type Workshop interface {
	Create(ctx context.Context, boardName string) (*workshop.Session, error)
	Get(ctx context.Context, id string) (*workshop.Session, error)
	AddItem(ctx context.Context, id, phase string, input app.AddItemInput) (workshop.Item, error)
	GroupPhase(ctx context.Context, id, phase string) (workshop.GroupingResult, error)
	Analyze(ctx context.Context, id, phase, text string) (workshop.Analysis, error)
	Vote(ctx context.Context, id string, input app.VoteInput) (workshop.PrioritizedFeature, error)
	Advance(ctx context.Context, id, actor string) (app.PhaseState, error)
	Retreat(ctx context.Context, id, actor string) (app.PhaseState, error)
	JumpTo(ctx context.Context, id, target, actor string) (app.PhaseState, error)
}

var phaseNames = func() []string {
	phases := workshop.Phases()
	out := make([]string, len(phases))
	for i, phase := range phases {
		out[i] = string(phase)
	}
	return out
}()

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func errorResult(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

func sessionIDOption() mcp.ToolOption {
	return mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Workshop session id"),
	)
}
