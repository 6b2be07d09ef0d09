package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"workshop/api/internal/app"
)

// PhaseTool handles workshop_advance, workshop_retreat and workshop_jump.
type PhaseTool struct {
	svc  Workshop
	kind string
}

func NewAdvanceTool(svc Workshop) *PhaseTool { return &PhaseTool{svc: svc, kind: "advance"} }
func NewRetreatTool(svc Workshop) *PhaseTool { return &PhaseTool{svc: svc, kind: "retreat"} }
func NewJumpTool(svc Workshop) *PhaseTool    { return &PhaseTool{svc: svc, kind: "jump"} }

func (t *PhaseTool) Definition() mcp.Tool {
	actor := mcp.WithString("actor", mcp.Description("Facilitator name recorded in the history"))
	switch t.kind {
	case "retreat":
		return mcp.NewTool("workshop_retreat",
			mcp.WithDescription("Go back one phase. Does nothing at problem_framing."),
			sessionIDOption(),
			actor,
		)
	case "jump":
		return mcp.NewTool("workshop_jump",
			mcp.WithDescription("Move the session directly to any phase."),
			sessionIDOption(),
			mcp.WithString("phase",
				mcp.Required(),
				mcp.Description("Target phase"),
				mcp.Enum(phaseNames...),
			),
			actor,
		)
	default:
		return mcp.NewTool("workshop_advance",
			mcp.WithDescription("Move to the next phase and return its guidance. Stays put at complete."),
			sessionIDOption(),
			actor,
		)
	}
}

func (t *PhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	actor := req.GetString("actor", "")

	var (
		state app.PhaseState
		err   error
	)
	switch t.kind {
	case "retreat":
		state, err = t.svc.Retreat(ctx, id, actor)
	case "jump":
		state, err = t.svc.JumpTo(ctx, id, req.GetString("phase", ""), actor)
	default:
		state, err = t.svc.Advance(ctx, id, actor)
	}
	if err != nil {
		return errorResult(t.kind, err), nil
	}
	return jsonResult(state)
}
