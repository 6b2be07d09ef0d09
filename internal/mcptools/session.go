package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"workshop/api/internal/export"
)

// CreateTool handles workshop_create.
type CreateTool struct {
	svc Workshop
}

func NewCreateTool(svc Workshop) *CreateTool {
	return &CreateTool{svc: svc}
}

func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("workshop_create",
		mcp.WithDescription("Start a new workshop session positioned at problem_framing."),
		mcp.WithString("board_name",
			mcp.Description("Display name of the workshop (default: Workshop)"),
		),
	)
}

func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := t.svc.Create(ctx, req.GetString("board_name", ""))
	if err != nil {
		return errorResult("create session", err), nil
	}
	return jsonResult(session.Summarize())
}

// GetTool handles workshop_get.
type GetTool struct {
	svc Workshop
}

func NewGetTool(svc Workshop) *GetTool {
	return &GetTool{svc: svc}
}

func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("workshop_get",
		mcp.WithDescription("Return the full state of a workshop session."),
		sessionIDOption(),
	)
}

func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	session, err := t.svc.Get(ctx, id)
	if err != nil {
		return errorResult("load session", err), nil
	}
	return jsonResult(session)
}

// ExportTool handles workshop_export.
type ExportTool struct {
	svc Workshop
}

func NewExportTool(svc Workshop) *ExportTool {
	return &ExportTool{svc: svc}
}

func (t *ExportTool) Definition() mcp.Tool {
	return mcp.NewTool("workshop_export",
		mcp.WithDescription("Export the session as a plain-text summary or a JSON snapshot."),
		sessionIDOption(),
		mcp.WithString("format",
			mcp.Description("text (default) or json"),
			mcp.Enum("text", "json"),
		),
	)
}

func (t *ExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	session, err := t.svc.Get(ctx, id)
	if err != nil {
		return errorResult("load session", err), nil
	}
	snapshot := export.BuildSnapshot(session)
	switch req.GetString("format", "text") {
	case "json":
		return jsonResult(snapshot)
	case "text":
		return mcp.NewToolResultText(export.RenderText(snapshot)), nil
	default:
		return mcp.NewToolResultError("'format' must be text or json"), nil
	}
}
