package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"workshop/api/internal/app"
)

// AddItemTool handles workshop_add_item.
type AddItemTool struct {
	svc Workshop
}

func NewAddItemTool(svc Workshop) *AddItemTool {
	return &AddItemTool{svc: svc}
}

func (t *AddItemTool) Definition() mcp.Tool {
	return mcp.NewTool("workshop_add_item",
		mcp.WithDescription(
			"Add a sticky note to a phase. Features need the id of the module they belong to.",
		),
		sessionIDOption(),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("problem_framing, actors, kpis, modules or features"),
			mcp.Enum(phaseNames...),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Item text"),
		),
		mcp.WithString("module_id",
			mcp.Description("Module item id, required for features"),
		),
		mcp.WithString("created_by",
			mcp.Description("Participant name"),
		),
	)
}

func (t *AddItemTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	phase := req.GetString("phase", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	if phase == "" {
		return mcp.NewToolResultError("'phase' is required"), nil
	}
	item, err := t.svc.AddItem(ctx, id, phase, app.AddItemInput{
		Text:      req.GetString("text", ""),
		ModuleID:  req.GetString("module_id", ""),
		CreatedBy: req.GetString("created_by", ""),
	})
	if err != nil {
		return errorResult("add item", err), nil
	}
	return jsonResult(item)
}

// GroupPhaseTool handles workshop_group_phase.
type GroupPhaseTool struct {
	svc Workshop
}

func NewGroupPhaseTool(svc Workshop) *GroupPhaseTool {
	return &GroupPhaseTool{svc: svc}
}

func (t *GroupPhaseTool) Definition() mcp.Tool {
	return mcp.NewTool("workshop_group_phase",
		mcp.WithDescription(
			"Group the items of a phase into semantic categories. Replaces any previous grouping of that phase.",
		),
		sessionIDOption(),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("problem_framing, actors, kpis or modules"),
			mcp.Enum("problem_framing", "actors", "kpis", "modules"),
		),
	)
}

func (t *GroupPhaseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	phase := req.GetString("phase", "")
	if id == "" || phase == "" {
		return mcp.NewToolResultError("'session_id' and 'phase' are required"), nil
	}
	result, err := t.svc.GroupPhase(ctx, id, phase)
	if err != nil {
		return errorResult("group phase", err), nil
	}
	return jsonResult(result)
}

// VoteTool handles workshop_vote.
type VoteTool struct {
	svc Workshop
}

func NewVoteTool(svc Workshop) *VoteTool {
	return &VoteTool{svc: svc}
}

func (t *VoteTool) Definition() mcp.Tool {
	return mcp.NewTool("workshop_vote",
		mcp.WithDescription(
			"Record a participant's value and complexity rating (1-5 each) for a feature. "+
				"Voting again replaces the participant's earlier vote.",
		),
		sessionIDOption(),
		mcp.WithString("feature_id",
			mcp.Required(),
			mcp.Description("Feature item id"),
		),
		mcp.WithNumber("value",
			mcp.Required(),
			mcp.Description("Business value, 1 to 5"),
		),
		mcp.WithNumber("complexity",
			mcp.Required(),
			mcp.Description("Implementation complexity, 1 to 5"),
		),
		mcp.WithString("participant_id",
			mcp.Required(),
			mcp.Description("Voting participant"),
		),
	)
}

func (t *VoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	feature, err := t.svc.Vote(ctx, id, app.VoteInput{
		FeatureID:     req.GetString("feature_id", ""),
		Value:         intArg(req, "value", 0),
		Complexity:    intArg(req, "complexity", 0),
		ParticipantID: req.GetString("participant_id", ""),
	})
	if err != nil {
		return errorResult("record vote", err), nil
	}
	return jsonResult(feature)
}

// AnalyzeTool handles workshop_analyze_item.
type AnalyzeTool struct {
	svc Workshop
}

func NewAnalyzeTool(svc Workshop) *AnalyzeTool {
	return &AnalyzeTool{svc: svc}
}

func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("workshop_analyze_item",
		mcp.WithDescription(
			"Review a draft item for clarity before adding it. Returns suggestions and related items that may be missing. Nothing is stored.",
		),
		sessionIDOption(),
		mcp.WithString("phase",
			mcp.Required(),
			mcp.Description("problem_framing, actors, kpis, modules or features"),
			mcp.Enum(phaseNames...),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Draft item text"),
		),
	)
}

func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("session_id", "")
	if id == "" {
		return mcp.NewToolResultError("'session_id' is required"), nil
	}
	analysis, err := t.svc.Analyze(ctx, id, req.GetString("phase", ""), req.GetString("text", ""))
	if err != nil {
		return errorResult("analyze item", err), nil
	}
	return jsonResult(analysis)
}
