package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Tool is one registered MCP tool.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Tools returns every workshop tool in registration order.
func Tools(svc Workshop) []Tool {
	return []Tool{
		NewCreateTool(svc),
		NewGetTool(svc),
		NewAddItemTool(svc),
		NewGroupPhaseTool(svc),
		NewAnalyzeTool(svc),
		NewVoteTool(svc),
		NewAdvanceTool(svc),
		NewRetreatTool(svc),
		NewJumpTool(svc),
		NewExportTool(svc),
	}
}

// NewServer builds an MCP server with the workshop tools registered.
func NewServer(svc Workshop, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"workshop",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	for _, t := range Tools(svc) {
		s.AddTool(t.Definition(), t.Handle)
	}
	return s
}

const instructions = `You facilitate a product-design workshop. A session moves through
problem_framing, actors, kpis, modules, features, prioritization and complete.
Collect items with workshop_add_item, cluster them with workshop_group_phase,
move on with workshop_advance and let participants rate features with
workshop_vote. workshop_export summarizes the result.`
