package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/zulandar/planboard/internal/query"
)

// StateURI addresses the snapshot resource.
const StateURI = "planboard://state"

const instructions = `Planboard answers read-only questions about a project's planning documents
(backlog, sprint summaries, role specs and prompts). Data is refreshed from disk
as files change; every answer reflects the latest consistent snapshot.
Start with list_sprints or get_metrics, then drill into get_sprint or list_tickets.`

// NewServer builds an MCP server with every query tool registered.
func NewServer(r *query.Reader, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"planboard",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	Register(s, r)
	return s
}

// Register adds the query tools and the state resource to s.
func Register(s *server.MCPServer, r *query.Reader) {
	stateTool := NewStateTool(r)
	s.AddTool(stateTool.Definition(), stateTool.Handle)

	listSprints := NewListSprintsTool(r)
	s.AddTool(listSprints.Definition(), listSprints.Handle)

	sprintTool := NewSprintTool(r)
	s.AddTool(sprintTool.Definition(), sprintTool.Handle)

	summaryTool := NewSprintSummaryTool(r)
	s.AddTool(summaryTool.Definition(), summaryTool.Handle)

	ticketsTool := NewTicketsTool(r)
	s.AddTool(ticketsTool.Definition(), ticketsTool.Handle)

	specsTool := NewSpecsTool(r)
	s.AddTool(specsTool.Definition(), specsTool.Handle)

	screensTool := NewScreensTool(r)
	s.AddTool(screensTool.Definition(), screensTool.Handle)

	burndownTool := NewBurndownTool(r)
	s.AddTool(burndownTool.Definition(), burndownTool.Handle)

	metricsTool := NewMetricsTool(r)
	s.AddTool(metricsTool.Definition(), metricsTool.Handle)

	s.AddResource(stateResource(), stateHandler(r))
}

func stateResource() mcp.Resource {
	return mcp.NewResource(
		StateURI,
		"Project snapshot",
		mcp.WithResourceDescription("Current normalized project state as JSON"),
		mcp.WithMIMEType("application/json"),
	)
}

func stateHandler(r *query.Reader) func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.MarshalIndent(r.State(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("mcptools: marshal state: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}
}
