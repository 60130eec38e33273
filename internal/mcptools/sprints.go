package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zulandar/planboard/internal/models"
	"github.com/zulandar/planboard/internal/query"
)

// ListSprintsTool handles the list_sprints MCP tool.
type ListSprintsTool struct {
	reader *query.Reader
}

// NewListSprintsTool creates a ListSprintsTool.
func NewListSprintsTool(r *query.Reader) *ListSprintsTool {
	return &ListSprintsTool{reader: r}
}

// sprintLine is the compact listing row.
type sprintLine struct {
	Number  int                 `json:"number"`
	Name    string              `json:"name"`
	Status  models.SprintStatus `json:"status"`
	Tickets int                 `json:"tickets"`
	Goal    string              `json:"goal,omitempty"`
}

// Definition returns the MCP tool definition for list_sprints.
func (t *ListSprintsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_sprints",
		mcp.WithDescription("List sprints in document order with status, goal and ticket count."),
	)
}

// Handle processes the list_sprints tool call.
func (t *ListSprintsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sprints := t.reader.Sprints()
	lines := make([]sprintLine, 0, len(sprints))
	for _, sp := range sprints {
		lines = append(lines, sprintLine{
			Number:  sp.Number,
			Name:    sp.Name,
			Status:  sp.Status,
			Tickets: len(sp.Tickets),
			Goal:    sp.Goal,
		})
	}
	return jsonResult(lines)
}

// SprintTool handles the get_sprint MCP tool.
type SprintTool struct {
	reader *query.Reader
}

// NewSprintTool creates a SprintTool.
func NewSprintTool(r *query.Reader) *SprintTool {
	return &SprintTool{reader: r}
}

// Definition returns the MCP tool definition for get_sprint.
func (t *SprintTool) Definition() mcp.Tool {
	return mcp.NewTool("get_sprint",
		mcp.WithDescription("Return one sprint with its tickets, dependencies and definition of done."),
		mcp.WithNumber("number",
			mcp.Required(),
			mcp.Description("Sprint number"),
		),
	)
}

// Handle processes the get_sprint tool call.
func (t *SprintTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, ok := intArg(req, "number")
	if !ok {
		return mcp.NewToolResultError("'number' is required"), nil
	}
	sp, err := t.reader.Sprint(n)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %d: %v", n, err)), nil
	}
	return jsonResult(sp)
}

// SprintSummaryTool handles the get_sprint_summary MCP tool.
type SprintSummaryTool struct {
	reader *query.Reader
}

// NewSprintSummaryTool creates a SprintSummaryTool.
func NewSprintSummaryTool(r *query.Reader) *SprintSummaryTool {
	return &SprintSummaryTool{reader: r}
}

// Definition returns the MCP tool definition for get_sprint_summary.
func (t *SprintSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("get_sprint_summary",
		mcp.WithDescription(
			"Return the execution summary recorded for a sprint: per-ticket timing, agents, tokens and cost.",
		),
		mcp.WithNumber("number",
			mcp.Required(),
			mcp.Description("Sprint number"),
		),
	)
}

// Handle processes the get_sprint_summary tool call.
func (t *SprintSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n, ok := intArg(req, "number")
	if !ok {
		return mcp.NewToolResultError("'number' is required"), nil
	}
	sum, err := t.reader.SprintSummary(n)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sprint %d summary: %v", n, err)), nil
	}
	return jsonResult(sum)
}

// TicketsTool handles the list_tickets MCP tool.
type TicketsTool struct {
	reader *query.Reader
}

// NewTicketsTool creates a TicketsTool.
func NewTicketsTool(r *query.Reader) *TicketsTool {
	return &TicketsTool{reader: r}
}

// Definition returns the MCP tool definition for list_tickets.
func (t *TicketsTool) Definition() mcp.Tool {
	statuses := make([]string, 0, len(models.TicketStatuses))
	for _, s := range models.TicketStatuses {
		statuses = append(statuses, string(s))
	}
	return mcp.NewTool("list_tickets",
		mcp.WithDescription(
			"List tickets across all sprints with their sprint number. "+
				"Optionally filter by status and include bugs.",
		),
		mcp.WithString("status",
			mcp.Description("Only tickets with this status: "+strings.Join(statuses, ", ")),
			mcp.Enum(statuses...),
		),
		mcp.WithBoolean("include_bugs",
			mcp.Description("Also list bug tickets, reported with sprint 0 (default: false)"),
		),
	)
}

// Handle processes the list_tickets tool call.
func (t *TicketsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rows, err := t.reader.Tickets(query.TicketFilter{
		Status:      stringArg(req, "status"),
		IncludeBugs: boolArg(req, "include_bugs", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows)
}
