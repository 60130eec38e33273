package mcptools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zulandar/planboard/internal/query"
)

// StateTool handles the get_state MCP tool.
type StateTool struct {
	reader *query.Reader
}

// NewStateTool creates a StateTool.
func NewStateTool(r *query.Reader) *StateTool {
	return &StateTool{reader: r}
}

// Definition returns the MCP tool definition for get_state.
func (t *StateTool) Definition() mcp.Tool {
	return mcp.NewTool("get_state",
		mcp.WithDescription(
			"Return the full project snapshot: backlog, sprint summaries, specs, prompts, "+
				"burndown and the snapshot version.",
		),
	)
}

// Handle processes the get_state tool call.
func (t *StateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.reader.State())
}

// BurndownTool handles the get_burndown MCP tool.
type BurndownTool struct {
	reader *query.Reader
}

// NewBurndownTool creates a BurndownTool.
func NewBurndownTool(r *query.Reader) *BurndownTool {
	return &BurndownTool{reader: r}
}

// Definition returns the MCP tool definition for get_burndown.
func (t *BurndownTool) Definition() mcp.Tool {
	return mcp.NewTool("get_burndown",
		mcp.WithDescription(
			"Return the story-point burndown series (date, remaining, completed, ideal), oldest first.",
		),
	)
}

// Handle processes the get_burndown tool call.
func (t *BurndownTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.reader.Burndown())
}

// MetricsTool handles the get_metrics MCP tool.
type MetricsTool struct {
	reader *query.Reader
}

// NewMetricsTool creates a MetricsTool.
func NewMetricsTool(r *query.Reader) *MetricsTool {
	return &MetricsTool{reader: r}
}

// Definition returns the MCP tool definition for get_metrics.
func (t *MetricsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_metrics",
		mcp.WithDescription(
			"Return aggregate metrics: completion, points, per-sprint progress, owner and "+
				"model-tier breakdowns, bug counts, token and cost totals.",
		),
	)
}

// Handle processes the get_metrics tool call.
func (t *MetricsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.reader.Metrics())
}
