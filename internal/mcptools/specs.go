package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/zulandar/planboard/internal/query"
)

// SpecsTool handles the get_specs MCP tool.
type SpecsTool struct {
	reader *query.Reader
}

// NewSpecsTool creates a SpecsTool.
func NewSpecsTool(r *query.Reader) *SpecsTool {
	return &SpecsTool{reader: r}
}

// Definition returns the MCP tool definition for get_specs.
func (t *SpecsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_specs",
		mcp.WithDescription(
			"Return role specs ordered by role, or a single spec when 'role' is given. "+
				"A spec whose last JSON or YAML parse failed reports the parse error.",
		),
		mcp.WithString("role",
			mcp.Description("Spec role, e.g. frontend or backend"),
		),
	)
}

// Handle processes the get_specs tool call.
func (t *SpecsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	role := stringArg(req, "role")
	if role == "" {
		return jsonResult(t.reader.Specs())
	}
	spec, err := t.reader.Spec(role)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("spec %q: %v", role, err)), nil
	}
	return jsonResult(spec)
}

// ScreensTool handles the list_screens MCP tool.
type ScreensTool struct {
	reader *query.Reader
}

// NewScreensTool creates a ScreensTool.
func NewScreensTool(r *query.Reader) *ScreensTool {
	return &ScreensTool{reader: r}
}

// Definition returns the MCP tool definition for list_screens.
func (t *ScreensTool) Definition() mcp.Tool {
	return mcp.NewTool("list_screens",
		mcp.WithDescription("List UI screens (name, route, description, components) declared in the specs."),
	)
}

// Handle processes the list_screens tool call.
func (t *ScreensTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.reader.Screens())
}
