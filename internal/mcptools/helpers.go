// Package mcptools exposes the read-only query surface as MCP tools.
//
// Each tool follows the same shape:
//   - a struct holding the query.Reader, built by a constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() answers the call with indented JSON text
//
// Lookup failures come back as tool errors, never as Go errors.
package mcptools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// intArg extracts an integer argument. JSON numbers arrive as float64; the
// second result is false when the key is missing or not a number.
func intArg(req mcp.CallToolRequest, key string) (int, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// stringArg extracts a trimmed string argument.
func stringArg(req mcp.CallToolRequest, key string) string {
	v, _ := req.GetArguments()[key].(string)
	return strings.TrimSpace(v)
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcptools: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
