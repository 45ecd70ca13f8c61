// Package mcp exposes the panels over the Model Context Protocol so agents
// can read script output and request refreshes.
package mcp

import (
	"context"
	_ "embed"

	"github.com/deixis/scriptpanel"
	"github.com/deixis/scriptpanel/internal/display"
	"github.com/deixis/scriptpanel/internal/supervisor"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

//go:embed instructions.md
var Instructions string

// StatusSource reports scheduler state. Implemented by supervisor.Supervisor.
type StatusSource interface {
	Observe(ctx context.Context) (supervisor.Status, error)
}

// handler holds shared dependencies for all tool handlers.
type handler struct {
	board  *display.Board
	status StatusSource
}

// NewServer creates an MCP server with all panel tools registered.
func NewServer(board *display.Board, status StatusSource) *mcp.Server {
	h := &handler{board: board, status: status}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "scriptpanel", Version: scriptpanel.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "panel_list",
		Description: "List every monitored script with its id, command and current short label.",
	}, h.listHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "panel_show",
		Description: `Show the detail text of one script.

The detail text is the trimmed stderr of the latest run. Use the id from panel_list.`,
	}, h.showHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "panel_refresh",
		Description: `Run one script immediately without waiting for its timer.

The run is asynchronous: the detail text reads "Reloading..." until it completes.`,
	}, h.refreshHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name:        "panel_status",
		Description: "Report whether the scheduler is running, how many timers are armed, and each script's state.",
	}, h.statusHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
