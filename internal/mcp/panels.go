package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/deixis/scriptpanel/internal/display"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type listParams struct{}

func (h *handler) listHandler(ctx context.Context, req *mcp.CallToolRequest, _ listParams) (*mcp.CallToolResult, any, error) {
	snaps := h.board.Snapshots()
	if len(snaps) == 0 {
		return textResult("No scripts configured.\n")
	}
	return textResult(formatList(snaps))
}

func formatList(snaps []display.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scripts (%d):\n", len(snaps))
	for _, s := range snaps {
		fmt.Fprintf(&b, "  %s  %s\n", s.ID, s.Label)
		fmt.Fprintf(&b, "      $ %s\n", s.Command)
	}
	return b.String()
}

type panelParams struct {
	ID string `json:"id" jsonschema:"Panel id from panel_list, e.g. scriptpanel-0."`
}

func (h *handler) showHandler(ctx context.Context, req *mcp.CallToolRequest, params panelParams) (*mcp.CallToolResult, any, error) {
	p, ok := h.board.Panel(params.ID)
	if !ok {
		return errorResult(fmt.Sprintf("unknown panel %q; call panel_list for valid ids", params.ID))
	}
	s := p.Snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", s.ID, s.Label)
	fmt.Fprintf(&b, "Command: %s\n", s.Command)
	if !s.Updated.IsZero() {
		fmt.Fprintf(&b, "Updated: %s\n", s.Updated.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, s.Full)
	return textResult(b.String())
}

func (h *handler) refreshHandler(ctx context.Context, req *mcp.CallToolRequest, params panelParams) (*mcp.CallToolResult, any, error) {
	p, ok := h.board.Panel(params.ID)
	if !ok {
		return errorResult(fmt.Sprintf("unknown panel %q; call panel_list for valid ids", params.ID))
	}
	if !p.Refresh() {
		return errorResult(fmt.Sprintf("panel %s was not refreshed: its script is stopped", params.ID))
	}
	return textResult(fmt.Sprintf("Refresh requested for %s. Call panel_show(id=%q) for the result.\n", params.ID, params.ID))
}

type statusParams struct{}

func (h *handler) statusHandler(ctx context.Context, req *mcp.CallToolRequest, _ statusParams) (*mcp.CallToolResult, any, error) {
	st, err := h.status.Observe(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("scheduler unavailable: %v", err))
	}

	var b strings.Builder
	if st.Running {
		fmt.Fprintln(&b, "Scheduler: running")
	} else {
		fmt.Fprintln(&b, "Scheduler: stopped")
	}
	fmt.Fprintf(&b, "Active timers: %d\n\n", st.ActiveTimers)
	for _, s := range st.Scripts {
		fmt.Fprintf(&b, "  %-15s %-10s every %-8s in flight: %d\n",
			display.PanelID(s.Index), s.State, s.Interval, s.InFlight)
	}
	return textResult(b.String())
}
