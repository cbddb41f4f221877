package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/huangsam/churnmill/core"
	"github.com/huangsam/churnmill/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	reader  contract.HistoryReader
	mgr     contract.StoreManager
}

func (h *toolHandler) handleChurnReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if w := request.GetInt("workers", 0); w > 0 {
		cfg.Workers = w
	}
	if excl := request.GetString("excludes", ""); excl != "" {
		for part := range strings.SplitSeq(excl, ",") {
			if p := strings.TrimSpace(part); p != "" {
				cfg.Excludes = append(cfg.Excludes, p)
			}
		}
	}

	repos := request.GetString("repos", "")
	since := request.GetString("since", "")
	until := request.GetString("until", "")
	step := request.GetString("step", "")
	threshold := request.GetString("threshold", "")

	// Re-validate the window, step and repository arguments
	if err := contract.RevalidateReport(ctx, cfg, h.reader, repos, since, until, step, threshold); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report parameters: %v", err)), nil
	}

	report, _, err := core.GetChurnReportResults(core.WithSuppressHeader(ctx), cfg, h.reader, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleHistoryStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store := h.mgr.GetRunStore()
	if store == nil {
		return mcp.NewToolResultError("run history is not configured. Set --history-backend to sqlite, mysql or postgresql"), nil
	}

	status, err := store.GetStatus()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get history status: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(status, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
