// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/churnmill/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Churnmill MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, reader contract.HistoryReader, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Churnmill Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		reader:  reader,
		mgr:     mgr,
	}

	// --- 1. Tool: churn_report ---
	s.AddTool(mcp.NewTool("churn_report",
		mcp.WithDescription("Compute the monthly mean code churn series for one or more Git repositories."),
		mcp.WithString("repos", mcp.Description("Comma-separated repository paths (defaults to the server's configured repositories).")),
		mcp.WithString("since", mcp.Description("Window start (e.g., '2024-01-01', '6 months ago').")),
		mcp.WithString("until", mcp.Description("Window end (defaults to now).")),
		mcp.WithString("step", mcp.Description("Interval stride (e.g., '1 month', '2 weeks').")),
		mcp.WithNumber("workers", mcp.Description("Number of concurrent snapshot workers per repository.")),
		mcp.WithString("threshold", mcp.Description("Split month (e.g., '2024-06') for a before/after churn summary.")),
		mcp.WithString("excludes", mcp.Description("Comma-separated path fragments to exclude from churn counting.")),
	), h.handleChurnReport)

	// --- 2. Tool: history_status ---
	s.AddTool(mcp.NewTool("history_status",
		mcp.WithDescription("Report the state of the run-history store (backend, run counts, storage size)."),
	), h.handleHistoryStatus)

	return s
}

// StartMCPServer starts the Churnmill MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, reader contract.HistoryReader, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, reader, mgr)
	return server.ServeStdio(s)
}
