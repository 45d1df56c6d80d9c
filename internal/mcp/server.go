// Package mcp exposes the running daemon's tab operations as MCP tools.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wind/internal/ipc"
)

const (
	ServerName    = "wind"
	ServerVersion = "0.1.0"
)

// Daemon is the subset of the IPC client the tools call.
type Daemon interface {
	ListTabs() ([]ipc.TabInfo, error)
	ListWindows() ([]ipc.WindowInfo, error)
	AddWindow(handle uint64, activate bool) (*ipc.TabInfo, error)
	ActivateTab(id string) error
	CloseTab(id, action string) error
	Tile(ids []string) (int, error)
	Untile() error
}

var _ Daemon = (*ipc.Client)(nil)

// Server is the MCP server for wind.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server that forwards tool calls to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger.With("component", "mcp"),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_tabs",
		Description: "List the tabs hosted by the wind daemon in strip order, with their window, process, embedding mode and whether they are active or tiled.",
	}, s.handleListTabs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_windows",
		Description: "List top-level desktop windows that can be embedded. Windows already hosted by wind, shell windows and tool windows are left out.",
	}, s.handleListWindows)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "embed_window",
		Description: "Embed a window, identified by the handle from list_windows, in a new tab. Windows of elevated processes cannot be embedded.",
	}, s.handleEmbedWindow)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "activate_tab",
		Description: "Select a tab and show its window.",
	}, s.handleActivateTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_tab",
		Description: "Close a tab. close_app asks the application to exit, release_embed gives the window back to the desktop, close_outer shuts wind down.",
	}, s.handleCloseTab)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "tile_tabs",
		Description: "Show two or more window tabs side by side in a grid. Returns the number of tiled tabs.",
	}, s.handleTileTabs)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "untile",
		Description: "Stop tiling and return to showing one tab at a time.",
	}, s.handleUntile)
}
