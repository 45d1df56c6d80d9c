package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wind/internal/ipc"
)

func (s *Server) handleListTabs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListTabsInput) (*mcpsdk.CallToolResult, ListTabsOutput, error) {
	tabs, err := s.daemon.ListTabs()
	if err != nil {
		return nil, ListTabsOutput{}, fmt.Errorf("list tabs: %w", err)
	}
	out := ListTabsOutput{Tabs: tabs}
	if out.Tabs == nil {
		out.Tabs = []ipc.TabInfo{}
	}
	for _, t := range tabs {
		if t.Active {
			out.ActiveTabID = t.ID
			break
		}
	}
	s.logger.Debug("list_tabs", "count", len(tabs))
	return nil, out, nil
}

func (s *Server) handleListWindows(_ context.Context, _ *mcpsdk.CallToolRequest, args ListWindowsInput) (*mcpsdk.CallToolResult, ListWindowsOutput, error) {
	windows, err := s.daemon.ListWindows()
	if err != nil {
		return nil, ListWindowsOutput{}, fmt.Errorf("list windows: %w", err)
	}
	filter := strings.ToLower(strings.TrimSpace(args.Filter))
	out := ListWindowsOutput{Windows: make([]ipc.WindowInfo, 0, len(windows))}
	for _, w := range windows {
		if filter != "" &&
			!strings.Contains(strings.ToLower(w.Title), filter) &&
			!strings.Contains(strings.ToLower(w.ProcessName), filter) {
			continue
		}
		out.Windows = append(out.Windows, w)
	}
	s.logger.Debug("list_windows", "count", len(out.Windows), "filter", filter)
	return nil, out, nil
}

func (s *Server) handleEmbedWindow(_ context.Context, _ *mcpsdk.CallToolRequest, args EmbedWindowInput) (*mcpsdk.CallToolResult, EmbedWindowOutput, error) {
	if args.Handle == 0 {
		return nil, EmbedWindowOutput{}, fmt.Errorf("handle is required")
	}
	activate := true
	if args.Activate != nil {
		activate = *args.Activate
	}
	tab, err := s.daemon.AddWindow(args.Handle, activate)
	if err != nil {
		return nil, EmbedWindowOutput{}, fmt.Errorf("embed window 0x%x: %w", args.Handle, err)
	}
	s.logger.Info("embed_window", "handle", args.Handle, "tab", tab.ID)
	return nil, EmbedWindowOutput{Tab: *tab}, nil
}

func (s *Server) handleActivateTab(_ context.Context, _ *mcpsdk.CallToolRequest, args TabInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	id := strings.TrimSpace(args.ID)
	if id == "" {
		return nil, AckOutput{}, fmt.Errorf("id is required")
	}
	if err := s.daemon.ActivateTab(id); err != nil {
		return nil, AckOutput{}, fmt.Errorf("activate tab %s: %w", id, err)
	}
	s.logger.Info("activate_tab", "tab", id)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleCloseTab(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseTabInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	id := strings.TrimSpace(args.ID)
	if id == "" {
		return nil, AckOutput{}, fmt.Errorf("id is required")
	}
	if err := s.daemon.CloseTab(id, args.Action); err != nil {
		return nil, AckOutput{}, fmt.Errorf("close tab %s: %w", id, err)
	}
	s.logger.Info("close_tab", "tab", id, "action", args.Action)
	return nil, AckOutput{OK: true}, nil
}

func (s *Server) handleTileTabs(_ context.Context, _ *mcpsdk.CallToolRequest, args TileTabsInput) (*mcpsdk.CallToolResult, TileTabsOutput, error) {
	if len(args.IDs) == 1 {
		return nil, TileTabsOutput{}, fmt.Errorf("tiling needs at least two tabs")
	}
	n, err := s.daemon.Tile(args.IDs)
	if err != nil {
		return nil, TileTabsOutput{}, fmt.Errorf("tile tabs: %w", err)
	}
	s.logger.Info("tile_tabs", "tiled", n)
	return nil, TileTabsOutput{Tiled: n}, nil
}

func (s *Server) handleUntile(_ context.Context, _ *mcpsdk.CallToolRequest, _ UntileInput) (*mcpsdk.CallToolResult, AckOutput, error) {
	if err := s.daemon.Untile(); err != nil {
		return nil, AckOutput{}, fmt.Errorf("untile: %w", err)
	}
	s.logger.Info("untile")
	return nil, AckOutput{OK: true}, nil
}
