package mcp

import "github.com/1broseidon/wind/internal/ipc"

// ListTabsInput is the input for the list_tabs tool.
type ListTabsInput struct{}

// ListTabsOutput is the output for the list_tabs tool.
type ListTabsOutput struct {
	ActiveTabID string        `json:"active_tab_id,omitempty"`
	Tabs        []ipc.TabInfo `json:"tabs"`
}

// ListWindowsInput is the input for the list_windows tool.
type ListWindowsInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"Optional case-insensitive substring matched against title and process name"`
}

// ListWindowsOutput is the output for the list_windows tool.
type ListWindowsOutput struct {
	Windows []ipc.WindowInfo `json:"windows"`
}

// EmbedWindowInput is the input for the embed_window tool.
type EmbedWindowInput struct {
	Handle   uint64 `json:"handle" jsonschema:"required,Native window handle as returned by list_windows"`
	Activate *bool  `json:"activate,omitempty" jsonschema:"Whether to select the new tab (default: true)"`
}

// EmbedWindowOutput is the output for the embed_window tool.
type EmbedWindowOutput struct {
	Tab ipc.TabInfo `json:"tab"`
}

// TabInput identifies a tab by id or unique id prefix.
type TabInput struct {
	ID string `json:"id" jsonschema:"required,Tab id or a unique prefix of it"`
}

// CloseTabInput is the input for the close_tab tool.
type CloseTabInput struct {
	ID     string `json:"id" jsonschema:"required,Tab id or a unique prefix of it"`
	Action string `json:"action,omitempty" jsonschema:"close_app, release_embed or close_outer (default: configured close_action)"`
}

// TileTabsInput is the input for the tile_tabs tool.
type TileTabsInput struct {
	IDs []string `json:"ids,omitempty" jsonschema:"Tab ids to show side by side. Empty tiles the multi-selected tabs."`
}

// TileTabsOutput is the output for the tile_tabs tool.
type TileTabsOutput struct {
	Tiled int `json:"tiled"`
}

// AckOutput is returned by tools that have nothing else to report.
type AckOutput struct {
	OK bool `json:"ok"`
}

// UntileInput is the input for the untile tool.
type UntileInput struct{}
