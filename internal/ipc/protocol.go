package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandStatus         CommandType = "STATUS"
	CommandListTabs       CommandType = "LIST_TABS"
	CommandListWindows    CommandType = "LIST_WINDOWS"
	CommandAddWindow      CommandType = "ADD_WINDOW"
	CommandActivateTab    CommandType = "ACTIVATE_TAB"
	CommandCloseTab       CommandType = "CLOSE_TAB"
	CommandTile           CommandType = "TILE"
	CommandUntile         CommandType = "UNTILE"
	CommandCleanup        CommandType = "CLEANUP"
	CommandSaveSession    CommandType = "SAVE_SESSION"
	CommandRestoreSession CommandType = "RESTORE_SESSION"
	CommandShutdown       CommandType = "SHUTDOWN"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by STATUS
type StatusData struct {
	TabCount      int    `json:"tab_count"`
	ActiveTabID   string `json:"active_tab_id,omitempty"`
	TiledCount    int    `json:"tiled_count"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	DaemonRunning bool   `json:"daemon_running"`
}

// TabInfo describes one tab.
type TabInfo struct {
	ID                string `json:"id"`
	Kind              string `json:"kind"`
	Title             string `json:"title"`
	Handle            uint64 `json:"handle,omitempty"`
	ProcessName       string `json:"process_name,omitempty"`
	PID               uint32 `json:"pid,omitempty"`
	Mode              string `json:"mode,omitempty"`
	Active            bool   `json:"active"`
	Tiled             bool   `json:"tiled"`
	LaunchedAtStartup bool   `json:"launched_at_startup,omitempty"`
}

// TabsData represents the data returned by LIST_TABS
type TabsData struct {
	Tabs []TabInfo `json:"tabs"`
}

// WindowInfo describes a top-level window that can be embedded.
type WindowInfo struct {
	Handle      uint64 `json:"handle"`
	Title       string `json:"title"`
	ClassName   string `json:"class_name"`
	ProcessName string `json:"process_name"`
	PID         uint32 `json:"pid"`
}

// WindowsData represents the data returned by LIST_WINDOWS
type WindowsData struct {
	Windows []WindowInfo `json:"windows"`
}

// AddWindowPayload represents the payload for ADD_WINDOW
type AddWindowPayload struct {
	Handle   uint64 `json:"handle"`
	Activate bool   `json:"activate,omitempty"`
}

// TabPayload selects a tab by id or unique id prefix.
type TabPayload struct {
	ID string `json:"id"`
}

// CloseTabPayload represents the payload for CLOSE_TAB. An empty action uses
// the configured close_action.
type CloseTabPayload struct {
	ID     string `json:"id"`
	Action string `json:"action,omitempty"`
}

// TilePayload represents the payload for TILE. No ids tiles the
// multi-selection.
type TilePayload struct {
	IDs []string `json:"ids,omitempty"`
}

// CountData carries how many items an operation affected.
type CountData struct {
	Count int `json:"count"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data any) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
