package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/1broseidon/wind/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a client for the default socket.
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}
	return NewClientAt(socketPath)
}

// NewClientAt creates a client for socketPath.
func NewClientAt(socketPath string) *Client {
	return &Client{
		socketPath: socketPath,
		timeout:    DefaultCommandTimeout + 5*time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// call sends command with an optional payload and decodes the response data
// into out when out is non-nil.
func (c *Client) call(command CommandType, payload any, out any) error {
	req := &Request{Command: command}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", command, err)
		}
		req.Payload = data
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", command, err)
	}
	return nil
}

// GetStatus retrieves daemon status
func (c *Client) GetStatus() (*StatusData, error) {
	var status StatusData
	if err := c.call(CommandStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListTabs returns the daemon's tabs in strip order.
func (c *Client) ListTabs() ([]TabInfo, error) {
	var data TabsData
	if err := c.call(CommandListTabs, nil, &data); err != nil {
		return nil, err
	}
	return data.Tabs, nil
}

// ListWindows returns the windows the daemon could embed.
func (c *Client) ListWindows() ([]WindowInfo, error) {
	var data WindowsData
	if err := c.call(CommandListWindows, nil, &data); err != nil {
		return nil, err
	}
	return data.Windows, nil
}

// AddWindow embeds the window with the given handle.
func (c *Client) AddWindow(handle uint64, activate bool) (*TabInfo, error) {
	var tab TabInfo
	if err := c.call(CommandAddWindow, AddWindowPayload{Handle: handle, Activate: activate}, &tab); err != nil {
		return nil, err
	}
	return &tab, nil
}

// ActivateTab selects a tab by id or unique id prefix.
func (c *Client) ActivateTab(id string) error {
	return c.call(CommandActivateTab, TabPayload{ID: id}, nil)
}

// CloseTab closes a tab. An empty action uses the configured one.
func (c *Client) CloseTab(id, action string) error {
	return c.call(CommandCloseTab, CloseTabPayload{ID: id, Action: action}, nil)
}

// Tile shows the given tabs side by side, or the multi-selection when ids
// is empty. It returns the number of tiled tabs.
func (c *Client) Tile(ids []string) (int, error) {
	var data CountData
	if err := c.call(CommandTile, TilePayload{IDs: ids}, &data); err != nil {
		return 0, err
	}
	return data.Count, nil
}

// Untile stops tiling.
func (c *Client) Untile() error {
	return c.call(CommandUntile, nil, nil)
}

// Cleanup removes tabs whose windows have vanished and returns how many.
func (c *Client) Cleanup() (int, error) {
	return c.count(CommandCleanup)
}

// SaveSession writes the session file and returns the number of saved tabs.
func (c *Client) SaveSession() (int, error) {
	return c.count(CommandSaveSession)
}

// RestoreSession re-adopts saved windows and returns how many were found.
func (c *Client) RestoreSession() (int, error) {
	return c.count(CommandRestoreSession)
}

// Shutdown asks the daemon to exit.
func (c *Client) Shutdown() error {
	return c.call(CommandShutdown, nil, nil)
}

func (c *Client) count(command CommandType) (int, error) {
	var data CountData
	if err := c.call(command, nil, &data); err != nil {
		return 0, err
	}
	return data.Count, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.GetStatus()
	return err
}
