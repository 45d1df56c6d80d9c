package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// Controller executes commands on behalf of IPC clients. Implementations
// hand the work to the UI loop and wait for the result.
type Controller interface {
	Status(ctx context.Context) (StatusData, error)
	ListTabs(ctx context.Context) ([]TabInfo, error)
	ListWindows(ctx context.Context) ([]WindowInfo, error)
	AddWindow(ctx context.Context, handle uint64, activate bool) (TabInfo, error)
	ActivateTab(ctx context.Context, id string) error
	CloseTab(ctx context.Context, id, action string) error
	Tile(ctx context.Context, ids []string) (int, error)
	Untile(ctx context.Context) error
	Cleanup(ctx context.Context) (int, error)
	SaveSession(ctx context.Context) (int, error)
	RestoreSession(ctx context.Context) (int, error)
	Shutdown(ctx context.Context) error
}

// DefaultCommandTimeout bounds how long one command may wait for the loop.
const DefaultCommandTimeout = 10 * time.Second

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	ctl          Controller
	logger       *slog.Logger
	timeout      time.Duration
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
	conns        sync.WaitGroup
}

// NewServer creates a server for socketPath. Any stale socket file is removed.
func NewServer(socketPath string, ctl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctl:        ctl,
		logger:     logger.With("component", "ipc"),
		timeout:    DefaultCommandTimeout,
		startTime:  time.Now(),
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()
	return nil
}

// Uptime reports how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isShuttingDown() {
				return
			}
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(conn)
		}()
	}
}

func (s *Server) isShuttingDown() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.shuttingDown
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	resp := s.handleCommand(ctx, req)

	respData, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(ctx context.Context, req *Request) *Response {
	s.logger.Debug("IPC command", "command", req.Command)

	switch req.Command {
	case CommandStatus:
		status, err := s.ctl.Status(ctx)
		if err != nil {
			return errorResponse("Failed to get status", err)
		}
		status.UptimeSeconds = int64(s.Uptime().Seconds())
		status.DaemonRunning = true
		return okResponse(status)

	case CommandListTabs:
		list, err := s.ctl.ListTabs(ctx)
		if err != nil {
			return errorResponse("Failed to list tabs", err)
		}
		return okResponse(TabsData{Tabs: list})

	case CommandListWindows:
		list, err := s.ctl.ListWindows(ctx)
		if err != nil {
			return errorResponse("Failed to list windows", err)
		}
		return okResponse(WindowsData{Windows: list})

	case CommandAddWindow:
		var p AddWindowPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if p.Handle == 0 {
			return NewErrorResponse("handle is required")
		}
		tab, err := s.ctl.AddWindow(ctx, p.Handle, p.Activate)
		if err != nil {
			return errorResponse("Failed to embed window", err)
		}
		return okResponse(tab)

	case CommandActivateTab:
		var p TabPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if err := s.ctl.ActivateTab(ctx, p.ID); err != nil {
			return errorResponse("Failed to activate tab", err)
		}
		return okResponse(nil)

	case CommandCloseTab:
		var p CloseTabPayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		if err := s.ctl.CloseTab(ctx, p.ID, p.Action); err != nil {
			return errorResponse("Failed to close tab", err)
		}
		return okResponse(nil)

	case CommandTile:
		var p TilePayload
		if err := decodePayload(req.Payload, &p); err != nil {
			return NewErrorResponse(err.Error())
		}
		n, err := s.ctl.Tile(ctx, p.IDs)
		if err != nil {
			return errorResponse("Failed to tile", err)
		}
		return okResponse(CountData{Count: n})

	case CommandUntile:
		if err := s.ctl.Untile(ctx); err != nil {
			return errorResponse("Failed to untile", err)
		}
		return okResponse(nil)

	case CommandCleanup:
		return s.countCommand(ctx, "Failed to clean up", s.ctl.Cleanup)

	case CommandSaveSession:
		return s.countCommand(ctx, "Failed to save session", s.ctl.SaveSession)

	case CommandRestoreSession:
		return s.countCommand(ctx, "Failed to restore session", s.ctl.RestoreSession)

	case CommandShutdown:
		if err := s.ctl.Shutdown(ctx); err != nil {
			return errorResponse("Failed to shut down", err)
		}
		return okResponse(nil)

	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

func (s *Server) countCommand(ctx context.Context, failure string, fn func(context.Context) (int, error)) *Response {
	n, err := fn(ctx)
	if err != nil {
		return errorResponse(failure, err)
	}
	return okResponse(CountData{Count: n})
}

func decodePayload(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("Invalid payload: %w", err)
	}
	return nil
}

func okResponse(data any) *Response {
	resp, err := NewOKResponse(data)
	if err != nil {
		return NewErrorResponse(err.Error())
	}
	return resp
}

func errorResponse(prefix string, err error) *Response {
	return NewErrorResponse(fmt.Sprintf("%s: %v", prefix, err))
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server and waits for in-flight
// connections.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	if s.shuttingDown {
		s.shutdownMu.Unlock()
		return
	}
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	s.conns.Wait()
	os.Remove(s.socketPath)
}
