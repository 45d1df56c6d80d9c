// Package tabs maps logical tabs onto hosted windows and owns activation,
// tiling and the close protocols.
package tabs

import (
	"fmt"
	"strings"

	"github.com/1broseidon/wind/internal/embed"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/google/uuid"
)

// Kind is the content type of a tab.
type Kind int

const (
	KindWindow Kind = iota
	KindContent
	KindWeb
)

func (k Kind) String() string {
	switch k {
	case KindWindow:
		return "window"
	case KindContent:
		return "content"
	case KindWeb:
		return "web"
	default:
		return "unknown"
	}
}

// Tab is one entry of the tab strip. Only window tabs carry a host.
type Tab struct {
	ID         uuid.UUID
	Kind       Kind
	Title      string
	ContentKey string
	URL        string
	Window     platform.WindowInfo

	Tiled             bool
	MultiSelected     bool
	LaunchedAtStartup bool

	host *embed.Host
}

// Host returns the embedder of a window tab, or nil.
func (t *Tab) Host() *embed.Host {
	return t.host
}

// Handle returns the guest window handle, or zero for non-window tabs.
func (t *Tab) Handle() platform.Handle {
	if t.Kind != KindWindow {
		return 0
	}
	return t.Window.Handle
}

// CloseAction decides what closing a window tab does.
type CloseAction int

const (
	// CloseApp asks the guest application to exit.
	CloseApp CloseAction = iota
	// ReleaseEmbed gives the window back to the desktop.
	ReleaseEmbed
	// CloseOuter closes the host application instead of the tab.
	CloseOuter
)

func (a CloseAction) String() string {
	switch a {
	case CloseApp:
		return "close_app"
	case ReleaseEmbed:
		return "release_embed"
	case CloseOuter:
		return "close_outer"
	default:
		return "unknown"
	}
}

// ParseCloseAction accepts snake_case names and the PascalCase names used
// by older settings files.
func ParseCloseAction(s string) (CloseAction, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "", "closeapp":
		return CloseApp, nil
	case "releaseembed":
		return ReleaseEmbed, nil
	case "closeouter", "closewind":
		return CloseOuter, nil
	default:
		return CloseApp, fmt.Errorf("unknown close action %q", s)
	}
}

// ExitMode decides what happens to hosted windows when the host exits.
type ExitMode int

const (
	// ExitRelease gives every window back to the desktop.
	ExitRelease ExitMode = iota
	// ExitCloseAll closes every hosted application.
	ExitCloseAll
	// ExitCloseStartup closes applications launched at startup and
	// releases the rest.
	ExitCloseStartup
)

func (m ExitMode) String() string {
	switch m {
	case ExitRelease:
		return "none"
	case ExitCloseAll:
		return "all"
	case ExitCloseStartup:
		return "startup_only"
	default:
		return "unknown"
	}
}

// ParseExitMode parses the close_windows_on_exit setting.
func ParseExitMode(s string) (ExitMode, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "", "none", "release":
		return ExitRelease, nil
	case "all":
		return ExitCloseAll, nil
	case "startuponly", "startup":
		return ExitCloseStartup, nil
	default:
		return ExitRelease, fmt.Errorf("unknown exit mode %q", s)
	}
}
