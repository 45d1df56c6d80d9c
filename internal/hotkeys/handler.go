// Package hotkeys binds configured key sequences to tab actions.
package hotkeys

import (
	"fmt"
	"log/slog"

	"github.com/1broseidon/wind/internal/config"
	"github.com/1broseidon/wind/internal/dispatch"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/hashicorp/go-multierror"
)

// Actions maps an action name such as "next_tab" to the function that
// performs it. Actions run on the UI loop.
type Actions map[string]func()

// Handler manages global keyboard shortcuts
type Handler struct {
	reg    platform.HotkeyRegistrar
	poster dispatch.Poster
	logger *slog.Logger
	bound  []config.Binding
}

// NewHandler creates a handler that registers through reg and runs actions
// via poster.
func NewHandler(reg platform.HotkeyRegistrar, poster dispatch.Poster, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reg:    reg,
		poster: poster,
		logger: logger.With("component", "hotkeys"),
	}
}

// Bind registers every binding whose action exists. Bindings that fail are
// skipped; their errors are returned together.
func (h *Handler) Bind(bindings []config.Binding, actions Actions) error {
	var result *multierror.Error
	for _, b := range bindings {
		action, ok := actions[b.Action]
		if !ok {
			result = multierror.Append(result, fmt.Errorf("hotkey %s: unknown action", b.Action))
			continue
		}
		if err := h.RegisterFunc(b.Sequence, b.Action, action); err != nil {
			result = multierror.Append(result, fmt.Errorf("hotkey %s (%s): %w", b.Action, b.Sequence, err))
			continue
		}
		h.bound = append(h.bound, b)
		h.logger.Info("hotkey registered", "action", b.Action, "sequence", b.Sequence)
	}
	return result.ErrorOrNil()
}

// RegisterFunc registers an arbitrary hotkey callback. The callback is
// queued on the UI loop; presses are dropped while the loop is saturated.
func (h *Handler) RegisterFunc(keySequence, name string, callback func()) error {
	return h.reg.RegisterHotkey(keySequence, func() {
		if !h.poster.TryPost(callback) {
			h.logger.Warn("hotkey dropped, loop busy", "action", name)
		}
	})
}

// Bound returns the bindings that were registered.
func (h *Handler) Bound() []config.Binding {
	return append([]config.Binding(nil), h.bound...)
}
