// Package embed captures foreign top-level windows and hosts them inside
// containers owned by this process.
package embed

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/wind/internal/dispatch"
	"github.com/1broseidon/wind/internal/platform"
	"github.com/hashicorp/go-multierror"
)

var (
	// ErrInvalidHandle is returned when the handle is zero or not a window.
	ErrInvalidHandle = errors.New("embed: invalid window handle")
	// ErrAlreadyEmbedded is returned when another host owns the handle.
	ErrAlreadyEmbedded = errors.New("embed: window is already embedded")
	// ErrElevated is returned when the guest runs with higher privileges
	// than this process. Input and reparenting do not cross that boundary.
	ErrElevated = errors.New("embed: window belongs to an elevated process")
	// ErrNotCaptured is returned by Attach on a host that is not in the
	// captured state.
	ErrNotCaptured = errors.New("embed: host is not in the captured state")
)

// Backend is the part of platform.Backend the embedder needs.
type Backend interface {
	platform.WindowOps
	platform.ProcessOps
	platform.EventSource
}

// Options configure a Registry.
type Options struct {
	// PopupClasses are window classes hosted in ClippedPopup mode in
	// addition to the built-in list.
	PopupClasses []string
	Logger       *slog.Logger
}

// Registry is the process-wide table of hosted windows. It guarantees that a
// guest handle is held by at most one live Host. Create one at startup and
// Close it at shutdown.
type Registry struct {
	backend      Backend
	poster       dispatch.Poster
	popupClasses []string
	logger       *slog.Logger

	mu     sync.Mutex
	hosts  map[platform.Handle]*Host
	closed bool
}

// NewRegistry creates a registry. Monitor notifications are posted to poster
// and handled on the goroutine that drains it.
func NewRegistry(backend Backend, poster dispatch.Poster, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backend:      backend,
		poster:       poster,
		popupClasses: append([]string(nil), opts.PopupClasses...),
		logger:       logger.With("component", "embed"),
		hosts:        make(map[platform.Handle]*Host),
	}
}

// Capture reserves h, records its original style and bounds and hides it.
// The returned host is not yet visible anywhere; call Attach to show it
// inside a container.
func (r *Registry) Capture(h platform.Handle) (*Host, error) {
	if h == 0 || !r.backend.IsWindow(h) {
		return nil, ErrInvalidHandle
	}

	host := &Host{reg: r, guest: h}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("embed: registry closed")
	}
	if _, ok := r.hosts[h]; ok {
		r.mu.Unlock()
		return nil, ErrAlreadyEmbedded
	}
	r.hosts[h] = host
	r.mu.Unlock()

	if err := host.capture(); err != nil {
		r.remove(h, host)
		return nil, err
	}

	r.logger.Info("window captured",
		"handle", fmt.Sprintf("0x%x", uintptr(h)),
		"pid", host.pid,
		"class", host.class,
		"mode", host.mode.String())
	return host, nil
}

// Contains reports whether a live host holds h.
func (r *Registry) Contains(h platform.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.hosts[h]
	return ok
}

// Lookup returns the live host holding h.
func (r *Registry) Lookup(h platform.Handle) (*Host, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	host, ok := r.hosts[h]
	return host, ok
}

// Len returns the number of live hosts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hosts)
}

// Close releases every live host and refuses further captures. Restoration
// failures are aggregated.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	hosts := make([]*Host, 0, len(r.hosts))
	for _, host := range r.hosts {
		hosts = append(hosts, host)
	}
	r.mu.Unlock()

	var result *multierror.Error
	for _, host := range hosts {
		if err := host.Release(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// remove drops h only if it is still held by host.
func (r *Registry) remove(h platform.Handle, host *Host) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hosts[h] == host {
		delete(r.hosts, h)
	}
}
