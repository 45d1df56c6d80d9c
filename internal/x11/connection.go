package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// hasShape reports whether the SHAPE extension is available for clip
	// regions.
	hasShape bool

	loopOnce sync.Once
	done     chan struct{}
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
		done:  make(chan struct{}),
	}
	if err := shape.Init(xu.Conn()); err == nil {
		c.hasShape = true
	}
	configureIgnoreMods(xu)
	return c, nil
}

// HasShape reports whether the SHAPE extension was initialized.
func (c *Connection) HasShape() bool {
	return c.hasShape
}

// StartEventLoop runs the X11 event loop on its own goroutine. Only the first
// call starts a loop.
func (c *Connection) StartEventLoop() {
	c.loopOnce.Do(func() {
		go func() {
			defer close(c.done)
			xevent.Main(c.XUtil)
		}()
	})
}

// Close stops the event loop and disconnects from the X11 server
func (c *Connection) Close() {
	xevent.Quit(c.XUtil)
	c.XUtil.Conn().Close()
}

// Done is closed once the event loop has returned.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(c.XUtil.Conn(), false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("failed to intern %s: %w", name, err)
	}
	return reply.Atom, nil
}
