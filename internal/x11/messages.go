package x11

import (
	"github.com/BurntSushi/xgb/xproto"
)

// RequestClose asks the client to close itself with WM_DELETE_WINDOW.
// The message goes straight to the client because a reparented window is no
// longer managed by the window manager.
func (c *Connection) RequestClose(windowID xproto.Window) error {
	deleteAtom, err := c.atom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.atom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// Iconify minimizes a top-level window via WM_CHANGE_STATE.
func (c *Connection) Iconify(windowID xproto.Window) error {
	changeState, err := c.atom("WM_CHANGE_STATE")
	if err != nil {
		return err
	}

	const iconicState = 3
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   changeState,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{iconicState, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// IsDeleteMessage reports whether a client message carries WM_DELETE_WINDOW.
func (c *Connection) IsDeleteMessage(ev xproto.ClientMessageEvent) bool {
	protocolsAtom, err := c.atom("WM_PROTOCOLS")
	if err != nil || ev.Type != protocolsAtom || ev.Format != 32 {
		return false
	}
	deleteAtom, err := c.atom("WM_DELETE_WINDOW")
	if err != nil {
		return false
	}
	return xproto.Atom(ev.Data.Data32[0]) == deleteAtom
}
