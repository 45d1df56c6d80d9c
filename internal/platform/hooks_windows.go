//go:build windows

package platform

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// winSubscription groups the WinEvent hooks installed for one guest process.
type winSubscription struct {
	b     *WindowsBackend
	once  sync.Once
	hooks []uintptr
	sink  func(Event)
}

// hookRanges are the event ranges installed per guest.
var hookRanges = [][2]uintptr{
	{eventObjectDestroy, eventObjectDestroy},
	{eventSystemMoveSizeStart, eventSystemMoveSizeEnd},
	{eventSystemMinimizeStart, eventSystemMinimizeStart},
	{eventObjectLocationChange, eventObjectLocationChange},
}

// Subscribe installs out-of-context WinEvent hooks for pid on the pump
// thread. Events are scoped by process; the embedder filters by handle.
func (b *WindowsBackend) Subscribe(_ Handle, pid, _ uint32, sink func(Event)) (Subscription, error) {
	sub := &winSubscription{b: b, sink: sink}
	var err error
	callErr := b.call(func() {
		for _, rg := range hookRanges {
			hook, _, e := procSetWinEventHook.Call(rg[0], rg[1], 0, winEventCb,
				uintptr(pid), 0, winEventOutOfCtx|winEventSkipOwn)
			if hook == 0 {
				err = fmt.Errorf("set win event hook 0x%x: %w", rg[0], e)
				sub.unhook()
				return
			}
			sub.hooks = append(sub.hooks, hook)
			b.hooks[hook] = sub
		}
	})
	if callErr != nil {
		return nil, callErr
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// unhook runs on the pump thread.
func (s *winSubscription) unhook() {
	for _, hook := range s.hooks {
		procUnhookWinEvent.Call(hook)
		delete(s.b.hooks, hook)
	}
	s.hooks = nil
}

func (s *winSubscription) Close() error {
	var err error
	s.once.Do(func() {
		err = s.b.call(s.unhook)
	})
	return err
}

func winEventProc(hook, event, hwnd, idObject, idChild, _, _ uintptr) uintptr {
	b := current.Load()
	if b == nil {
		return 0
	}
	sub := b.hooks[hook]
	if sub == nil {
		return 0
	}

	windowObject := int32(uint32(idObject)) == objidWindow && int32(uint32(idChild)) == childidSelf

	var kind EventKind
	switch event {
	case eventObjectDestroy:
		if !windowObject {
			return 0
		}
		kind = EventDestroyed
	case eventSystemMoveSizeStart:
		kind = EventMoveSizeStart
	case eventSystemMoveSizeEnd:
		kind = EventMoveSizeEnd
	case eventSystemMinimizeStart:
		kind = EventMinimizeStart
	case eventObjectLocationChange:
		if !windowObject {
			return 0
		}
		kind = EventLocationChanged
	default:
		return 0
	}
	sub.sink(Event{Kind: kind, Handle: Handle(hwnd)})
	return 0
}

// RegisterHotkey registers a sequence such as "ctrl+alt+t" as a thread
// hotkey of the pump thread.
func (b *WindowsBackend) RegisterHotkey(sequence string, fn func()) error {
	mods, vk, err := parseHotkey(sequence)
	if err != nil {
		return err
	}
	var regErr error
	callErr := b.call(func() {
		b.nextKey++
		id := b.nextKey
		if r, _, e := procRegisterHotKey.Call(0, uintptr(id), mods|modNoRepeat, vk); r == 0 {
			regErr = fmt.Errorf("register hotkey %q: %w", sequence, e)
			return
		}
		b.hotkeys[id] = fn
	})
	if callErr != nil {
		return callErr
	}
	return regErr
}

var namedKeys = map[string]uintptr{
	"tab": 0x09, "enter": 0x0D, "return": 0x0D, "escape": 0x1B, "esc": 0x1B,
	"space": 0x20, "pageup": 0x21, "pagedown": 0x22, "end": 0x23, "home": 0x24,
	"left": 0x25, "up": 0x26, "right": 0x27, "down": 0x28,
	"insert": 0x2D, "delete": 0x2E,
}

// parseHotkey accepts '+' or '-' separated sequences like "Ctrl+Shift+W" or
// "Mod4-Tab".
func parseHotkey(sequence string) (uintptr, uintptr, error) {
	parts := strings.FieldsFunc(strings.ToLower(sequence), func(r rune) bool {
		return r == '+' || r == '-'
	})
	if len(parts) == 0 {
		return 0, 0, fmt.Errorf("empty hotkey")
	}

	var mods uintptr
	for _, p := range parts[:len(parts)-1] {
		switch p {
		case "ctrl", "control":
			mods |= modControl
		case "alt", "mod1":
			mods |= modAlt
		case "shift":
			mods |= modShift
		case "win", "super", "mod4":
			mods |= modWin
		default:
			return 0, 0, fmt.Errorf("unknown modifier %q in %q", p, sequence)
		}
	}

	key := parts[len(parts)-1]
	if vk, ok := namedKeys[key]; ok {
		return mods, vk, nil
	}
	if len(key) == 1 {
		r := rune(key[0])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return mods, uintptr(unicode.ToUpper(r)), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(key, "f%d", &n); err == nil && n >= 1 && n <= 24 {
		return mods, uintptr(0x70 + n - 1), nil
	}
	return 0, 0, fmt.Errorf("unknown key %q in %q", key, sequence)
}
