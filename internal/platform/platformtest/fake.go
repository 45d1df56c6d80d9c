// Package platformtest provides an in-memory platform.Backend for tests.
package platformtest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/wind/internal/platform"
)

// Window is the scripted state of a fake window. Bounds are relative to the
// parent, or screen coordinates when Parent is zero.
type Window struct {
	Class     string
	Title     string
	Style     platform.Style
	Bounds    platform.Rect
	Parent    platform.Handle
	PID       uint32
	TID       uint32
	Maximized bool
	Minimized bool
	Clip      *platform.Rect
	Owned     bool
}

// Visible reports the visible style bit.
func (w Window) Visible() bool {
	return w.Style.Bits&platform.StyleVisible != 0
}

// Process is the scripted state of a fake process.
type Process struct {
	Name     string
	Elevated bool
	Alive    bool
	// IgnoreClose keeps the process running after PostClose.
	IgnoreClose bool
}

// Call records one backend invocation.
type Call struct {
	Method string
	Handle platform.Handle
}

type subscription struct {
	f      *Fake
	id     int
	pid    uint32
	sink   func(platform.Event)
	closed bool
}

func (s *subscription) Close() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.f.unsubscribes++
	delete(s.f.subs, s.id)
	return nil
}

// Fake implements platform.Backend entirely in memory.
type Fake struct {
	mu sync.Mutex

	// HostElevated is returned by IsHostElevated.
	HostElevated bool

	next         platform.Handle
	windows      map[platform.Handle]*Window
	procs        map[uint32]*Process
	subs         map[int]*subscription
	nextSub      int
	unsubscribes int
	frames       map[platform.Handle]platform.FrameHandlers
	hotkeys      map[string]func()
	failures     map[string]error
	calls        []Call
}

var _ platform.Backend = (*Fake)(nil)

// New returns an empty fake backend.
func New() *Fake {
	return &Fake{
		next:     0x1000,
		windows:  make(map[platform.Handle]*Window),
		procs:    make(map[uint32]*Process),
		subs:     make(map[int]*subscription),
		frames:   make(map[platform.Handle]platform.FrameHandlers),
		hotkeys:  make(map[string]func()),
		failures: make(map[string]error),
	}
}

// AddProcess registers a process. Alive is forced to true.
func (f *Fake) AddProcess(pid uint32, p Process) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.Alive = true
	f.procs[pid] = &p
}

// AddWindow registers a window and returns its handle.
func (f *Fake) AddWindow(w Window) platform.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLocked(w)
}

func (f *Fake) addLocked(w Window) platform.Handle {
	f.next += 0x10
	h := f.next
	cp := w
	f.windows[h] = &cp
	return h
}

// Window returns a snapshot of a window.
func (f *Fake) Window(h platform.Handle) (Window, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// Process returns a snapshot of a process.
func (f *Fake) Process(pid uint32) (Process, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	if !ok {
		return Process{}, false
	}
	return *p, true
}

// Update mutates a window in place.
func (f *Fake) Update(h platform.Handle, fn func(*Window)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		fn(w)
	}
}

// FailOn makes every later call of method return err. A nil err clears it.
func (f *Fake) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, method)
		return
	}
	f.failures[method] = err
}

// Calls returns the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount counts invocations of method, optionally for one handle.
func (f *Fake) CallCount(method string, h platform.Handle) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method && (h == 0 || c.Handle == h) {
			n++
		}
	}
	return n
}

// ResetCalls clears the call log.
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Subscriptions returns the number of open subscriptions.
func (f *Fake) Subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Unsubscribes returns how many subscriptions were actually closed.
func (f *Fake) Unsubscribes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribes
}

// Emit delivers ev to every subscriber of pid on the calling goroutine.
func (f *Fake) Emit(pid uint32, ev platform.Event) {
	f.mu.Lock()
	sinks := f.sinksLocked(pid)
	f.mu.Unlock()
	for _, sink := range sinks {
		sink(ev)
	}
}

func (f *Fake) sinksLocked(pid uint32) []func(platform.Event) {
	ids := make([]int, 0, len(f.subs))
	for id, s := range f.subs {
		if s.pid == pid {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	sinks := make([]func(platform.Event), 0, len(ids))
	for _, id := range ids {
		sinks = append(sinks, f.subs[id].sink)
	}
	return sinks
}

// DestroyWindowExternally removes a guest window and notifies subscribers,
// as if its owner closed it.
func (f *Fake) DestroyWindowExternally(h platform.Handle) {
	f.mu.Lock()
	w, ok := f.windows[h]
	if !ok {
		f.mu.Unlock()
		return
	}
	pid := w.PID
	delete(f.windows, h)
	sinks := f.sinksLocked(pid)
	f.mu.Unlock()
	for _, sink := range sinks {
		sink(platform.Event{Kind: platform.EventDestroyed, Handle: h})
	}
}

// KillSilently ends a process and drops its windows without delivering any
// event.
func (f *Fake) KillSilently(pid uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exitLocked(pid)
}

// MarkExited ends a process but leaves its windows in place, as when a
// stale handle outlives its owner.
func (f *Fake) MarkExited(pid uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.procs[pid]; ok {
		p.Alive = false
	}
}

func (f *Fake) exitLocked(pid uint32) []platform.Handle {
	if p, ok := f.procs[pid]; ok {
		p.Alive = false
	}
	var gone []platform.Handle
	for h, w := range f.windows {
		if w.PID == pid && !w.Owned {
			gone = append(gone, h)
			delete(f.windows, h)
		}
	}
	return gone
}

// exitAndNotify ends pid and delivers destroy events for its windows.
func (f *Fake) exitAndNotify(pid uint32) {
	f.mu.Lock()
	gone := f.exitLocked(pid)
	sinks := f.sinksLocked(pid)
	f.mu.Unlock()
	for _, h := range gone {
		for _, sink := range sinks {
			sink(platform.Event{Kind: platform.EventDestroyed, Handle: h})
		}
	}
}

// ResizeFrame invokes the OnResize handler of a frame.
func (f *Fake) ResizeFrame(h platform.Handle, width, height int) {
	f.mu.Lock()
	handlers := f.frames[h]
	f.mu.Unlock()
	if handlers.OnResize != nil {
		handlers.OnResize(width, height)
	}
}

// CloseFrame invokes the OnClose handler of a frame.
func (f *Fake) CloseFrame(h platform.Handle) {
	f.mu.Lock()
	handlers := f.frames[h]
	f.mu.Unlock()
	if handlers.OnClose != nil {
		handlers.OnClose()
	}
}

// PressHotkey runs the callback bound to sequence.
func (f *Fake) PressHotkey(sequence string) bool {
	f.mu.Lock()
	fn := f.hotkeys[sequence]
	f.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// record logs the call and returns any injected failure. Callers hold mu.
func (f *Fake) record(method string, h platform.Handle) error {
	f.calls = append(f.calls, Call{Method: method, Handle: h})
	return f.failures[method]
}

func (f *Fake) lookup(method string, h platform.Handle) (*Window, error) {
	if err := f.record(method, h); err != nil {
		return nil, err
	}
	w, ok := f.windows[h]
	if !ok {
		return nil, fmt.Errorf("%s: invalid window 0x%x", method, uintptr(h))
	}
	return w, nil
}

func (f *Fake) IsWindow(h platform.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.windows[h]
	return ok
}

func (f *Fake) IsVisible(h platform.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	return ok && w.Visible()
}

func (f *Fake) ClassName(h platform.Handle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("ClassName", h)
	if err != nil {
		return "", err
	}
	return w.Class, nil
}

func (f *Fake) Title(h platform.Handle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("Title", h)
	if err != nil {
		return "", err
	}
	return w.Title, nil
}

func (f *Fake) Style(h platform.Handle) (platform.Style, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("Style", h)
	if err != nil {
		return platform.Style{}, err
	}
	return w.Style, nil
}

func (f *Fake) SetStyle(h platform.Handle, s platform.Style) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("SetStyle", h)
	if err != nil {
		return err
	}
	w.Style = s
	return nil
}

func (f *Fake) WindowRect(h platform.Handle) (platform.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("WindowRect", h)
	if err != nil {
		return platform.Rect{}, err
	}
	r := w.Bounds
	for p := w.Parent; p != 0; {
		pw, ok := f.windows[p]
		if !ok {
			break
		}
		r.X += pw.Bounds.X
		r.Y += pw.Bounds.Y
		p = pw.Parent
	}
	return r, nil
}

func (f *Fake) SetParent(h, parent platform.Handle) (platform.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("SetParent", h)
	if err != nil {
		return 0, err
	}
	if parent != 0 {
		if _, ok := f.windows[parent]; !ok {
			return 0, fmt.Errorf("SetParent: invalid parent 0x%x", uintptr(parent))
		}
	}
	old := w.Parent
	w.Parent = parent
	return old, nil
}

func (f *Fake) SetBounds(h platform.Handle, r platform.Rect, flags platform.PosFlags) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("SetBounds", h)
	if err != nil {
		return err
	}
	w.Bounds = r
	if flags&platform.PosShowWindow != 0 {
		w.Style.Bits |= platform.StyleVisible
	}
	return nil
}

func (f *Fake) Show(h platform.Handle, cmd platform.ShowCmd) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("Show", h)
	if err != nil {
		return err
	}
	switch cmd {
	case platform.ShowHide:
		w.Style.Bits &^= platform.StyleVisible
	case platform.ShowNormal, platform.ShowRestore:
		w.Style.Bits |= platform.StyleVisible
		w.Minimized = false
		w.Maximized = false
	case platform.ShowMinimize:
		w.Style.Bits |= platform.StyleVisible
		w.Minimized = true
	case platform.ShowMaximize:
		w.Style.Bits |= platform.StyleVisible
		w.Maximized = true
		w.Minimized = false
	}
	return nil
}

func (f *Fake) IsMaximized(h platform.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	return ok && w.Maximized
}

func (f *Fake) IsMinimized(h platform.Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	return ok && w.Minimized
}

func (f *Fake) SetClipRegion(h platform.Handle, r *platform.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("SetClipRegion", h)
	if err != nil {
		return err
	}
	if r == nil {
		w.Clip = nil
		return nil
	}
	cp := *r
	w.Clip = &cp
	return nil
}

func (f *Fake) ThreadProcessID(h platform.Handle) (uint32, uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, err := f.lookup("ThreadProcessID", h)
	if err != nil {
		return 0, 0, err
	}
	return w.TID, w.PID, nil
}

func (f *Fake) FocusWindow(h platform.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.lookup("FocusWindow", h)
	return err
}

// PostClose closes the window's process unless it ignores close requests.
func (f *Fake) PostClose(h platform.Handle) error {
	f.mu.Lock()
	w, err := f.lookup("PostClose", h)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	pid := w.PID
	p, ok := f.procs[pid]
	ignore := ok && p.IgnoreClose
	f.mu.Unlock()

	if !ignore {
		f.exitAndNotify(pid)
	}
	return nil
}

func (f *Fake) CreateContainer(parent platform.Handle, r platform.Rect) (platform.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateContainer", parent); err != nil {
		return 0, err
	}
	style := platform.StyleChild | platform.StyleVisible | platform.StyleClipChildren | platform.StyleClipSiblings
	return f.addLocked(Window{
		Class:  "WindHostContainer",
		Style:  platform.Style{Bits: style},
		Bounds: r,
		Parent: parent,
		Owned:  true,
	}), nil
}

func (f *Fake) DestroyWindow(h platform.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lookup("DestroyWindow", h); err != nil {
		return err
	}
	f.destroyTreeLocked(h)
	return nil
}

// destroyTreeLocked removes h and every window below it, the way the window
// system takes children down with their parent.
func (f *Fake) destroyTreeLocked(h platform.Handle) {
	delete(f.windows, h)
	delete(f.frames, h)
	for child, w := range f.windows {
		if w.Parent == h {
			f.destroyTreeLocked(child)
		}
	}
}

func (f *Fake) EnumerateWindows() ([]platform.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("EnumerateWindows", 0); err != nil {
		return nil, err
	}
	handles := make([]platform.Handle, 0, len(f.windows))
	for h, w := range f.windows {
		if !w.Owned {
			handles = append(handles, h)
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles, nil
}

func (f *Fake) IsHostElevated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.HostElevated
}

func (f *Fake) IsProcessElevated(pid uint32) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	if !ok {
		return false, fmt.Errorf("no process %d", pid)
	}
	return p.Elevated, nil
}

func (f *Fake) ProcessAlive(pid uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	return ok && p.Alive
}

func (f *Fake) ProcessName(pid uint32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.procs[pid]
	if !ok {
		return "", fmt.Errorf("no process %d", pid)
	}
	return p.Name, nil
}

// TerminateProcess ends pid and notifies subscribers of its windows.
func (f *Fake) TerminateProcess(pid uint32) error {
	f.mu.Lock()
	err := f.record("TerminateProcess", platform.Handle(pid))
	f.mu.Unlock()
	if err != nil {
		return err
	}
	f.exitAndNotify(pid)
	return nil
}

func (f *Fake) Subscribe(h platform.Handle, pid, _ uint32, sink func(platform.Event)) (platform.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("Subscribe", h); err != nil {
		return nil, err
	}
	f.nextSub++
	s := &subscription{f: f, id: f.nextSub, pid: pid, sink: sink}
	f.subs[s.id] = s
	return s, nil
}

func (f *Fake) CreateFrame(title string, r platform.Rect, handlers platform.FrameHandlers) (platform.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("CreateFrame", 0); err != nil {
		return 0, err
	}
	h := f.addLocked(Window{
		Class:  "WindFrame",
		Title:  title,
		Style:  platform.Style{Bits: platform.FrameBits | platform.StyleVisible | platform.StyleClipChildren},
		Bounds: r,
		Owned:  true,
	})
	f.frames[h] = handlers
	return h, nil
}

func (f *Fake) RegisterHotkey(sequence string, fn func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("RegisterHotkey", 0); err != nil {
		return err
	}
	if _, dup := f.hotkeys[sequence]; dup {
		return fmt.Errorf("hotkey %q already registered", sequence)
	}
	f.hotkeys[sequence] = fn
	return nil
}

func (f *Fake) Close() error {
	return nil
}
