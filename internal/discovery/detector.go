// Package discovery lists top-level windows that can be hosted.
package discovery

import (
	"sort"
	"strings"
	"sync"

	"github.com/1broseidon/wind/internal/platform"
)

// Backend is the subset of the platform needed to enumerate windows.
type Backend interface {
	platform.WindowOps
	ProcessName(pid uint32) (string, error)
}

// shellClasses are desktop and taskbar windows that are never offered.
var shellClasses = []string{
	"Progman",
	"WorkerW",
	"Shell_TrayWnd",
	"Shell_SecondaryTrayWnd",
	"Windows.UI.Core.CoreWindow",
}

// Detector finds candidate windows on the desktop.
type Detector struct {
	mu       sync.RWMutex
	excluded map[string]bool
	selfPID  uint32
	hosted   func(platform.Handle) bool
}

// NewDetector creates a detector that skips windows owned by selfPID and
// windows for which hosted reports true. hosted may be nil.
func NewDetector(selfPID uint32, hosted func(platform.Handle) bool) *Detector {
	d := &Detector{selfPID: selfPID, hosted: hosted}
	d.UpdateExcludedClasses(nil)
	return d
}

// UpdateExcludedClasses replaces the extra class names to skip. Shell classes
// are always skipped.
func (d *Detector) UpdateExcludedClasses(extra []string) {
	classMap := make(map[string]bool)
	for _, class := range append(append([]string(nil), shellClasses...), extra...) {
		classMap[strings.ToLower(strings.TrimSpace(class))] = true
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.excluded = classMap
}

// FindWindows returns the candidates sorted by process name, then title.
func (d *Detector) FindWindows(backend Backend) ([]platform.WindowInfo, error) {
	handles, err := backend.EnumerateWindows()
	if err != nil {
		return nil, err
	}

	var out []platform.WindowInfo
	for _, h := range handles {
		info, ok := d.inspect(backend, h)
		if !ok {
			continue
		}
		out = append(out, info)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].ProcessName), strings.ToLower(out[j].ProcessName)
		if a != b {
			return a < b
		}
		return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
	})
	return out, nil
}

// FindByPID returns the first candidate owned by pid.
func (d *Detector) FindByPID(backend Backend, pid uint32) (platform.WindowInfo, bool) {
	handles, err := backend.EnumerateWindows()
	if err != nil {
		return platform.WindowInfo{}, false
	}
	for _, h := range handles {
		info, ok := d.inspect(backend, h)
		if ok && info.PID == pid {
			return info, true
		}
	}
	return platform.WindowInfo{}, false
}

// Describe fills a WindowInfo for h without filtering.
func Describe(backend Backend, h platform.Handle) platform.WindowInfo {
	info := platform.WindowInfo{Handle: h}
	info.Title, _ = backend.Title(h)
	info.ClassName, _ = backend.ClassName(h)
	if _, pid, err := backend.ThreadProcessID(h); err == nil {
		info.PID = pid
		info.ProcessName, _ = backend.ProcessName(pid)
	}
	return info
}

func (d *Detector) inspect(backend Backend, h platform.Handle) (platform.WindowInfo, bool) {
	if !backend.IsWindow(h) || !backend.IsVisible(h) {
		return platform.WindowInfo{}, false
	}
	if d.hosted != nil && d.hosted(h) {
		return platform.WindowInfo{}, false
	}
	style, err := backend.Style(h)
	if err != nil {
		return platform.WindowInfo{}, false
	}
	if style.Bits&platform.StyleChild != 0 || style.ExBits&platform.ExToolWindow != 0 {
		return platform.WindowInfo{}, false
	}

	info := Describe(backend, h)
	if strings.TrimSpace(info.Title) == "" {
		return platform.WindowInfo{}, false
	}
	if info.PID != 0 && info.PID == d.selfPID {
		return platform.WindowInfo{}, false
	}
	if d.isExcludedClass(info.ClassName) {
		return platform.WindowInfo{}, false
	}
	return info, true
}

func (d *Detector) isExcludedClass(class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.excluded[strings.ToLower(class)]
}
