package embed

import "strings"

// Mode selects how a guest window is confined to its container.
type Mode int

const (
	// ChildWindow demotes the guest to a child of the container; the window
	// system clips and moves it with the container.
	ChildWindow Mode = iota
	// ClippedPopup keeps the guest a popup reparented into the container and
	// confines it with a clip region. Used for applications whose rendering
	// or input pipeline breaks when the window becomes a child.
	ClippedPopup
)

func (m Mode) String() string {
	switch m {
	case ChildWindow:
		return "child"
	case ClippedPopup:
		return "clipped-popup"
	default:
		return "unknown"
	}
}

// popupClasses lists window classes known to need ClippedPopup: Chromium
// based browsers and Electron apps, and the Office suite.
var popupClasses = []string{
	"Chrome_WidgetWin_0",
	"Chrome_WidgetWin_1",
	"OpusApp",
	"XLMAIN",
	"PPTFrameClass",
	"rctrl_renwnd32",
	"OneNote",
}

// ClassifyClass decides the embed mode for a window class. extra adds
// classes on top of the built-in list. Matching ignores case.
func ClassifyClass(class string, extra []string) Mode {
	class = strings.TrimSpace(class)
	if class == "" {
		return ChildWindow
	}
	if strings.HasPrefix(strings.ToLower(class), "chrome_widgetwin") {
		return ClippedPopup
	}
	for _, list := range [][]string{popupClasses, extra} {
		for _, c := range list {
			if strings.EqualFold(strings.TrimSpace(c), class) {
				return ClippedPopup
			}
		}
	}
	return ChildWindow
}
