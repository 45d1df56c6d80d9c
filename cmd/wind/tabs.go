package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/wind/internal/ipc"
)

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runTabs(args []string) int {
	fs := newFlagSet("tabs", "wind tabs [--json]", "List the daemon's tabs in order.")
	jsonOut := fs.Bool("json", false, "Output tabs as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	tabs, err := ipc.NewClient().ListTabs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(tabs)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tKIND\tMODE\tPROCESS\tTITLE")
	for _, t := range tabs {
		marker := ""
		switch {
		case t.Active:
			marker = "*"
		case t.Tiled:
			marker = "+"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", marker, shortID(t.ID), t.Kind, t.Mode, t.ProcessName, t.Title)
	}
	tw.Flush()
	return 0
}

func runWindows(args []string) int {
	fs := newFlagSet("windows", "wind windows [--json]", "List top-level windows that can be embedded.")
	jsonOut := fs.Bool("json", false, "Output windows as JSON")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	windows, err := ipc.NewClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(windows)
	}
	printWindows(os.Stdout, windows)
	return 0
}

func printWindows(w io.Writer, windows []ipc.WindowInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HANDLE\tPID\tPROCESS\tCLASS\tTITLE")
	for _, win := range windows {
		fmt.Fprintf(tw, "0x%x\t%d\t%s\t%s\t%s\n", win.Handle, win.PID, win.ProcessName, win.ClassName, win.Title)
	}
	tw.Flush()
}

// parseHandle accepts decimal or 0x-prefixed hex.
func parseHandle(s string) (uint64, error) {
	h, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid window handle %q", s)
	}
	if h == 0 {
		return 0, fmt.Errorf("window handle must be non-zero")
	}
	return h, nil
}

func runEmbed(args []string) int {
	fs := newFlagSet("embed", "wind embed [--background] <handle>", "Embed a top-level window as a new tab. Handles may be decimal or 0x hex.")
	background := fs.Bool("background", false, "Add the tab without activating it")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "embed requires <handle>")
		fs.Usage()
		return 2
	}
	handle, err := parseHandle(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	tab, err := ipc.NewClient().AddWindow(handle, !*background)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("embedded 0x%x as tab %s (%s)\n", handle, tab.ID, tab.Mode)
	return 0
}

func runActivate(args []string) int {
	fs := newFlagSet("activate", "wind activate <id>", "Activate a tab by id or unique id prefix.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "activate requires <id>")
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().ActivateTab(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runClose(args []string) int {
	fs := newFlagSet("close", "wind close [--action ACTION] <id>", "Close a tab. ACTION is close_app, release_embed or close_outer.")
	action := fs.String("action", "", "Close action (default: config close_action)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "close requires <id>")
		fs.Usage()
		return 2
	}
	if err := ipc.NewClient().CloseTab(fs.Arg(0), *action); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runTile(args []string) int {
	fs := newFlagSet("tile", "wind tile [id...]", "Tile the given tabs, or the current selection when no ids are given.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 1 {
		fmt.Fprintln(os.Stderr, "tile needs at least two ids")
		return 2
	}
	n, err := ipc.NewClient().Tile(fs.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("tiled %d tabs\n", n)
	return 0
}

func runUntile(args []string) int {
	fs := newFlagSet("untile", "wind untile", "Leave tile mode and show only the active tab.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if err := ipc.NewClient().Untile(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runCleanup(args []string) int {
	fs := newFlagSet("cleanup", "wind cleanup", "Remove tabs whose windows no longer exist.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	n, err := ipc.NewClient().Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("removed %d tabs\n", n)
	return 0
}

func printSessionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  wind session save       Save the open window tabs")
	fmt.Fprintln(w, "  wind session restore    Re-embed windows matching the saved tabs")
}

func runSession(args []string) int {
	if len(args) == 0 {
		printSessionUsage(os.Stderr)
		return 2
	}
	client := ipc.NewClient()

	switch args[0] {
	case "save":
		n, err := client.SaveSession()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("saved %d tabs\n", n)
		return 0
	case "restore":
		n, err := client.RestoreSession()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("restored %d tabs\n", n)
		return 0
	case "help", "-h", "--help":
		printSessionUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown session command: %s\n\n", args[0])
		printSessionUsage(os.Stderr)
		return 2
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
