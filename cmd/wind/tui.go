package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/wind/internal/ipc"
	"github.com/1broseidon/wind/internal/tui"
)

func runPick(args []string) int {
	fs := newFlagSet("pick", "wind pick", "Browse embeddable windows and embed the selected one.\n\nKeys: enter embed, / filter, r refresh, q quit.")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	tab, err := tui.RunPicker(ipc.NewClient())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if tab != nil {
		fmt.Printf("embedded 0x%x as tab %s\n", tab.Handle, tab.ID)
	}
	return 0
}

func runSettings(args []string) int {
	fs := newFlagSet("settings", "wind settings [--path PATH]", "Edit the configuration in a form, review the diff, then save.")
	path := fs.String("path", "", "Config file path (default: <config dir>/wind/config.yaml)")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	saved, err := tui.RunSettings(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !saved {
		fmt.Println("no changes saved")
	}
	return 0
}
