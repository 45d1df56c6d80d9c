package main

import (
	"bytes"
	"flag"
	"strings"
	"testing"

	"github.com/1broseidon/wind/internal/ipc"
)

func TestParseHandle(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{in: "1234", want: 1234},
		{in: "0x4a0001", want: 0x4a0001},
		{in: " 0X10 ", want: 0x10},
		{in: "0", wantErr: true},
		{in: "window", wantErr: true},
		{in: "-5", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseHandle(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseHandle(%q) = %d, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("parseHandle(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestShortID(t *testing.T) {
	if got := shortID("0f8fad5b-d9cb-469f-a165-70867728950e"); got != "0f8fad5b" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID = %q", got)
	}
}

func TestParseFlagsExitCodes(t *testing.T) {
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	if code, ok := parseFlags(fs, []string{"-h"}); ok || code != 0 {
		t.Fatalf("help: code %d ok %v", code, ok)
	}

	fs = flag.NewFlagSet("x", flag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	if code, ok := parseFlags(fs, []string{"--bogus"}); ok || code != 2 {
		t.Fatalf("bad flag: code %d ok %v", code, ok)
	}

	fs = flag.NewFlagSet("x", flag.ContinueOnError)
	if code, ok := parseFlags(fs, []string{"arg"}); !ok || code != 0 {
		t.Fatalf("args: code %d ok %v", code, ok)
	}
}

func TestPrintWindows(t *testing.T) {
	var buf bytes.Buffer
	printWindows(&buf, []ipc.WindowInfo{
		{Handle: 0x1c00003, PID: 42, ProcessName: "gedit", ClassName: "Gedit", Title: "notes"},
	})
	out := buf.String()
	for _, want := range []string{"HANDLE", "0x1c00003", "gedit", "notes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
