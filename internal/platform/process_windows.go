//go:build windows

package platform

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

func (b *WindowsBackend) IsHostElevated() bool {
	return windows.GetCurrentProcessToken().IsElevated()
}

// IsProcessElevated treats a process whose token cannot be opened as
// elevated: that is what a medium-integrity caller sees for admin processes.
func (b *WindowsBackend) IsProcessElevated(pid uint32) (bool, error) {
	proc, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		if errors.Is(err, errorAccessDeny) {
			return true, nil
		}
		return false, fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(proc)

	var token windows.Token
	if err := windows.OpenProcessToken(proc, windows.TOKEN_QUERY, &token); err != nil {
		if errors.Is(err, errorAccessDeny) {
			return true, nil
		}
		return false, fmt.Errorf("open token of %d: %w", pid, err)
	}
	defer token.Close()
	return token.IsElevated(), nil
}

func (b *WindowsBackend) ProcessAlive(pid uint32) bool {
	if pid == 0 {
		return false
	}
	proc, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		// The process exists but we may not touch it.
		return errors.Is(err, errorAccessDeny)
	}
	defer windows.CloseHandle(proc)
	ev, err := windows.WaitForSingleObject(proc, 0)
	return err == nil && ev == waitTimeout
}

func (b *WindowsBackend) ProcessName(pid uint32) (string, error) {
	proc, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(proc)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(proc, 0, &buf[0], &size); err != nil {
		return "", fmt.Errorf("query image name of %d: %w", pid, err)
	}
	name := filepath.Base(windows.UTF16ToString(buf[:size]))
	return strings.TrimSuffix(name, filepath.Ext(name)), nil
}

func (b *WindowsBackend) TerminateProcess(pid uint32) error {
	proc, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, pid)
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(proc)
	if err := windows.TerminateProcess(proc, 1); err != nil {
		return fmt.Errorf("terminate %d: %w", pid, err)
	}
	return nil
}
