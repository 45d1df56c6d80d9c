//go:build linux

package platform

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// unixProcesses implements ProcessOps with signals and /proc. "Elevated"
// means running as root.
type unixProcesses struct{}

func (unixProcesses) IsHostElevated() bool {
	return unix.Geteuid() == 0
}

func (unixProcesses) IsProcessElevated(pid uint32) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(procPath(pid), &st); err != nil {
		return false, fmt.Errorf("stat process %d: %w", pid, err)
	}
	return st.Uid == 0, nil
}

func (unixProcesses) ProcessAlive(pid uint32) bool {
	if pid == 0 {
		return false
	}
	err := unix.Kill(int(pid), 0)
	if err != nil && err != unix.EPERM {
		return false
	}
	// A zombie still answers signals but has already exited.
	status, rerr := os.ReadFile(procPath(pid) + "/stat")
	if rerr != nil {
		return true
	}
	fields := strings.Fields(string(status[strings.LastIndexByte(string(status), ')')+1:]))
	return len(fields) == 0 || fields[0] != "Z"
}

func (unixProcesses) ProcessName(pid uint32) (string, error) {
	data, err := os.ReadFile(procPath(pid) + "/comm")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (unixProcesses) TerminateProcess(pid uint32) error {
	if pid == 0 {
		return fmt.Errorf("invalid pid 0")
	}
	if err := unix.Kill(int(pid), unix.SIGKILL); err != nil && err != unix.ESRCH {
		return fmt.Errorf("kill %d: %w", pid, err)
	}
	return nil
}

func procPath(pid uint32) string {
	return "/proc/" + strconv.FormatUint(uint64(pid), 10)
}
