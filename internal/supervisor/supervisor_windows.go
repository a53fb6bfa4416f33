//go:build windows

package supervisor

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// livenessChecker abstracts the platform-specific "is Wox still alive"
// probe behind one interface so Watch stays platform-agnostic.
type livenessChecker interface {
	Alive() bool
	Close()
}

// handleChecker holds an open handle acquired at startup and waits on it
// with a zero timeout, per spec.md §4.2: PID reuse makes "process with
// this PID exists" an unsafe proxy for "the same process is still alive"
// on Windows, so the handle identity is what matters, not the PID.
type handleChecker struct {
	handle windows.Handle
}

// pidFallbackChecker is used only if the initial handle acquisition
// fails — permitted by spec.md §4.2 as a fallback, not the default path.
type pidFallbackChecker struct {
	pid int
}

func newLivenessChecker(pid int) (livenessChecker, error) {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return &pidFallbackChecker{pid: pid}, fmt.Errorf("opening handle to pid %d: %w", pid, err)
	}
	return &handleChecker{handle: h}, nil
}

func (c *handleChecker) Alive() bool {
	event, err := windows.WaitForSingleObject(c.handle, 0)
	if err != nil {
		// An error querying the handle means the process object itself is
		// no longer valid.
		return false
	}
	// WAIT_OBJECT_0 means the process handle has been signaled (the
	// process exited); WAIT_TIMEOUT means it is still running.
	return event == uint32(windows.WAIT_TIMEOUT)
}

func (c *handleChecker) Close() {
	if c.handle != 0 {
		windows.CloseHandle(c.handle)
	}
}

func (c *pidFallbackChecker) Alive() bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(c.pid))
	if err != nil {
		return false
	}
	windows.CloseHandle(h)
	return true
}

func (c *pidFallbackChecker) Close() {}
