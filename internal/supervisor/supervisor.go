// Package supervisor implements the CLI entry parsing and liveness
// poller (C2): parse <port> <logDirectory> <woxPid>, then watch the Wox
// process and exit non-zero the moment it is gone.
package supervisor

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Args holds the three positional CLI arguments spec.md §6 mandates.
type Args struct {
	Port         int
	LogDirectory string
	WoxPid       int
}

// ParseArgs parses argv[1:] (excluding the binary name) into Args. A
// malformed or missing argument makes the host exit 1 (spec.md §6).
func ParseArgs(argv []string) (Args, error) {
	if len(argv) != 3 {
		return Args{}, fmt.Errorf("usage: <port> <logDirectory> <woxPid>, got %d argument(s)", len(argv))
	}

	port, err := strconv.Atoi(argv[0])
	if err != nil {
		return Args{}, fmt.Errorf("parsing port %q: %w", argv[0], err)
	}
	if port <= 0 || port > 65535 {
		return Args{}, fmt.Errorf("port %d out of range", port)
	}

	logDir := argv[1]
	if logDir == "" {
		return Args{}, fmt.Errorf("logDirectory must not be empty")
	}

	woxPid, err := strconv.Atoi(argv[2])
	if err != nil {
		return Args{}, fmt.Errorf("parsing woxPid %q: %w", argv[2], err)
	}
	if woxPid <= 0 {
		return Args{}, fmt.Errorf("woxPid %d out of range", woxPid)
	}

	return Args{Port: port, LogDirectory: logDir, WoxPid: woxPid}, nil
}

// pollInterval is fixed per spec.md §4.2.
const pollInterval = 1 * time.Second

// Watch blocks, polling the Wox process's liveness every pollInterval,
// until liveness detects death, returning then. The platform-specific
// liveness prober is supplied by newLivenessChecker (supervisor_unix.go /
// supervisor_windows.go).
func Watch(pid int, logger *slog.Logger) {
	checker, err := newLivenessChecker(pid)
	if err != nil {
		logger.Error("failed to acquire Wox process handle, falling back to PID probing",
			slog.Int("wox_pid", pid), slog.String("error", err.Error()))
	}
	defer checker.Close()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for range ticker.C {
		if !checker.Alive() {
			logger.Error("wox process no longer alive, shutting down", slog.Int("wox_pid", pid))
			return
		}
	}
}
