//go:build linux

package engine

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

const niceness = -15

// RaisePriority lowers the nice value of the process. It needs
// CAP_SYS_NICE; failure only costs latency.
func RaisePriority(logger *slog.Logger) {
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, niceness); err != nil {
		logger.Warn("could not raise process priority", "error", err)
		return
	}
	logger.Debug("process priority raised", "nice", niceness)
}
