package backend

import (
	"fmt"

	"github.com/giantswarm/procpipe/internal/sentinel"
	"golang.org/x/sys/unix"
)

// ErrPidMismatch indicates the kernel reported a different pid than the one
// waited for. This is a tracking bug (for example a double wait or a wait
// issued through the wrong backend), not a normal runtime failure.
const ErrPidMismatch = sentinel.Error("waited pid does not match")

// ErrUnknownWaitStatus indicates a wait status that is neither a normal
// exit, a signal death, nor a stop.
const ErrUnknownWaitStatus = sentinel.Error("unrecognized wait status")

// waitPID blocks until pid exits and returns its status in the signed
// convention. Used by the native and forkexec backends, and as the fallback
// for pids the subprocess backend does not manage.
func waitPID(pid int) (int, error) {
	var ws unix.WaitStatus
	for {
		wpid, err := unix.Wait4(pid, &ws, 0, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("wait pid %d: %w", pid, err)
		}
		if wpid != pid {
			return 0, fmt.Errorf("wait pid %d, kernel reported %d: %w", pid, wpid, ErrPidMismatch)
		}
		return decodeWaitStatus(ws)
	}
}

// decodeWaitStatus maps a raw wait status to the signed convention:
// exit code for normal exits, -signal for signal deaths and stops.
func decodeWaitStatus(ws unix.WaitStatus) (int, error) {
	switch {
	case ws.Exited():
		return ws.ExitStatus(), nil
	case ws.Signaled():
		return -int(ws.Signal()), nil
	case ws.Stopped():
		return -int(ws.StopSignal()), nil
	}
	return 0, fmt.Errorf("%w: %#x", ErrUnknownWaitStatus, uint32(ws))
}
