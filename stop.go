package procpipe

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/giantswarm/procpipe/internal/procfs"
)

// DefaultStopTimeout is a reasonable timeout for Stop when the caller has
// no better number.
const DefaultStopTimeout = 10 * time.Second

// termGracePeriod is the maximum time to wait for a process to exit after
// SIGTERM before escalating to SIGKILL. The actual grace period is capped
// at the overall timeout.
const termGracePeriod = 5 * time.Second

// killDrainTimeout is the hard upper bound for waiting on the exit status
// after SIGKILL has been sent (or after the process was found already
// exited). SIGKILL cannot be caught, so the process should be gone almost
// immediately; this is a safety net against a wait that never returns.
const killDrainTimeout = 10 * time.Second

// descendantPollInterval is how often TerminateTree re-inspects /proc for
// surviving descendants.
const descendantPollInterval = 50 * time.Millisecond

// waitOutcome carries one backend wait result across the reaper goroutine.
type waitOutcome struct {
	status int
	err    error
}

// Stop terminates this process with a SIGTERM-then-SIGKILL sequence and
// consumes its exit status, which Stop treats as part of stopping: an exit
// caused by SIGTERM or SIGKILL is a successful stop, anything else is
// reported. Stop is terminal like Wait; combining the two, or stopping
// twice, returns ErrAlreadyWaited.
//
// Shutdown flow:
//  1. Send SIGTERM for graceful shutdown.
//  2. Schedule SIGKILL after a grace period, canceled if the process exits
//     first.
//  3. Wait for the exit status or the total timeout.
//
// Worst-case blocking is timeout + killDrainTimeout, reached when the main
// timeout expires and the post-SIGKILL drain also blocks for its full
// duration.
func (p *Process) Stop(timeout time.Duration) error {
	if p.waited {
		return fmt.Errorf("pid %d: %w", p.pid, ErrAlreadyWaited)
	}
	p.waited = true

	// Exactly one wait call is made per process; the reaper goroutine
	// owns it and delivers the outcome on a buffered channel so it never
	// blocks on a caller that timed out.
	done := make(chan waitOutcome, 1)
	go func() {
		status, err := p.backend.Wait(p.pid)
		done <- waitOutcome{status: status, err: err}
	}()

	// Captured output nobody will read must not wedge the child on a full
	// pipe; with locals closed the child takes SIGPIPE/EPIPE instead.
	_ = p.CloseLocal()

	if err := p.Signal(syscall.SIGTERM, false); err != nil {
		// Process already exited; drain the reaper with a hard upper
		// bound to avoid blocking indefinitely.
		o, ok := drainOutcome(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("pid %d: timed out draining process after signal failure", p.pid)
		}
		return expectSignalExit(o)
	}

	// Schedule SIGKILL after the grace period, clamped to the total
	// timeout so the kill always lands while the outer timer is still
	// running and the drain below has a window to collect the status.
	grace := min(termGracePeriod, timeout)
	killTimer := time.AfterFunc(grace, func() {
		_ = p.Signal(syscall.SIGKILL, true)
	})
	defer killTimer.Stop()

	totalTimer := time.NewTimer(timeout)
	defer totalTimer.Stop()

	select {
	case o := <-done:
		return expectSignalExit(o)
	case <-totalTimer.C:
		o, ok := drainOutcome(done, killDrainTimeout)
		if !ok {
			return fmt.Errorf("pid %d: timed out waiting for process to exit after SIGKILL", p.pid)
		}
		if err := expectSignalExit(o); err != nil {
			return fmt.Errorf("pid %d stop timeout: %w", p.pid, err)
		}
		return nil
	}
}

// drainOutcome reads from done with timeout as a hard upper bound. Under
// normal conditions the reaper delivers almost immediately after the
// process exits; the timeout exists purely as a safety net.
func drainOutcome(done <-chan waitOutcome, timeout time.Duration) (waitOutcome, bool) {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case o := <-done:
		return o, true
	case <-t.C:
		return waitOutcome{}, false
	}
}

// expectSignalExit interprets a wait outcome after a termination signal was
// sent. Deaths by SIGTERM or SIGKILL are expected and count as successful
// stops.
func expectSignalExit(o waitOutcome) error {
	if o.err != nil {
		return o.err
	}
	switch o.status {
	case 0, -int(syscall.SIGTERM), -int(syscall.SIGKILL):
		return nil
	}
	return fmt.Errorf("process exited with status %d", o.status)
}

// TerminateTree sends SIGTERM to the whole chain and its unmanaged OS
// descendants, then polls /proc until no descendants survive, escalating to
// SIGKILL when the timeout expires. It does not consume exit statuses: the
// chain's own links still need a Wait or WaitAll afterwards (they stay
// visible as zombies until then, which is why only descendants are polled).
func (p *Process) TerminateTree(ctx context.Context, timeout time.Duration) error {
	if err := p.KillTree(syscall.SIGTERM); err != nil {
		return err
	}

	err := wait.PollUntilContextTimeout(ctx, descendantPollInterval, timeout, true,
		func(context.Context) (bool, error) {
			for q := p; q != nil; q = q.upstream {
				descendants, err := procfs.Children(q.pid, true)
				if err != nil {
					// A link that exited has no /proc entry and
					// therefore no descendants.
					continue
				}
				if len(descendants) > 0 {
					return false, nil
				}
			}
			return true, nil
		})
	if err == nil {
		return nil
	}
	if wait.Interrupted(err) && ctx.Err() == nil {
		// Grace period exhausted: escalate. SIGKILL cannot be caught, so
		// no further confirmation pass is needed.
		if kerr := p.KillTree(syscall.SIGKILL); kerr != nil {
			return fmt.Errorf("escalate to SIGKILL: %w", kerr)
		}
		p.log.Warn("descendants survived SIGTERM grace period; escalated to SIGKILL",
			"pid", p.pid, "timeout", timeout)
		return nil
	}
	return fmt.Errorf("terminate process tree of pid %d: %w", p.pid, err)
}
