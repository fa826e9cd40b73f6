package procpipe

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/giantswarm/procpipe/internal/procfs"
)

// deadOKDefault reports whether an already-dead target is tolerable for sig
// without the caller saying so: termination signals are routinely sent to
// processes that just exited, anything else hitting a dead process is
// suspicious.
func deadOKDefault(sig syscall.Signal) bool {
	return sig == syscall.SIGTERM || sig == syscall.SIGKILL
}

// Kill sends sig to this process only. An already-exited target is not an
// error for SIGTERM and SIGKILL; for other signals it surfaces as "no such
// process". Use Signal to override that default.
func (p *Process) Kill(sig syscall.Signal) error {
	return p.Signal(sig, deadOKDefault(sig))
}

// Signal sends sig to this process only, tolerating an already-dead target
// iff deadOK.
func (p *Process) Signal(sig syscall.Signal, deadOK bool) error {
	err := unix.Kill(p.pid, sig)
	if err == nil {
		return nil
	}
	if deadOK && err == unix.ESRCH {
		return nil
	}
	return fmt.Errorf("signal pid %d with %s: %w", p.pid, unix.SignalName(sig), err)
}

// KillAll sends sig to every link of the chain, newest first, applying the
// same dead-target tolerance as Kill. All links are attempted even when
// some fail; failures are joined.
func (p *Process) KillAll(sig syscall.Signal) error {
	var errs []error
	for q := p; q != nil; q = q.upstream {
		errs = append(errs, q.Kill(sig))
	}
	return errors.Join(errs...)
}

// discoverDescendants finds the OS-level descendants of one chain link.
// Package variable so tests can simulate platforms without discovery.
var discoverDescendants = procfs.Children

// KillTree sends sig to every link of the chain and to every OS-level
// descendant discovered under them, catching workers a managed process
// forked on its own. Discovery walks /proc; where that is unsupported the
// chain links are still all signaled and the discovery error is reported
// alongside.
//
// The discovered set is signaled concurrently; an already-dead descendant
// is never an error, because the snapshot is inherently racy.
func (p *Process) KillTree(sig syscall.Signal) error {
	var g errgroup.Group
	var discoverErr error
	for q := p; q != nil; q = q.upstream {
		link := q
		g.Go(func() error {
			return link.Kill(sig)
		})

		descendants, err := discoverDescendants(link.pid, true)
		if err != nil {
			if errors.Is(err, procfs.ErrUnsupported) && discoverErr == nil {
				discoverErr = err
			}
			// Otherwise the link itself may have exited already; nothing
			// to discover under it then.
			continue
		}
		for _, pid := range descendants {
			g.Go(func() error {
				if err := unix.Kill(pid, sig); err != nil && err != unix.ESRCH {
					return fmt.Errorf("signal descendant pid %d with %s: %w", pid, unix.SignalName(sig), err)
				}
				return nil
			})
		}
	}
	return errors.Join(discoverErr, g.Wait())
}
