//go:build linux

package backend

import "syscall"

// sysProcAttr builds the OS-specific spawn attributes for spec. On Linux,
// ParentDeathSignal maps to Pdeathsig so a child is reaped by SIGTERM when
// the parent dies abruptly, preventing orphaned pipeline stages.
func sysProcAttr(spec Spec) *syscall.SysProcAttr {
	if !spec.ParentDeathSignal {
		return nil
	}
	return &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGTERM,
	}
}
