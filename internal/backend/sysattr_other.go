//go:build !linux

package backend

import "syscall"

// sysProcAttr is a no-op on non-Linux platforms. Pdeathsig (parent-death
// signal) is a Linux-only kernel feature.
func sysProcAttr(_ Spec) *syscall.SysProcAttr {
	return nil
}
