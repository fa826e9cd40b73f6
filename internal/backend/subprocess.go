package backend

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// Subprocess delegates spawning to os/exec. exec.Cmd insists on collecting
// the OS-level exit status itself (through cmd.Wait), so the backend keeps
// a process-wide registry mapping pid to the live command: registered at
// spawn, removed at the first successful wait.
//
// The registry is guarded by a mutex; registration and removal are each a
// single map operation, so concurrent spawns and waits on unrelated pids
// never corrupt it.
type Subprocess struct {
	mu    sync.Mutex
	procs map[int]*exec.Cmd
}

// NewSubprocess creates a Subprocess backend with an empty registry.
func NewSubprocess() *Subprocess {
	return &Subprocess{procs: make(map[int]*exec.Cmd)}
}

// Spawn launches spec.Argv through exec.Cmd and returns the child pid.
//
// os/exec only models the three standard streams, so a Streams map naming
// any other child descriptor is rejected. The process layer never asks for
// more.
func (s *Subprocess) Spawn(spec Spec) (int, error) {
	for childFD := range spec.Streams {
		if childFD < 0 || childFD > 2 {
			return 0, fmt.Errorf("subprocess backend supports child descriptors 0-2, got %d", childFD)
		}
	}

	cmd := exec.Command(spec.Argv[0], spec.Argv[1:]...)
	cmd.Env = spec.Env // nil inherits, matching the other backends
	cmd.SysProcAttr = sysProcAttr(spec)

	// exec.Cmd maps a nil stream to /dev/null, but absence means inherit
	// under the backend contract. Start from the parent's own streams and
	// overlay duplicates of the requested descriptors.
	stdio := [3]*os.File{os.Stdin, os.Stdout, os.Stderr}
	var dups []*os.File
	defer func() {
		for _, f := range dups {
			_ = f.Close()
		}
	}()
	for childFD, parentFD := range spec.Streams {
		dup, err := unix.FcntlInt(uintptr(parentFD), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			return 0, fmt.Errorf("spawn %s: dup fd %d: %w", spec.Argv[0], parentFD, err)
		}
		f := os.NewFile(uintptr(dup), fmt.Sprintf("child-fd-%d", childFD))
		dups = append(dups, f)
		stdio[childFD] = f
	}
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdio[0], stdio[1], stdio[2]

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("spawn %s: %w", spec.Argv[0], err)
	}
	pid := cmd.Process.Pid

	s.mu.Lock()
	s.procs[pid] = cmd
	s.mu.Unlock()

	return pid, nil
}

// Wait collects pid's exit status. Pids this backend spawned are waited
// through their exec.Cmd and deregistered once the status is in hand;
// anything else falls back to a direct kernel wait, so a process spawned by
// one backend can still be collected if the default changed mid-run.
func (s *Subprocess) Wait(pid int) (int, error) {
	s.mu.Lock()
	cmd, ok := s.procs[pid]
	s.mu.Unlock()
	if !ok {
		return waitPID(pid)
	}

	err := cmd.Wait()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Not an exit status at all (e.g. a wait syscall failure); the
		// pid stays registered because its status was never collected.
		return 0, fmt.Errorf("wait pid %d: %w", pid, err)
	}

	s.mu.Lock()
	delete(s.procs, pid)
	s.mu.Unlock()

	ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return 0, fmt.Errorf("wait pid %d: %w", pid, ErrUnknownWaitStatus)
	}
	return decodeWaitStatus(unix.WaitStatus(ws))
}
