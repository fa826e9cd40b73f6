package backend

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// ForkExec spawns through syscall.ForkExec: an explicit fork, a dup2 of
// each table entry onto its child descriptor, then exec. It exists for
// platforms and situations where the higher-level native facility is
// unsuitable.
//
// An exec failure happens in the forked child, where no Go code may run;
// the runtime reports it back to the parent over a CLOEXEC control pipe and
// it surfaces here as an ordinary error from Spawn.
type ForkExec struct{}

// Spawn launches spec.Argv and returns the child pid.
func (ForkExec) Spawn(spec Spec) (int, error) {
	path, err := exec.LookPath(spec.Argv[0])
	if err != nil {
		return 0, fmt.Errorf("spawn: %w", err)
	}
	env := spec.Env
	if env == nil {
		env = os.Environ()
	}
	table, err := fdTable(spec.Streams)
	if err != nil {
		return 0, fmt.Errorf("spawn %s: %w", path, err)
	}

	files := make([]uintptr, len(table))
	for i, parentFD := range table {
		files[i] = uintptr(parentFD)
	}

	pid, err := syscall.ForkExec(path, spec.Argv, &syscall.ProcAttr{
		Env:   env,
		Files: files,
		Sys:   sysProcAttr(spec),
	})
	if err != nil {
		return 0, fmt.Errorf("spawn %s: %w", path, err)
	}
	return pid, nil
}

// Wait collects pid's exit status in the signed convention.
func (ForkExec) Wait(pid int) (int, error) {
	return waitPID(pid)
}
