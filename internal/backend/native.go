package backend

import (
	"fmt"
	"os"
	"os/exec"

	"golang.org/x/sys/unix"
)

// Native spawns through os.StartProcess, the OS-mediated facility that
// forks, rewires descriptors, and execs in one step. It is the default and
// lowest-overhead strategy.
type Native struct{}

// Spawn launches spec.Argv and returns the child pid.
//
// Every descriptor in the table is duplicated before spawn and the
// duplicate handed to os.StartProcess, then closed afterwards. The
// duplicates keep *os.File finalizers away from caller-owned descriptors
// and carry CLOEXEC so a concurrent spawn on another goroutine cannot leak
// them into an unrelated child.
func (Native) Spawn(spec Spec) (int, error) {
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

	files := make([]*os.File, len(table))
	defer func() {
		for _, f := range files {
			if f != nil {
				_ = f.Close()
			}
		}
	}()
	for i, parentFD := range table {
		dup, err := unix.FcntlInt(uintptr(parentFD), unix.F_DUPFD_CLOEXEC, 0)
		if err != nil {
			return 0, fmt.Errorf("spawn %s: dup fd %d: %w", path, parentFD, err)
		}
		files[i] = os.NewFile(uintptr(dup), fmt.Sprintf("child-fd-%d", i))
	}

	proc, err := os.StartProcess(path, spec.Argv, &os.ProcAttr{
		Env:   env,
		Files: files,
		Sys:   sysProcAttr(spec),
	})
	if err != nil {
		return 0, fmt.Errorf("spawn %s: %w", path, err)
	}
	pid := proc.Pid
	// Release drops the process handle (and its pidfd on Linux) without
	// waiting; Wait collects the status through the pid instead.
	_ = proc.Release()
	return pid, nil
}

// Wait collects pid's exit status in the signed convention.
func (Native) Wait(pid int) (int, error) {
	return waitPID(pid)
}
