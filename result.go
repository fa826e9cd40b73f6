package procpipe

import (
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
)

// Result is the immutable outcome record of one finished process. Stdout
// and Stderr are nil unless the stream was captured.
//
// Status follows the POSIX-signed convention: 0 success, positive exit
// code, negative the number of the signal that killed the process.
type Result struct {
	Argv   []string
	Status int
	Stdout []byte
	Stderr []byte
}

// ResultError is a Result escalated into an error value. It carries the
// same fields, so a caller catching it loses nothing over the Result.
type ResultError struct {
	Result
}

// Error implements the error interface.
func (e *ResultError) Error() string {
	name := strings.Join(e.Argv, " ")
	if e.Status < 0 {
		return fmt.Sprintf("%s: killed by %s", name, syscall.Signal(-e.Status))
	}
	return fmt.Sprintf("%s: exit status %d", name, e.Status)
}

// Check returns the result and a nil error when the status is zero;
// otherwise the error is a *ResultError exposing the same argv, status, and
// captured streams.
func (r *Result) Check() (*Result, error) {
	if r.Status == 0 {
		return r, nil
	}
	return r, &ResultError{Result: *r}
}

// ExitCode maps Status onto a program exit code: exit codes pass through,
// signal deaths become 128+signal in the shell convention.
func (r *Result) ExitCode() int {
	if r.Status >= 0 {
		return r.Status
	}
	return 128 - r.Status
}

// Hooks for Die, replaced in tests. Die is a program-boundary behavior and
// otherwise untestable in-process.
var (
	dieExit   = os.Exit
	dieStderr io.Writer = os.Stderr
)

// Die returns the result when the status is zero. Otherwise it forwards
// captured stderr (if any) to the controlling error stream and terminates
// the whole program with the process's exit code. This is a boundary
// behavior for scripts, not a recoverable error path.
func (r *Result) Die() *Result {
	if r.Status == 0 {
		return r
	}
	if len(r.Stderr) > 0 {
		_, _ = dieStderr.Write(r.Stderr)
	}
	dieExit(r.ExitCode())
	return r
}
