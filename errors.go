package procpipe

import (
	"github.com/giantswarm/procpipe/internal/backend"
	"github.com/giantswarm/procpipe/internal/fd"
	"github.com/giantswarm/procpipe/internal/sentinel"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrEmptyCommand is returned by Spawn when the command tokenizes to
	// nothing, and by SpawnArgv for an empty argv.
	ErrEmptyCommand = sentinel.Error("command must not be empty")

	// ErrInvalidStreamSpec is returned at construction time when a stream
	// specification cannot be used in the requested position (for example
	// a byte source as stdout, or capturing stdin).
	ErrInvalidStreamSpec = sentinel.Error("stream specification not usable here")

	// ErrUpstreamNotCaptured is returned when chaining from a Process whose
	// stdout was not captured; there is no pipe to read from.
	ErrUpstreamNotCaptured = sentinel.Error("upstream process stdout is not captured")

	// ErrAlreadyWaited is returned when a process's exit status has already
	// been consumed by Wait, WaitAll, WaitPids, or Stop.
	ErrAlreadyWaited = sentinel.Error("process already waited on")

	// ErrShellWithArgv is returned by SpawnArgv when a shell was requested;
	// shell wrapping only applies to whole command strings.
	ErrShellWithArgv = sentinel.Error("shell option requires a command string")

	// ErrUnknownBackend is returned when a backend name is not registered.
	ErrUnknownBackend = backend.ErrUnknownBackend

	// ErrPidMismatch indicates the kernel reported an unexpected pid during
	// wait. This is a tracking bug, not a normal runtime failure.
	ErrPidMismatch = backend.ErrPidMismatch

	// ErrClosed is returned by strict closes of an already-closed descriptor.
	ErrClosed = fd.ErrClosed
)
