package procpipe

import (
	"fmt"
	"log/slog"
	"slices"
)

// defaultShell wraps commands when InShell is used.
const defaultShell = "sh -c"

// spawnConfig collects the resolved options for one Spawn call.
type spawnConfig struct {
	stdin             StreamSpec
	stdout            StreamSpec
	stderr            StreamSpec
	env               map[string]string
	shell             string
	backendName       string
	logger            *slog.Logger
	parentDeathSignal bool
}

// SpawnOption configures a single Spawn or SpawnArgv call. Each With*
// function returns a SpawnOption that sets a specific field.
//
// With* functions panic on values that can never be valid (an empty shell
// string, a nil logger). These are programmer errors in what is typically a
// compile-time constant, so failing fast beats returning an error that would
// be universally fatal anyway.
type SpawnOption func(*spawnConfig)

// WithStdin sets the child's standard input. Default: inherit.
func WithStdin(spec StreamSpec) SpawnOption {
	return func(c *spawnConfig) {
		c.stdin = spec
	}
}

// WithStdout sets the child's standard output. Default: inherit.
func WithStdout(spec StreamSpec) SpawnOption {
	return func(c *spawnConfig) {
		c.stdout = spec
	}
}

// WithStderr sets the child's standard error. Default: inherit.
func WithStderr(spec StreamSpec) SpawnOption {
	return func(c *spawnConfig) {
		c.stderr = spec
	}
}

// WithEnv sets the child's environment. A nil map (the default) inherits
// the parent environment; an empty non-nil map gives the child an empty
// environment.
func WithEnv(env map[string]string) SpawnOption {
	return func(c *spawnConfig) {
		c.env = env
	}
}

// WithShell runs the command string through the given shell, for example
// "sh -c" or "bash". A single-token shell gets "-c" appended. Only valid
// with Spawn; SpawnArgv rejects it.
//
// Panics if shell is empty.
func WithShell(shell string) SpawnOption {
	if shell == "" {
		panic("procpipe: shell must not be empty")
	}
	return func(c *spawnConfig) {
		c.shell = shell
	}
}

// InShell runs the command string through "sh -c".
func InShell() SpawnOption {
	return WithShell(defaultShell)
}

// WithBackend selects the spawn/wait strategy by name for this call,
// overriding the process-wide default. Valid names are BackendNative,
// BackendForkExec, and BackendSubprocess; unknown names fail at Spawn time
// with ErrUnknownBackend.
func WithBackend(name string) SpawnOption {
	return func(c *spawnConfig) {
		c.backendName = name
	}
}

// WithLogger sets the logger for operational messages. Default:
// slog.Default(). Panics if l is nil.
func WithLogger(l *slog.Logger) SpawnOption {
	if l == nil {
		panic("procpipe: logger must not be nil")
	}
	return func(c *spawnConfig) {
		c.logger = l
	}
}

// WithParentDeathSignal asks the kernel to deliver SIGTERM to the child
// when this process dies, preventing orphans if the parent is killed
// abruptly. Linux only; silently ignored elsewhere.
func WithParentDeathSignal() SpawnOption {
	return func(c *spawnConfig) {
		c.parentDeathSignal = true
	}
}

// applyOptions builds a spawnConfig from defaults plus opts.
func applyOptions(opts []SpawnOption) spawnConfig {
	var cfg spawnConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	return cfg
}

// envSlice converts an environment map into the "key=value" form backends
// expect, in sorted key order so spawns are deterministic. Returns nil for
// a nil map, which backends treat as inherit.
func envSlice(env map[string]string) []string {
	if env == nil {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	slices.Sort(out)
	return out
}
