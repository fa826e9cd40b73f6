package procpipe

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/shlex"

	"github.com/giantswarm/procpipe/internal/backend"
	"github.com/giantswarm/procpipe/internal/fd"
)

// Backend names accepted by WithBackend and the PROCPIPE_BACKEND variable.
const (
	BackendNative     = backend.NameNative
	BackendForkExec   = backend.NameForkExec
	BackendSubprocess = backend.NameSubprocess
)

// EnvBackend is the environment variable naming the process-wide default
// backend. It is read once, at the first spawn that needs a default.
const EnvBackend = backend.EnvBackend

// Process is a spawned external process, possibly the tail of a pipeline
// chain. It tracks the backend that spawned it, the stream handles it owns,
// and the upstream Process whose stdout feeds its stdin, if any.
//
// Lifecycle: spawned, optionally CloseLocal'd, read, then waited. The exit
// status can be consumed exactly once; Wait and WaitAll sequence the close,
// read, and wait steps correctly and are what callers normally use.
//
// A Process is not safe for concurrent use.
type Process struct {
	argv     []string
	pid      int
	backend  backend.Backend
	upstream *Process
	log      *slog.Logger

	// stdin is the streaming input pipe when stdin was fed from a byte
	// source; nil for inherited, descriptor, or chained stdin.
	stdin *fd.InputPipe
	// stdout and stderr are the capture pipes; nil when not captured.
	stdout *fd.OutputPipe
	stderr *fd.OutputPipe

	waited bool
}

// Output holds the captured streams of one pipeline link, as returned by
// ReadAll. A nil slice means the stream was not captured or not read.
type Output struct {
	Stdout []byte
	Stderr []byte
}

// Spawn tokenizes command with shell-word-splitting rules and launches it.
// With WithShell or InShell the string is not tokenized but handed to the
// shell as a single argument.
func Spawn(command string, opts ...SpawnOption) (*Process, error) {
	cfg := applyOptions(opts)

	var argv []string
	if cfg.shell != "" {
		sh, err := shlex.Split(cfg.shell)
		if err != nil {
			return nil, fmt.Errorf("tokenize shell %q: %w", cfg.shell, err)
		}
		if len(sh) == 1 {
			sh = append(sh, "-c")
		}
		argv = append(sh, command)
	} else {
		var err error
		argv, err = shlex.Split(command)
		if err != nil {
			return nil, fmt.Errorf("tokenize command %q: %w", command, err)
		}
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return spawnResolved(argv, cfg)
}

// SpawnArgv launches a pre-tokenized argv as-is. Shell options do not apply
// to argv form and are rejected.
func SpawnArgv(argv []string, opts ...SpawnOption) (*Process, error) {
	cfg := applyOptions(opts)
	if cfg.shell != "" {
		return nil, ErrShellWithArgv
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return spawnResolved(slices.Clone(argv), cfg)
}

// spawnResolved resolves the stream specs, spawns through the selected
// backend, and assembles the Process. On failure every descriptor created
// here is closed again before returning.
func spawnResolved(argv []string, cfg spawnConfig) (*Process, error) {
	b := backend.Default()
	if cfg.backendName != "" {
		var err error
		b, err = backend.Lookup(cfg.backendName)
		if err != nil {
			return nil, err
		}
	}

	p := &Process{argv: argv, backend: b, log: cfg.logger}
	streams := make(map[int]int)

	cleanup := func() {
		if p.stdin != nil {
			// Closing the read end makes a still-running writer fail
			// with EPIPE and finish; the writer closes its own end.
			_ = p.stdin.CloseLocal()
		}
		if p.stdout != nil {
			_ = p.stdout.Close(true)
		}
		if p.stderr != nil {
			_ = p.stderr.Close(true)
		}
	}

	if err := p.resolveStdin(cfg.stdin, streams); err != nil {
		return nil, err
	}
	stdout, err := p.resolveOutput(cfg.stdout, 1, streams)
	if err != nil {
		cleanup()
		return nil, err
	}
	p.stdout = stdout
	stderr, err := p.resolveOutput(cfg.stderr, 2, streams)
	if err != nil {
		cleanup()
		return nil, err
	}
	p.stderr = stderr

	pid, err := b.Spawn(backend.Spec{
		Argv:              argv,
		Env:               envSlice(cfg.env),
		Streams:           streams,
		ParentDeathSignal: cfg.parentDeathSignal,
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	p.pid = pid
	p.log.Debug("process spawned", "pid", pid, "argv", argv)

	// The child holds duplicates of everything it was handed, so the
	// parent can drop its copies of the child-side ends right away: the
	// streaming stdin's read end, and a chained upstream's stdout read
	// end. Capture pipes keep their parent-side write ends open until
	// CloseLocal, per the close-before-read contract.
	if p.stdin != nil {
		_ = p.stdin.CloseLocal()
	}
	if p.upstream != nil && p.upstream.stdout != nil {
		_ = p.upstream.stdout.ReadEnd().Close(true)
	}

	return p, nil
}

// resolveStdin wires the stdin spec into the streams table and records any
// handles the Process now owns.
func (p *Process) resolveStdin(spec StreamSpec, streams map[int]int) error {
	switch spec.kind {
	case streamInherit:
		return nil
	case streamFD:
		streams[0] = spec.fd
		return nil
	case streamFile:
		streams[0] = int(spec.file.Fd())
		return nil
	case streamSource:
		ip, err := fd.NewInput(spec.src)
		if err != nil {
			return err
		}
		p.stdin = ip
		streams[0] = ip.ChildFD().Fd()
		return nil
	case streamProcess:
		up := spec.proc
		if up == nil {
			return fmt.Errorf("%w: nil upstream process", ErrInvalidStreamSpec)
		}
		if up.stdout == nil {
			return ErrUpstreamNotCaptured
		}
		p.upstream = up
		streams[0] = up.stdout.ReadEnd().Fd()
		return nil
	case streamCapture:
		return fmt.Errorf("%w: stdin cannot be captured", ErrInvalidStreamSpec)
	}
	return fmt.Errorf("%w: unknown stdin specification", ErrInvalidStreamSpec)
}

// resolveOutput wires a stdout or stderr spec onto child descriptor childFD
// and returns the capture pipe if one was created.
func (p *Process) resolveOutput(spec StreamSpec, childFD int, streams map[int]int) (*fd.OutputPipe, error) {
	switch spec.kind {
	case streamInherit:
		return nil, nil
	case streamCapture:
		op, err := fd.NewOutput()
		if err != nil {
			return nil, err
		}
		streams[childFD] = op.ChildFD().Fd()
		return op, nil
	case streamFD:
		streams[childFD] = spec.fd
		return nil, nil
	case streamFile:
		streams[childFD] = int(spec.file.Fd())
		return nil, nil
	case streamSource, streamProcess:
		return nil, fmt.Errorf("%w: byte sources and processes only feed stdin", ErrInvalidStreamSpec)
	}
	return nil, fmt.Errorf("%w: unknown output specification", ErrInvalidStreamSpec)
}

// Pid returns the OS process id.
func (p *Process) Pid() int {
	return p.pid
}

// Argv returns a copy of the argv the process was spawned with.
func (p *Process) Argv() []string {
	return slices.Clone(p.argv)
}

// Upstream returns the Process whose stdout feeds this one's stdin, or nil.
func (p *Process) Upstream() *Process {
	return p.upstream
}

// chain returns the pipeline oldest-first, with p as the last element.
// Traversal is iterative so arbitrarily long pipelines never grow the stack.
func (p *Process) chain() []*Process {
	var links []*Process
	for q := p; q != nil; q = q.upstream {
		links = append(links, q)
	}
	slices.Reverse(links)
	return links
}

// CloseLocal closes the parent-held write ends of this process's capture
// pipes. It must happen before Read: while the parent still holds an open
// writer, the kernel never delivers EOF and the read hangs even after the
// child exits. Idempotent.
func (p *Process) CloseLocal() error {
	var errs []error
	if p.stdout != nil {
		errs = append(errs, p.stdout.CloseLocal())
	}
	if p.stderr != nil {
		errs = append(errs, p.stderr.CloseLocal())
	}
	return errors.Join(errs...)
}

// Read drains the captured streams that were requested and are still
// readable, returning nil for the others. It neither closes local ends nor
// waits; callers using Read directly must CloseLocal first.
func (p *Process) Read(wantStdout, wantStderr bool) (Output, error) {
	var out Output
	if wantStdout && p.stdout != nil && p.stdout.Readable() {
		data, err := p.stdout.Read()
		if err != nil {
			return out, fmt.Errorf("read stdout of pid %d: %w", p.pid, err)
		}
		out.Stdout = data
	}
	if wantStderr && p.stderr != nil && p.stderr.Readable() {
		data, err := p.stderr.Read()
		if err != nil {
			return out, fmt.Errorf("read stderr of pid %d: %w", p.pid, err)
		}
		out.Stderr = data
	}
	return out, nil
}

// ReadAll collects the captured output of every link, oldest first. A
// non-tail link's stdout is never re-read: the downstream link already
// consumed it as stdin, so only stderr is collected for those.
//
// Each link's local ends are closed immediately before that same link is
// read, not all up front, so a stalled upstream cannot widen the window
// between its writer finishing and its locals closing.
func (p *Process) ReadAll() ([]Output, error) {
	links := p.chain()
	outputs := make([]Output, 0, len(links))
	for i, link := range links {
		if err := link.CloseLocal(); err != nil {
			return outputs, err
		}
		isTail := i == len(links)-1
		out, err := link.Read(isTail, true)
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// ArgvAll collects argv for every link, oldest first.
func (p *Process) ArgvAll() [][]string {
	links := p.chain()
	argvs := make([][]string, 0, len(links))
	for _, link := range links {
		argvs = append(argvs, link.Argv())
	}
	return argvs
}

// WaitPids consumes the exit status of every link and returns them oldest
// first, in the signed convention (0 success, positive exit code, negative
// signal number). The tail is reaped before its upstreams, mirroring how a
// shell collects a pipeline.
//
// Callers normally want WaitAll, which also closes locals and reads
// captured output in the order that cannot deadlock.
func (p *Process) WaitPids() ([]int, error) {
	links := p.chain()
	statuses := make([]int, len(links))
	for i := len(links) - 1; i >= 0; i-- {
		link := links[i]
		if link.waited {
			return nil, fmt.Errorf("pid %d: %w", link.pid, ErrAlreadyWaited)
		}
		status, err := link.backend.Wait(link.pid)
		if err != nil {
			return nil, err
		}
		link.waited = true
		statuses[i] = status
	}
	return statuses, nil
}

// WaitAll waits on the whole chain and returns one Result per link, oldest
// upstream first and this process last, mirroring shell pipeline ordering.
// Internally it reads captured output (closing local ends link by link)
// before consuming exit statuses, so output larger than the pipe buffer can
// never wedge the wait.
func (p *Process) WaitAll() ([]*Result, error) {
	argvs := p.ArgvAll()
	outputs, err := p.ReadAll()
	if err != nil {
		return nil, err
	}
	statuses, err := p.WaitPids()
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(argvs))
	for i := range argvs {
		results[i] = &Result{
			Argv:   argvs[i],
			Status: statuses[i],
			Stdout: outputs[i].Stdout,
			Stderr: outputs[i].Stderr,
		}
	}
	return results, nil
}

// Wait waits on the whole chain and returns the tail's Result; shorthand
// for the last element of WaitAll.
func (p *Process) Wait() (*Result, error) {
	results, err := p.WaitAll()
	if err != nil {
		return nil, err
	}
	return results[len(results)-1], nil
}

// WaitInput blocks until the background stdin writer has finished and
// returns the number of bytes it wrote. Returns 0 immediately when stdin
// was not fed from a byte source. Wait and WaitAll make this call
// unnecessary for the common case: a child that exited has closed its
// stdin, which ends the writer.
func (p *Process) WaitInput() (int64, error) {
	if p.stdin == nil {
		return 0, nil
	}
	return p.stdin.Wait()
}
