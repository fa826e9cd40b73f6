package backend

import (
	"fmt"
	"os"
	"sync"

	"github.com/giantswarm/procpipe/internal/sentinel"
)

// EnvBackend is the environment variable naming the default backend. It is
// read once, the first time a default is needed; later changes to the
// environment have no effect.
const EnvBackend = "PROCPIPE_BACKEND"

// ErrUnknownBackend is returned by Lookup for names not in the registry.
const ErrUnknownBackend = sentinel.Error("unknown backend")

// Backend names accepted by Lookup and EnvBackend.
const (
	NameNative     = "native"
	NameForkExec   = "forkexec"
	NameSubprocess = "subprocess"
)

// Spec describes one spawn request.
type Spec struct {
	// Argv is the command and its arguments. Argv[0] is resolved through
	// PATH by the backend.
	Argv []string

	// Env holds "key=value" entries for the child environment. A nil Env
	// inherits the parent environment.
	Env []string

	// Streams maps a child descriptor number to the parent descriptor that
	// should be duplicated onto it before exec. Absent child descriptors
	// 0-2 inherit the parent's corresponding standard stream.
	Streams map[int]int

	// ParentDeathSignal requests that the child receive SIGTERM when the
	// parent dies. Linux only; ignored elsewhere.
	ParentDeathSignal bool
}

// Backend is a concrete strategy for spawning and awaiting OS processes.
//
// Wait must be called exactly once per spawned pid; a second wait on the
// same pid is undefined. Spawn and Wait are safe for concurrent use across
// distinct pids.
type Backend interface {
	Spawn(spec Spec) (int, error)
	Wait(pid int) (int, error)
}

// registry maps backend names to live instances. Populated once at package
// initialization and never mutated afterwards, so concurrent reads are safe
// without synchronization.
var registry = map[string]Backend{
	NameNative:     Native{},
	NameForkExec:   ForkExec{},
	NameSubprocess: NewSubprocess(),
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
	return b, nil
}

// defaultBackend resolves the process-wide default once; later changes to
// the environment have no effect.
var defaultBackend = sync.OnceValue(resolveDefault)

// resolveDefault reads EnvBackend. An unset or empty variable picks native,
// the lowest-overhead strategy. An unknown name is a configuration error and
// panics, mirroring how invalid option values are treated: universally
// fatal, better caught at first use.
func resolveDefault() Backend {
	name := os.Getenv(EnvBackend)
	if name == "" {
		return registry[NameNative]
	}
	b, err := Lookup(name)
	if err != nil {
		panic(fmt.Sprintf("procpipe: %s: %v", EnvBackend, err))
	}
	return b
}

// Default returns the process-wide default backend, honoring EnvBackend.
func Default() Backend {
	return defaultBackend()
}

// fdTable flattens a Streams map into the contiguous descriptor table that
// os.StartProcess and syscall.ForkExec expect: index i is the parent
// descriptor the child receives as descriptor i. Standard streams not
// present in the map inherit the parent's own 0, 1, 2.
func fdTable(streams map[int]int) ([]int, error) {
	size := 3
	for childFD := range streams {
		if childFD < 0 {
			return nil, fmt.Errorf("invalid child descriptor %d", childFD)
		}
		if childFD+1 > size {
			size = childFD + 1
		}
	}
	table := make([]int, size)
	for i := range table {
		if i < 3 {
			table[i] = i
		} else {
			table[i] = -1
		}
	}
	for childFD, parentFD := range streams {
		table[childFD] = parentFD
	}
	for i, fd := range table {
		if fd < 0 {
			return nil, fmt.Errorf("descriptor table has a hole at %d", i)
		}
	}
	return table, nil
}
