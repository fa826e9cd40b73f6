package backend

import "sync"

// ResetDefaultForTesting re-arms the once-value guarding the process-wide
// default backend, so tests can exercise the environment-driven selection
// more than once per process.
func ResetDefaultForTesting() {
	defaultBackend = sync.OnceValue(resolveDefault)
}
