//go:build !linux

package procfs

// Tasks is unsupported without procfs.
func Tasks(_ int) ([]int, error) {
	return nil, ErrUnsupported
}

// Children is unsupported without procfs.
func Children(_ int, _ bool) ([]int, error) {
	return nil, ErrUnsupported
}
