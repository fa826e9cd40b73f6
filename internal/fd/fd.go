package fd

import (
	"fmt"
	"io"

	"github.com/giantswarm/procpipe/internal/sentinel"
	"golang.org/x/sys/unix"
)

// ErrClosed is returned by operations on an FD that has already been closed
// locally, and by Close(false) on such an FD.
const ErrClosed = sentinel.Error("file descriptor already closed")

// Mode describes the direction an FD was opened for.
type Mode uint8

const (
	// ModeRead marks a descriptor open for reading.
	ModeRead Mode = 1 << iota
	// ModeWrite marks a descriptor open for writing.
	ModeWrite
)

// ModeReadWrite marks a descriptor open for both directions.
const ModeReadWrite = ModeRead | ModeWrite

// Compile-time checks that FD provides stream views in both directions.
var (
	_ io.Reader = (*FD)(nil)
	_ io.Writer = (*FD)(nil)
)

// FD owns one OS file descriptor plus an open-mode tag. It is a glorified
// integer with a close method.
//
// FD is not safe for concurrent use. In practice each end of a pipe has a
// single owner: either the foreground caller or the background writer
// goroutine of an InputPipe, never both.
type FD struct {
	fd     int
	mode   Mode
	closed bool
}

// New wraps an existing descriptor. The FD takes ownership: the caller must
// not close fd directly afterwards.
func New(fd int, mode Mode) *FD {
	return &FD{fd: fd, mode: mode}
}

// Fd returns the raw descriptor number. The value stays meaningful for
// bookkeeping even after Close, but must not be passed to the OS once the
// FD is closed.
func (f *FD) Fd() int {
	return f.fd
}

// Closed reports whether Close has been called.
func (f *FD) Closed() bool {
	return f.closed
}

// Readable reports whether the FD was opened for reading and is still open.
func (f *FD) Readable() bool {
	return f.mode&ModeRead != 0 && !f.closed
}

// Writable reports whether the FD was opened for writing and is still open.
func (f *FD) Writable() bool {
	return f.mode&ModeWrite != 0 && !f.closed
}

// Close closes the descriptor. Double closes and closes of descriptors the
// OS already considers invalid (EBADF) are tolerated when invalidOK is true;
// with invalidOK false they surface as errors. All other close failures
// propagate regardless.
func (f *FD) Close(invalidOK bool) error {
	if f.closed {
		if invalidOK {
			return nil
		}
		return ErrClosed
	}
	err := unix.Close(f.fd)
	f.closed = true
	if err != nil {
		if invalidOK && err == unix.EBADF {
			return nil
		}
		return fmt.Errorf("close fd %d: %w", f.fd, err)
	}
	return nil
}

// Read implements io.Reader over the raw descriptor, retrying on EINTR and
// translating a zero-byte read into io.EOF.
func (f *FD) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(f.fd, p)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("read fd %d: %w", f.fd, err)
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write implements io.Writer over the raw descriptor. Partial writes are
// continued until p is fully written, retrying on EINTR.
func (f *FD) Write(p []byte) (int, error) {
	if f.closed {
		return 0, ErrClosed
	}
	total := 0
	for total < len(p) {
		n, err := unix.Write(f.fd, p[total:])
		if n > 0 {
			total += n
		}
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return total, fmt.Errorf("write fd %d: %w", f.fd, err)
		}
	}
	return total, nil
}
