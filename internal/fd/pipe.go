package fd

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// Pipe owns both ends of one kernel pipe. Write and Read treat the pipe as a
// one-shot bulk channel: each closes its end when done. Closing one end does
// not invalidate the other.
//
// The one-shot Write is correct only for payloads smaller than the kernel
// pipe buffer; anything larger must go through InputPipe, whose background
// writer decouples producer speed from consumer speed.
type Pipe struct {
	r *FD
	w *FD
}

// NewPipe creates a connected descriptor pair. Both parent-side ends carry
// O_CLOEXEC so unrelated children never inherit them; the backend duplicates
// the designated end onto the child's target descriptor at spawn time.
func NewPipe() (*Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}
	return &Pipe{
		r: New(fds[0], ModeRead),
		w: New(fds[1], ModeWrite),
	}, nil
}

// ReadEnd returns the read end of the pipe.
func (p *Pipe) ReadEnd() *FD {
	return p.r
}

// WriteEnd returns the write end of the pipe.
func (p *Pipe) WriteEnd() *FD {
	return p.w
}

// Readable reports whether the read end is open for reading.
func (p *Pipe) Readable() bool {
	return p.r.Readable()
}

// Writable reports whether the write end is open for writing.
func (p *Pipe) Writable() bool {
	return p.w.Writable()
}

// Write feeds data into the write end and closes it, so the reading side
// sees EOF after the payload. Blocks if data exceeds the kernel pipe buffer
// and nothing is draining the read end.
func (p *Pipe) Write(data []byte) (int, error) {
	n, werr := p.w.Write(data)
	cerr := p.w.Close(true)
	if werr != nil {
		return n, werr
	}
	return n, cerr
}

// Read drains the read end until EOF and closes it.
func (p *Pipe) Read() ([]byte, error) {
	data, rerr := io.ReadAll(p.r)
	cerr := p.r.Close(true)
	if rerr != nil && !errors.Is(rerr, io.EOF) {
		return data, rerr
	}
	return data, cerr
}

// Close closes both ends, tolerating already-closed ends when invalidOK.
func (p *Pipe) Close(invalidOK bool) error {
	rerr := p.r.Close(invalidOK)
	werr := p.w.Close(invalidOK)
	return errors.Join(rerr, werr)
}
