package procpipe

import (
	"io"
	"iter"
	"os"

	"github.com/giantswarm/procpipe/internal/fd"
)

// PIPE is the reserved descriptor value that requests capture of a stream,
// distinguishing it from inherit (no specification) and from any real
// descriptor. FromFD(PIPE) is equivalent to Capture().
const PIPE = -1

// streamKind tags the variants of a StreamSpec.
type streamKind uint8

const (
	streamInherit streamKind = iota
	streamCapture
	streamFD
	streamFile
	streamSource
	streamProcess
)

// StreamSpec describes what a child's stdin, stdout, or stderr should be
// wired to. The zero value means inherit the parent's stream. Specs are
// resolved once, at Spawn time; a spec that makes no sense in its position
// fails construction with ErrInvalidStreamSpec.
type StreamSpec struct {
	kind streamKind
	fd   int
	file *os.File
	src  fd.Source
	proc *Process
}

// Inherit requests the parent's own stream. Equivalent to the zero value.
func Inherit() StreamSpec {
	return StreamSpec{kind: streamInherit}
}

// Capture requests that the stream's data be collected in memory for a
// later Read or Wait. Valid for stdout and stderr only.
func Capture() StreamSpec {
	return StreamSpec{kind: streamCapture}
}

// FromFD wires the stream to an existing descriptor. The descriptor stays
// owned by the caller; procpipe never closes it. FromFD(PIPE) requests
// capture instead.
func FromFD(fdnum int) StreamSpec {
	if fdnum == PIPE {
		return Capture()
	}
	return StreamSpec{kind: streamFD, fd: fdnum}
}

// FromFile wires the stream to an open file. The file stays owned by the
// caller.
func FromFile(f *os.File) StreamSpec {
	return StreamSpec{kind: streamFile, file: f}
}

// Bytes feeds a fixed buffer into the child's stdin through a background
// writer, so buffers larger than the kernel pipe buffer cannot deadlock the
// caller. Stdin only.
func Bytes(b []byte) StreamSpec {
	return StreamSpec{kind: streamSource, src: fd.Bytes(b)}
}

// FromReader streams r into the child's stdin until EOF. Stdin only.
func FromReader(r io.Reader) StreamSpec {
	return StreamSpec{kind: streamSource, src: fd.FromReader(r)}
}

// Producer obtains the stdin payload by calling fn once, from the
// background writer, so producing the data never blocks Spawn. Stdin only.
func Producer(fn func() ([]byte, error)) StreamSpec {
	return StreamSpec{kind: streamSource, src: fd.Producer(fn)}
}

// Chunks streams each chunk of seq into the child's stdin in turn; a chunk
// is fully flushed before the next is pulled, so lazy sequences can supply
// unbounded input without ever buffering the whole payload. Stdin only.
func Chunks(seq iter.Seq[[]byte]) StreamSpec {
	return StreamSpec{kind: streamSource, src: fd.Chunks(seq)}
}

// FromProcess chains: the new process reads its stdin from upstream's
// captured stdout, and waiting on the new process also collects upstream.
// Stdin only; upstream must have been spawned with a captured stdout.
func FromProcess(upstream *Process) StreamSpec {
	return StreamSpec{kind: streamProcess, proc: upstream}
}
