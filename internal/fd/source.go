package fd

import (
	"fmt"
	"io"
	"iter"
)

// Source produces the bytes an InputPipe feeds into a child's stdin.
// Implementations are one-shot: drainInto is called exactly once, from the
// pipe's background writer goroutine.
type Source interface {
	drainInto(w *FD) (int64, error)
}

// Bytes returns a Source backed by a fixed in-memory buffer.
func Bytes(b []byte) Source {
	return bytesSource(b)
}

// FromReader returns a Source that copies r until EOF. The reader is
// consumed chunk by chunk, so payloads of unknown or unbounded size never
// need to fit in memory.
func FromReader(r io.Reader) Source {
	return readerSource{r: r}
}

// Producer returns a Source that obtains its payload by calling fn once,
// from the background writer. Useful when producing the data is itself
// expensive and should not block the caller constructing the pipe.
func Producer(fn func() ([]byte, error)) Source {
	return producerSource(fn)
}

// Chunks returns a Source that writes each chunk of seq in turn. A chunk is
// fully flushed into the pipe before the next one is pulled, so lazy
// sequences can stream unbounded input without buffering the whole payload.
func Chunks(seq iter.Seq[[]byte]) Source {
	return chunkSource(seq)
}

type bytesSource []byte

func (s bytesSource) drainInto(w *FD) (int64, error) {
	n, err := w.Write(s)
	return int64(n), err
}

type readerSource struct {
	r io.Reader
}

func (s readerSource) drainInto(w *FD) (int64, error) {
	return io.Copy(w, s.r)
}

type producerSource func() ([]byte, error)

func (s producerSource) drainInto(w *FD) (int64, error) {
	data, err := s()
	if err != nil {
		return 0, fmt.Errorf("produce input: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

type chunkSource iter.Seq[[]byte]

func (s chunkSource) drainInto(w *FD) (int64, error) {
	var total int64
	for chunk := range s {
		n, err := w.Write(chunk)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
