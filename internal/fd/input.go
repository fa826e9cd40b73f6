package fd

// writeResult carries the outcome of the single background write.
type writeResult struct {
	n   int64
	err error
}

// InputPipe is a Pipe specialized as a child's stdin. Construction starts
// exactly one background writer goroutine that drains a Source into the
// write end and then closes it; the read end is what the child receives.
//
// The background writer exists to break the classic stdin/stdout deadlock:
// writing more than one pipe-buffer of input from the same control flow that
// later drains the child's output blocks both sides forever. With the write
// running concurrently, the foreground is free to drain output while stdin
// is still being fed.
//
// Only the writer goroutine ever touches the write end. The foreground owner
// may close the read end (CloseLocal) and join the writer (Wait).
type InputPipe struct {
	*Pipe
	// done receives the writer's result exactly once. Buffered so the
	// writer never blocks on a foreground that has lost interest. Same
	// single-wait-goroutine shape as a process reaper channel.
	done   chan writeResult
	result *writeResult
}

// NewInput creates the pipe and immediately starts the background writer.
// The caller is never blocked by construction, regardless of payload size.
func NewInput(src Source) (*InputPipe, error) {
	p, err := NewPipe()
	if err != nil {
		return nil, err
	}
	ip := &InputPipe{
		Pipe: p,
		done: make(chan writeResult, 1),
	}
	go func() {
		n, werr := src.drainInto(p.w)
		// Closing the write end is what lets the child see EOF on its
		// stdin. The writer owns this close; the foreground must never
		// race it.
		cerr := p.w.Close(true)
		if werr == nil {
			werr = cerr
		}
		ip.done <- writeResult{n: n, err: werr}
	}()
	return ip, nil
}

// Wait blocks until the background writer has finished and returns the
// number of bytes written. Callers must Wait before assuming the input side
// is fully drained. Subsequent calls return the cached result.
func (ip *InputPipe) Wait() (int64, error) {
	if ip.result == nil {
		r := <-ip.done
		ip.result = &r
	}
	return ip.result.n, ip.result.err
}

// ChildFD returns the read end, which the backend duplicates onto the
// child's stdin descriptor.
func (ip *InputPipe) ChildFD() *FD {
	return ip.r
}

// CloseLocal closes the parent-held read end. Safe once the child has been
// spawned (the child holds its own duplicate); idempotent.
func (ip *InputPipe) CloseLocal() error {
	return ip.r.Close(true)
}
