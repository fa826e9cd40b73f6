package fd

// OutputPipe is a Pipe specialized as captured child stdout or stderr. The
// child owns (a duplicate of) the write end; the parent keeps the read end
// for a later bulk read.
//
// The parent must CloseLocal its unused write-end reference before reading:
// as long as the parent holds an open writer, the kernel will never deliver
// EOF and the read hangs forever even after the child exits.
type OutputPipe struct {
	*Pipe
}

// NewOutput creates a capture pipe for a child output stream.
func NewOutput() (*OutputPipe, error) {
	p, err := NewPipe()
	if err != nil {
		return nil, err
	}
	return &OutputPipe{Pipe: p}, nil
}

// ChildFD returns the write end, which the backend duplicates onto the
// child's target descriptor.
func (op *OutputPipe) ChildFD() *FD {
	return op.w
}

// CloseLocal closes the parent-held write end; idempotent.
func (op *OutputPipe) CloseLocal() error {
	return op.w.Close(true)
}
