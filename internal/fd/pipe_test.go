package fd

import (
	"bytes"
	"testing"
)

func TestPipe_RoundTrip(t *testing.T) {
	t.Parallel()

	p, err := NewPipe()
	if err != nil {
		t.Fatalf("NewPipe() error: %v", err)
	}

	payload := []byte("hello")
	n, err := p.Write(payload)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write() = %d bytes, want %d", n, len(payload))
	}

	got, err := p.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("Read() = %q, want %q", got, payload)
	}
}

func TestPipe_WriteClosesWriteEnd(t *testing.T) {
	t.Parallel()

	p, err := NewPipe()
	if err != nil {
		t.Fatalf("NewPipe() error: %v", err)
	}
	defer func() { _ = p.Close(true) }()

	if _, err := p.Write([]byte("one-shot")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if p.Writable() {
		t.Error("write end should be closed after one-shot Write")
	}
	if !p.Readable() {
		t.Error("read end must survive closing the write end")
	}
}

func TestPipe_ReadSeesEOFAfterWrite(t *testing.T) {
	t.Parallel()

	p, err := NewPipe()
	if err != nil {
		t.Fatalf("NewPipe() error: %v", err)
	}

	if _, err := p.Write(nil); err != nil {
		t.Fatalf("Write(nil) error: %v", err)
	}
	got, err := p.Read()
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read() = %q, want empty", got)
	}
	if p.Readable() {
		t.Error("read end should be closed after bulk Read")
	}
}

func TestPipe_CloseBothEnds(t *testing.T) {
	t.Parallel()

	p, err := NewPipe()
	if err != nil {
		t.Fatalf("NewPipe() error: %v", err)
	}
	if err := p.Close(true); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := p.Close(true); err != nil {
		t.Fatalf("tolerant double Close() error: %v", err)
	}
}
