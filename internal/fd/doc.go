// Package fd provides the file descriptor and pipe primitives used to wire
// child process streams.
//
// It defines FD, a raw descriptor with an open-mode tag and tolerant close
// semantics; Pipe, a one-shot bulk channel over a kernel pipe; InputPipe,
// which feeds a Source into a child's stdin from a background writer so the
// caller never deadlocks against the kernel pipe buffer; and OutputPipe,
// which captures a child's stdout or stderr for a later bulk read.
package fd
