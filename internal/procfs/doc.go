// Package procfs discovers OS-level process ancestry through /proc.
//
// It backs process-tree signaling for children a managed process forked on
// its own, which no pipeline bookkeeping can know about. Only Linux exposes
// /proc/PID/task/TID/children; other platforms get a stub that reports
// ErrUnsupported.
package procfs
