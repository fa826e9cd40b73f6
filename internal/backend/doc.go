// Package backend provides interchangeable strategies for spawning and
// waiting on OS processes.
//
// All backends satisfy one contract: Spawn launches argv with a descriptor
// table and returns a pid; Wait collects that pid's exit status using the
// signed convention (0 success, positive exit code, negative signal number).
// Three implementations exist: native (os.StartProcess), forkexec
// (syscall.ForkExec with a raw descriptor table), and subprocess (delegation
// to os/exec, which insists on collecting exit statuses itself and therefore
// needs a pid registry). They are drop-in substitutable; callers pick one by
// name or rely on the process-wide default.
package backend
