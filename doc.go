// Package procpipe spawns external processes, wires their standard streams
// together, and collects their results without deadlock, even when payloads
// exceed the kernel pipe buffer.
//
// # Basic Usage
//
//	import "github.com/giantswarm/procpipe"
//
//	p, err := procpipe.Spawn("tr a-z A-Z",
//	    procpipe.WithStdin(procpipe.Bytes([]byte("abc"))),
//	    procpipe.WithStdout(procpipe.Capture()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := p.Wait()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := res.Check(); err != nil {
//	    log.Fatal(err) // *ResultError with argv, status, stdout, stderr
//	}
//	fmt.Printf("%s", res.Stdout) // ABC
//
// # Pipelines
//
// A Process can feed another Process, forming a shell-like pipeline. Waiting
// on the tail collects every stage, oldest first:
//
//	a, _ := procpipe.Spawn("echo abc", procpipe.WithStdout(procpipe.Capture()))
//	b, _ := procpipe.Spawn("tr a-z A-Z",
//	    procpipe.WithStdin(procpipe.FromProcess(a)),
//	    procpipe.WithStdout(procpipe.Capture()),
//	)
//	results, _ := b.WaitAll() // [echo result, tr result]
//
// # Large Inputs
//
// Stdin sources are fed from a background writer, so inputs larger than the
// kernel pipe buffer cannot deadlock the caller against the child:
//
//	p, _ := procpipe.Spawn("tr a-z A-Z",
//	    procpipe.WithStdin(procpipe.Bytes(bytes.Repeat([]byte("x"), 12_345_678))),
//	    procpipe.WithStdout(procpipe.Capture()),
//	)
//	res, _ := p.Wait() // len(res.Stdout) == 12_345_678
//
// # Backends
//
// Three interchangeable spawn/wait strategies exist: native (os.StartProcess,
// the default), forkexec (syscall.ForkExec), and subprocess (os/exec with a
// pid registry). Select one per call with WithBackend, or process-wide via
// the PROCPIPE_BACKEND environment variable, read once at first use.
package procpipe
