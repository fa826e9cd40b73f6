package backend

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
)

// allBackends returns every registered backend for table-driven contract
// tests: the three strategies must be drop-in substitutable.
func allBackends() map[string]Backend {
	return map[string]Backend{
		NameNative:     Native{},
		NameForkExec:   ForkExec{},
		NameSubprocess: NewSubprocess(),
	}
}

func TestSpawnWait_ExitStatus(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		argv []string
		want int
	}{
		"clean exit":      {argv: []string{"sh", "-c", "exit 0"}, want: 0},
		"exit code 7":     {argv: []string{"sh", "-c", "exit 7"}, want: 7},
		"signal death":    {argv: []string{"sh", "-c", "kill -TERM $$"}, want: -int(syscall.SIGTERM)},
		"kill by SIGKILL": {argv: []string{"sh", "-c", "kill -KILL $$"}, want: -int(syscall.SIGKILL)},
	}

	for backendName, b := range allBackends() {
		for name, tc := range tests {
			t.Run(backendName+"/"+name, func(t *testing.T) {
				t.Parallel()

				pid, err := b.Spawn(Spec{Argv: tc.argv})
				if err != nil {
					t.Fatalf("Spawn(%v) error: %v", tc.argv, err)
				}
				status, err := b.Wait(pid)
				if err != nil {
					t.Fatalf("Wait(%d) error: %v", pid, err)
				}
				if status != tc.want {
					t.Fatalf("Wait(%d) = %d, want %d", pid, status, tc.want)
				}
			})
		}
	}
}

func TestSpawn_ExecutableNotFound(t *testing.T) {
	t.Parallel()

	for backendName, b := range allBackends() {
		t.Run(backendName, func(t *testing.T) {
			t.Parallel()

			if _, err := b.Spawn(Spec{Argv: []string{"definitely-not-a-real-binary-3f9c"}}); err == nil {
				t.Fatal("Spawn() of a missing executable should fail")
			}
		})
	}
}

func TestSpawn_StreamRedirection(t *testing.T) {
	t.Parallel()

	for backendName, b := range allBackends() {
		t.Run(backendName, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "out")
			f, err := os.Create(path)
			if err != nil {
				t.Fatalf("create output file: %v", err)
			}
			defer func() { _ = f.Close() }()

			pid, err := b.Spawn(Spec{
				Argv:    []string{"echo", "hello world"},
				Streams: map[int]int{1: int(f.Fd())},
			})
			if err != nil {
				t.Fatalf("Spawn() error: %v", err)
			}
			if status, err := b.Wait(pid); err != nil || status != 0 {
				t.Fatalf("Wait() = %d, %v; want 0, nil", status, err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read output file: %v", err)
			}
			if got := strings.TrimSpace(string(data)); got != "hello world" {
				t.Fatalf("child stdout = %q, want %q", got, "hello world")
			}
		})
	}
}

func TestSpawn_Environment(t *testing.T) {
	t.Parallel()

	for backendName, b := range allBackends() {
		t.Run(backendName, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "out")
			f, err := os.Create(path)
			if err != nil {
				t.Fatalf("create output file: %v", err)
			}
			defer func() { _ = f.Close() }()

			pid, err := b.Spawn(Spec{
				Argv:    []string{"sh", "-c", "echo $GREETING"},
				Env:     []string{"GREETING=salut", "PATH=" + os.Getenv("PATH")},
				Streams: map[int]int{1: int(f.Fd())},
			})
			if err != nil {
				t.Fatalf("Spawn() error: %v", err)
			}
			if status, err := b.Wait(pid); err != nil || status != 0 {
				t.Fatalf("Wait() = %d, %v; want 0, nil", status, err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("read output file: %v", err)
			}
			if got := strings.TrimSpace(string(data)); got != "salut" {
				t.Fatalf("child saw GREETING=%q, want %q", got, "salut")
			}
		})
	}
}

func TestSubprocess_WaitFallsBackForForeignPids(t *testing.T) {
	t.Parallel()

	// A pid spawned by another backend is unknown to the registry; Wait
	// must still collect it through the kernel.
	pid, err := (Native{}).Spawn(Spec{Argv: []string{"sh", "-c", "exit 3"}})
	if err != nil {
		t.Fatalf("Spawn() error: %v", err)
	}
	status, err := NewSubprocess().Wait(pid)
	if err != nil {
		t.Fatalf("Wait(%d) error: %v", pid, err)
	}
	if status != 3 {
		t.Fatalf("Wait(%d) = %d, want 3", pid, status)
	}
}

func TestSubprocess_RejectsNonStandardDescriptors(t *testing.T) {
	t.Parallel()

	_, err := NewSubprocess().Spawn(Spec{
		Argv:    []string{"true"},
		Streams: map[int]int{3: 1},
	})
	if err == nil {
		t.Fatal("Spawn() with child descriptor 3 should fail on the subprocess backend")
	}
}

func TestDecodeWaitStatus_Unknown(t *testing.T) {
	t.Parallel()

	// 0xffff is neither exited, signaled, nor stopped.
	if _, err := decodeWaitStatus(unix.WaitStatus(0xffff)); !errors.Is(err, ErrUnknownWaitStatus) {
		t.Fatalf("decodeWaitStatus(0xffff) error = %v, want ErrUnknownWaitStatus", err)
	}
}
