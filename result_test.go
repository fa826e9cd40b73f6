package procpipe

import (
	"bytes"
	"errors"
	"syscall"
	"testing"
)

func TestResult_Check(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		result  Result
		wantErr bool
	}{
		"success":      {result: Result{Argv: []string{"true"}, Status: 0}},
		"exit code":    {result: Result{Argv: []string{"false"}, Status: 1}, wantErr: true},
		"signal death": {result: Result{Argv: []string{"sleep", "60"}, Status: -int(syscall.SIGKILL)}, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res, err := tc.result.Check()
			if res == nil {
				t.Fatal("Check() returned nil result")
			}
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("Check() error: %v", err)
				}
				return
			}
			var resErr *ResultError
			if !errors.As(err, &resErr) {
				t.Fatalf("Check() error = %T, want *ResultError", err)
			}
			if resErr.Status != tc.result.Status {
				t.Fatalf("error Status = %d, want %d", resErr.Status, tc.result.Status)
			}
		})
	}
}

func TestResultError_Message(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		result Result
		want   string
	}{
		"exit status": {
			result: Result{Argv: []string{"grep", "-q", "needle"}, Status: 2},
			want:   "grep -q needle: exit status 2",
		},
		"killed by signal": {
			result: Result{Argv: []string{"sleep", "60"}, Status: -int(syscall.SIGTERM)},
			want:   "sleep 60: killed by terminated",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := &ResultError{Result: tc.result}
			if got := err.Error(); got != tc.want {
				t.Fatalf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResult_ExitCode(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		status int
		want   int
	}{
		"zero":       {status: 0, want: 0},
		"exit code":  {status: 42, want: 42},
		"terminated": {status: -int(syscall.SIGTERM), want: 128 + int(syscall.SIGTERM)},
		"killed":     {status: -int(syscall.SIGKILL), want: 128 + int(syscall.SIGKILL)},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r := Result{Status: tc.status}
			if got := r.ExitCode(); got != tc.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestResult_DieOnSuccess(t *testing.T) {
	restoreDieHooks := swapDieHooks(t, func(int) {
		t.Error("Die() must not exit on a zero status")
	})
	defer restoreDieHooks()

	r := &Result{Argv: []string{"true"}, Status: 0}
	if got := r.Die(); got != r {
		t.Fatal("Die() should return its receiver on success")
	}
}

func TestResult_DieOnFailure(t *testing.T) {
	var exitCode int
	restoreDieHooks := swapDieHooks(t, func(code int) {
		exitCode = code
	})
	defer restoreDieHooks()

	r := &Result{
		Argv:   []string{"sh", "-c", "exit 3"},
		Status: 3,
		Stderr: []byte("boom\n"),
	}
	r.Die()

	if exitCode != 3 {
		t.Errorf("Die() exited with %d, want 3", exitCode)
	}
	buf := dieStderr.(*bytes.Buffer)
	if buf.String() != "boom\n" {
		t.Errorf("Die() forwarded stderr %q, want %q", buf.String(), "boom\n")
	}
}

// swapDieHooks redirects the program-boundary hooks for one test. Tests
// using it cannot run in parallel with each other.
func swapDieHooks(t *testing.T, exit func(int)) func() {
	t.Helper()

	prevExit, prevStderr := dieExit, dieStderr
	dieExit = exit
	dieStderr = &bytes.Buffer{}
	return func() {
		dieExit = prevExit
		dieStderr = prevStderr
	}
}
