//go:build linux

package procfs

import (
	"os"
	"os/exec"
	"slices"
	"strconv"
	"testing"
	"time"
)

func TestTasks_SelfIncluded(t *testing.T) {
	t.Parallel()

	pid := os.Getpid()
	tasks, err := Tasks(pid)
	if err != nil {
		t.Fatalf("Tasks(%d) error: %v", pid, err)
	}
	if !slices.Contains(tasks, pid) {
		t.Fatalf("Tasks(%d) = %v, want to contain %d", pid, tasks, pid)
	}
}

func TestTasks_NoSuchPid(t *testing.T) {
	t.Parallel()

	// Pid 0 has no /proc entry from a process's point of view.
	if _, err := Tasks(0); err == nil {
		t.Fatal("Tasks(0) should fail")
	}
}

func TestChildren_FindsDirectChild(t *testing.T) {
	t.Parallel()

	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}
	defer func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	children, err := Children(os.Getpid(), false)
	if err != nil {
		t.Fatalf("Children() error: %v", err)
	}
	if !slices.Contains(children, cmd.Process.Pid) {
		t.Fatalf("Children() = %v, want to contain %d", children, cmd.Process.Pid)
	}
}

func TestChildren_RecursiveFindsGrandchild(t *testing.T) {
	t.Parallel()

	// The shell forks a sleep and waits for it, giving us a two-level
	// tree below this process.
	cmd := exec.Command("sh", "-c", "sleep 30 & wait")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start child: %v", err)
	}
	defer func() {
		_ = exec.Command("pkill", "-KILL", "-P", strconv.Itoa(cmd.Process.Pid)).Run()
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	}()

	// The grandchild appears once the shell has forked it; poll briefly.
	for range 100 {
		all, err := Children(os.Getpid(), true)
		if err != nil {
			t.Fatalf("Children() error: %v", err)
		}
		direct, err := Children(cmd.Process.Pid, false)
		if err == nil && len(direct) > 0 && slices.Contains(all, direct[0]) {
			return // recursive walk found the grandchild
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("recursive Children() never reported the grandchild")
}
