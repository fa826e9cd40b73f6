//go:build linux

package procfs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Tasks returns the thread ids of pid from /proc/PID/task. A process has at
// least one task: itself.
func Tasks(pid int) ([]int, error) {
	entries, err := os.ReadDir(fmt.Sprintf("/proc/%d/task", pid))
	if err != nil {
		return nil, fmt.Errorf("list tasks of pid %d: %w", pid, err)
	}
	tasks := make([]int, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		tasks = append(tasks, tid)
	}
	return tasks, nil
}

// Children returns the direct children of pid, or the whole descendant tree
// when recursive is set. The walk is iterative with an explicit frontier so
// deep trees never grow the stack.
//
// Processes exiting mid-walk are tolerated: a vanished /proc entry simply
// contributes no children. The snapshot is inherently racy; callers signal
// whatever set they get.
func Children(pid int, recursive bool) ([]int, error) {
	var children []int
	frontier := []int{pid}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]

		direct, err := directChildren(next)
		if err != nil {
			if next == pid {
				return nil, err
			}
			continue // descendant exited mid-walk
		}
		children = append(children, direct...)
		if recursive {
			frontier = append(frontier, direct...)
		}
	}
	return children, nil
}

// directChildren reads the children of every task of pid.
func directChildren(pid int) ([]int, error) {
	tasks, err := Tasks(pid)
	if err != nil {
		return nil, err
	}
	var children []int
	for _, tid := range tasks {
		data, err := os.ReadFile(fmt.Sprintf("/proc/%d/task/%d/children", pid, tid))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read children of pid %d task %d: %w", pid, tid, err)
		}
		for _, field := range strings.Fields(string(data)) {
			child, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("parse child pid %q of pid %d: %w", field, pid, err)
			}
			children = append(children, child)
		}
	}
	return children, nil
}
