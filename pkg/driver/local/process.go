package local

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/kong-job/kong/pkg/model"
)

// reconcilePID implements spec.md §4.3's status-reconciliation rule:
// given a PID, a zombie is reaped then its exit_status.txt read; a
// live (non-zombie) process is RUNNING; an absent process falls back
// to exit_status.txt (COMPLETED for 0, FAILED otherwise, UNKNOWN if
// the file is missing entirely).
func reconcilePID(pid int, exitStatusFile string) (model.Status, *int) {
	proc, _ := os.FindProcess(pid) // never fails on unix
	alive := proc.Signal(syscall.Signal(0)) == nil

	if alive {
		if isZombie(pid) {
			var ws syscall.WaitStatus
			_, _ = syscall.Wait4(pid, &ws, syscall.WNOHANG, nil)
			return readExitStatus(exitStatusFile)
		}
		return model.StatusRunning, nil
	}

	return readExitStatus(exitStatusFile)
}

// isZombie reads /proc/<pid>/stat's third field (Linux only); any
// failure to read it is treated as "not a zombie" so callers fall
// through to the ordinary liveness path.
func isZombie(pid int) bool {
	f, err := os.Open(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false
	}
	// Fields: pid (comm) state ... — comm may itself contain spaces, so
	// split on the closing paren rather than plain whitespace.
	line := scanner.Text()
	idx := strings.LastIndex(line, ")")
	if idx < 0 || idx+2 >= len(line) {
		return false
	}
	fields := strings.Fields(line[idx+2:])
	if len(fields) == 0 {
		return false
	}
	return fields[0] == "Z"
}

func readExitStatus(path string) (model.Status, *int) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.StatusUnknown, nil
	}
	code, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return model.StatusUnknown, nil
	}
	if code == 0 {
		return model.StatusCompleted, &code
	}
	return model.StatusFailed, &code
}
