// proc.go defines the Table type shared by the platform-specific
// implementations, plus the pattern-matching helper and forced kill.
package proc

import (
	"os"
	"strings"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// Table answers queries against the OS process table.
//
// On Linux, root is the procfs mount point ("/proc" in production,
// a synthetic directory in tests). On other platforms root is unused
// and the queries shell out to pgrep/lsof instead.
type Table struct {
	root string
}

// NewTable creates a Table backed by the real process table.
func NewTable() *Table {
	return &Table{root: "/proc"}
}

// NewTableWithRoot creates a Table rooted at an alternative procfs path.
// Used by tests to query a synthetic /proc tree. Only meaningful on Linux.
func NewTableWithRoot(root string) *Table {
	return &Table{root: root}
}

// MatchesAny reports whether the command line contains any of the given
// substrings. Matching is a plain substring test, the same semantics as
// pkill -f with a fixed string: "python app.py" matches
// "python app.py --debug" but not "python application.py arg".
func MatchesAny(cmdline string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(cmdline, p) {
			return true
		}
	}
	return false
}

// Kill sends a forced termination signal to the process: SIGKILL on Unix,
// TerminateProcess on Windows. The signal bypasses any graceful shutdown
// handling in the target. Errors (process already gone, permission denied)
// are returned for the caller to record; callers treat them as best-effort.
func Kill(pid int) error {
	// os.FindProcess never fails on Unix; it only validates the PID range.
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// dedupe returns the processes with duplicate PIDs removed, preserving
// first-seen order. The pattern and port-owner queries can both surface
// the same process; discovery-level callers rely on a duplicate-free list.
func dedupe(procs []model.ProcessInfo) []model.ProcessInfo {
	seen := make(map[int]struct{}, len(procs))
	out := procs[:0]
	for _, p := range procs {
		if _, ok := seen[p.PID]; ok {
			continue
		}
		seen[p.PID] = struct{}{}
		out = append(out, p)
	}
	return out
}
