//go:build !linux

// table_other.go answers process-table queries by shelling out to the
// pgrep and lsof CLIs on platforms without procfs (macOS, BSDs).
package proc

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// FindByPattern shells out to `pgrep -f -l <pattern>` per pattern and
// merges the results. pgrep exits 1 when nothing matches, which is not
// an error here — an empty result is the normal outcome on a quiet host.
func (t *Table) FindByPattern(patterns []string) ([]model.ProcessInfo, error) {
	var procs []model.ProcessInfo
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		// -f matches against the full command line, -l prints it.
		out, err := exec.Command("pgrep", "-f", "-l", pattern).Output()
		if err != nil {
			if isNoMatchExit(err) {
				continue
			}
			return nil, fmt.Errorf("pgrep -f %q: %w", pattern, err)
		}
		procs = append(procs, parsePgrepOutput(string(out))...)
	}
	return dedupe(procs), nil
}

// FindPortOwners shells out to lsof to resolve which processes hold a
// listening TCP socket on the port:
//
//	lsof -t -i tcp:<port> -s TCP:LISTEN
//
// -t prints bare PIDs, one per line. An exit status of 1 means no owner,
// which is the success case for a free port.
func (t *Table) FindPortOwners(port int) ([]model.PortOwner, error) {
	out, err := exec.Command("lsof", "-t", "-i", fmt.Sprintf("tcp:%d", port), "-s", "TCP:LISTEN").Output()
	if err != nil {
		if isNoMatchExit(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lsof tcp:%d: %w", port, err)
	}

	var owners []model.PortOwner
	seen := make(map[int]struct{})
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		if _, dup := seen[pid]; dup {
			continue
		}
		seen[pid] = struct{}{}
		owners = append(owners, model.PortOwner{
			Process: t.describePID(pid),
			Port:    port,
		})
	}
	return owners, nil
}

// describePID fills in the short command name and full command line for a
// PID via ps. A process that exited between lsof and ps is reported with
// its PID only.
func (t *Table) describePID(pid int) model.ProcessInfo {
	info := model.ProcessInfo{PID: pid}

	if out, err := exec.Command("ps", "-o", "comm=", "-p", strconv.Itoa(pid)).Output(); err == nil {
		info.Command = strings.TrimSpace(string(out))
	}
	if out, err := exec.Command("ps", "-o", "args=", "-p", strconv.Itoa(pid)).Output(); err == nil {
		info.Cmdline = strings.TrimSpace(string(out))
	}
	return info
}

// parsePgrepOutput converts `pgrep -f -l` output ("<pid> <cmdline>" per
// line) into ProcessInfo values.
func parsePgrepOutput(out string) []model.ProcessInfo {
	var procs []model.ProcessInfo
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pidStr, cmdline, _ := strings.Cut(line, " ")
		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			continue
		}
		command := cmdline
		if first, _, found := strings.Cut(cmdline, " "); found {
			command = first
		}
		procs = append(procs, model.ProcessInfo{
			PID:     pid,
			Command: command,
			Cmdline: cmdline,
		})
	}
	return procs
}

// isNoMatchExit reports whether an exec error is the conventional
// "no processes matched" exit status 1 from pgrep/lsof.
func isNoMatchExit(err error) bool {
	exitErr, ok := err.(*exec.ExitError)
	return ok && exitErr.ExitCode() == 1
}
