// types.go defines the core data structures passed between portclaim
// components: discovered processes, port ownership records, reclaim
// outcomes, and the CLI error/exit-code types.
//
// Key design decision: all state is reconstructed from OS queries at
// runtime (process table, socket table, Docker API). There is no
// persistent state file on disk.
package model

import (
	"fmt"
	"strings"
)

// ReclaimRule identifies which discovery rule selected a process for
// termination. A single run applies the rules in a fixed order:
//
//	pattern match → port ownership → container publish
//
// Each discovered target records the rule that found it, so the result
// output can explain why a given PID was killed.
type ReclaimRule string

const (
	// RulePattern indicates the process's command line matched one of the
	// configured name patterns (substring match, like pkill -f).
	RulePattern ReclaimRule = "pattern"

	// RulePortOwner indicates the process held a listening socket on the
	// target port at the time of discovery.
	RulePortOwner ReclaimRule = "port-owner"

	// RuleContainer indicates a Docker container published the target port
	// and was stopped to release it.
	RuleContainer ReclaimRule = "container"
)

// String returns the string representation of ReclaimRule.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands.
func (r ReclaimRule) String() string {
	return string(r)
}

// IsValid checks whether the ReclaimRule value is one of the
// predefined valid rules.
func (r ReclaimRule) IsValid() bool {
	switch r {
	case RulePattern, RulePortOwner, RuleContainer:
		return true
	default:
		return false
	}
}

// ParseReclaimRule converts a string to a ReclaimRule.
// Returns an error if the string does not match any valid rule.
func ParseReclaimRule(s string) (ReclaimRule, error) {
	rule := ReclaimRule(strings.ToLower(s))
	if !rule.IsValid() {
		return "", fmt.Errorf("invalid reclaim rule: %q (valid: pattern, port-owner, container)", s)
	}
	return rule, nil
}

// ProcessInfo holds the identity of a process discovered in the OS process
// table. It is a snapshot: the process may exit (or be killed by this tool)
// immediately after discovery.
type ProcessInfo struct {
	// PID is the OS process identifier.
	PID int `json:"pid"`

	// Command is the short executable name (e.g., "python3").
	Command string `json:"command"`

	// Cmdline is the full command line with arguments, space-joined
	// (e.g., "python3 app.py --port 5000"). Used for pattern matching.
	Cmdline string `json:"cmdline"`
}

// String returns a human-readable representation of the process.
// Format: "PID <pid> (<cmdline>)", falling back to the short command
// name when the full command line is unavailable (kernel threads and
// zombies have an empty /proc/<pid>/cmdline).
func (p ProcessInfo) String() string {
	desc := p.Cmdline
	if desc == "" {
		desc = p.Command
	}
	return fmt.Sprintf("PID %d (%s)", p.PID, desc)
}

// PortOwner describes the process currently bound to a listening socket
// on a specific port, as recorded by the operating system.
type PortOwner struct {
	// Process identifies the owning process.
	Process ProcessInfo `json:"process"`

	// Port is the TCP port number the process is listening on.
	Port int `json:"port"`

	// BindAddress is the local address of the listening socket
	// (e.g., "0.0.0.0", "127.0.0.1", "::"). Empty if unknown.
	BindAddress string `json:"bindAddress,omitempty"`
}

// ReclaimAction records a single termination request issued during a
// reclaim run: which process (or container) was targeted, which rule
// selected it, and whether the request succeeded.
//
// Failures are recorded rather than propagated — termination is
// best-effort, and a process that exited between discovery and kill is
// not a condition worth aborting for.
type ReclaimAction struct {
	// Process identifies the targeted process. For container actions the
	// PID is zero and ContainerID is set instead.
	Process ProcessInfo `json:"process,omitempty"`

	// ContainerID is the Docker container identifier, set only for
	// RuleContainer actions.
	ContainerID string `json:"containerId,omitempty"`

	// Rule is the discovery rule that selected this target.
	Rule ReclaimRule `json:"rule"`

	// Err holds the termination failure, if any. Nil means the signal
	// (or container stop) was delivered successfully.
	Err error `json:"-"`
}

// String returns a human-readable summary of the action,
// e.g. "killed PID 1234 (python3 app.py) [port-owner]".
func (a ReclaimAction) String() string {
	verb := "killed"
	if a.Err != nil {
		verb = "failed to kill"
	}
	if a.Rule == RuleContainer {
		return fmt.Sprintf("%s container %s [%s]", verb, shortID(a.ContainerID), a.Rule)
	}
	return fmt.Sprintf("%s %s [%s]", verb, a.Process, a.Rule)
}

// shortID truncates a Docker container ID to the conventional 12-character
// display form. Shorter IDs are returned unchanged.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// ReclaimResult is the outcome of one reclaim run over a target port.
// It records every termination request issued, in order, so callers can
// report what happened and tests can verify that no PID ever receives
// more than one termination request per run.
type ReclaimResult struct {
	// Port is the target port that was reclaimed.
	Port int `json:"port"`

	// Actions lists every termination request issued, in order.
	// Empty when nothing matched and the port was already free.
	Actions []ReclaimAction `json:"actions,omitempty"`

	// PortFree reports whether the port was observed free after the
	// final reclaim pass. Best-effort: another process may grab the
	// port between this observation and any subsequent launch.
	PortFree bool `json:"portFree"`

	// Warnings lists non-fatal problems encountered during discovery
	// (process table scan failed, Docker unreachable). Lookup failures
	// never abort a reclaim run; they only degrade it.
	Warnings []string `json:"warnings,omitempty"`
}

// KilledPIDs returns the PIDs of all processes that received a successful
// termination request, in action order. Container actions are excluded.
func (r *ReclaimResult) KilledPIDs() []int {
	var pids []int
	for _, a := range r.Actions {
		if a.Err == nil && a.Process.PID != 0 {
			pids = append(pids, a.Process.PID)
		}
	}
	return pids
}

// Failures returns the actions whose termination request failed.
func (r *ReclaimResult) Failures() []ReclaimAction {
	var failed []ReclaimAction
	for _, a := range r.Actions {
		if a.Err != nil {
			failed = append(failed, a)
		}
	}
	return failed
}

// ValidatePort checks that a port number is within the valid TCP range.
/// Port 0 (kernel-assigned) is rejected: the tool reclaims a specific,
// known port, so "any port" is never a meaningful target.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", port)
	}
	return nil
}

// ValidateCommand checks that a launch command argv is usable: it must
// have at least an executable name in argv[0], and no element may be
// empty (an empty argument is almost always a config mistake, e.g. a
// stray comma in a JSON array).
func ValidateCommand(argv []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("launch command must not be empty")
	}
	for i, arg := range argv {
		if arg == "" {
			return fmt.Errorf("launch command argument %d must not be empty", i)
		}
	}
	return nil
}

// ValidatePatterns checks that every configured process name pattern is
// non-blank. A blank pattern would substring-match every process on the
// host, which combined with forced termination must never happen.
func ValidatePatterns(patterns []string) error {
	for i, p := range patterns {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("process pattern %d must not be blank", i)
		}
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and
// CI systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitConfigError indicates the configuration file could not be
	// found, parsed, or validated.
	ExitConfigError ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon was required
	// but not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitPortStillInUse indicates the target port remained bound after
	// the reclaim sequence completed (returned by "free").
	ExitPortStillInUse ExitCode = 4

	// ExitLaunchFailed indicates the launch command could not be started
	// (executable not found, permission denied, exec failure).
	ExitLaunchFailed ExitCode = 5

	// ExitLookupFailed indicates the process table or port ownership
	// query itself failed (returned by "status", where the lookup is
	// the whole point of the command).
	ExitLookupFailed ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
