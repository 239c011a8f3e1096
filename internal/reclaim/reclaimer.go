// reclaimer.go implements the reclaim sequence over injected process
// table, prober, and container dependencies.
package reclaim

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// ProcessTable is the process discovery surface the reclaimer needs.
// *proc.Table satisfies it; tests inject fakes.
type ProcessTable interface {
	// FindByPattern returns processes whose command line contains any
	// of the given substrings.
	FindByPattern(patterns []string) ([]model.ProcessInfo, error)

	// FindPortOwners returns processes holding a listening TCP socket
	// on the port.
	FindPortOwners(port int) ([]model.PortOwner, error)
}

// PortProber checks port availability between passes.
// *port.Prober satisfies it.
type PortProber interface {
	// IsFree reports whether the port can be bound right now.
	IsFree(port int) bool

	// WaitUntilFree polls until the port frees or the grace elapses.
	WaitUntilFree(ctx context.Context, port int, grace time.Duration) bool
}

// ContainerReclaimer stops Docker containers publishing the port.
// A nil ContainerReclaimer disables the container pass.
type ContainerReclaimer interface {
	// StopPublishing stops every running container that publishes the
	// port and returns the stopped container IDs.
	StopPublishing(ctx context.Context, port int) ([]string, error)
}

// KillFunc sends a forced termination signal to a PID. proc.Kill is the
// production implementation.
type KillFunc func(pid int) error

// NotifyFunc receives the human-readable status lines emitted during the
// run ("Killing process 1234 using port 5000"). The CLI prints them to
// stdout; a nil NotifyFunc discards them.
type NotifyFunc func(format string, args ...any)

// Options configures a single reclaim run.
type Options struct {
	// Port is the TCP port to free.
	Port int

	// Patterns are command-line substrings identifying stale server
	// processes. Empty disables the pattern pass.
	Patterns []string

	// PatternGrace bounds the wait for the port to free after the
	// pattern pass killed something.
	PatternGrace time.Duration

	// OwnerGrace bounds the wait after the owner and container passes.
	OwnerGrace time.Duration
}

// Reclaimer executes reclaim runs. Construct with New; the zero value is
// not usable.
type Reclaimer struct {
	table      ProcessTable
	prober     PortProber
	containers ContainerReclaimer // nil disables the container pass
	kill       KillFunc
	notify     NotifyFunc

	// protected are PIDs that must never be targeted: this process and
	// its parent (killing the parent would orphan or take down the
	// shell that invoked the tool).
	protected map[int]struct{}
}

// New creates a Reclaimer. table, prober, and kill are required;
// containers and notify may be nil.
func New(table ProcessTable, prober PortProber, containers ContainerReclaimer, kill KillFunc, notify NotifyFunc) *Reclaimer {
	if notify == nil {
		notify = func(string, ...any) {}
	}
	return &Reclaimer{
		table:      table,
		prober:     prober,
		containers: containers,
		kill:       kill,
		notify:     notify,
		protected: map[int]struct{}{
			os.Getpid():  {},
			os.Getppid(): {},
		},
	}
}

// Run executes the reclaim sequence and returns what happened. The only
// error return is for invalid options; everything the sequence itself
// encounters — vanished processes, permission denials, unreachable
// Docker — is recorded in the result and does not abort the run.
func (r *Reclaimer) Run(ctx context.Context, opts Options) (*model.ReclaimResult, error) {
	if err := model.ValidatePort(opts.Port); err != nil {
		return nil, err
	}

	result := &model.ReclaimResult{Port: opts.Port}

	// killed tracks every PID that has already received a termination
	// request this run, successful or not. A process matched by both
	// the pattern pass and the owner pass is killed exactly once.
	killed := make(map[int]struct{})

	r.patternPass(ctx, opts, result, killed)
	r.ownerPass(ctx, opts, result, killed)
	r.containerPass(ctx, opts, result)

	result.PortFree = r.prober.IsFree(opts.Port)
	return result, nil
}

// patternPass kills processes matching the configured command-line
// patterns, then waits (bounded by PatternGrace) for the port to free.
// The wait is skipped when nothing was killed: with no teardown in
// flight there is nothing to wait for.
func (r *Reclaimer) patternPass(ctx context.Context, opts Options, result *model.ReclaimResult, killed map[int]struct{}) {
	if len(opts.Patterns) == 0 {
		return
	}

	procs, err := r.table.FindByPattern(opts.Patterns)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("pattern scan failed: %v", err))
		return
	}

	anyKilled := false
	for _, p := range procs {
		if r.killOnce(p, model.RulePattern, result, killed) {
			anyKilled = true
		}
	}

	if anyKilled {
		r.prober.WaitUntilFree(ctx, opts.Port, opts.PatternGrace)
	}
}

// ownerPass kills whichever process holds a listening socket on the
// port, then waits (bounded by OwnerGrace) for the socket to release.
func (r *Reclaimer) ownerPass(ctx context.Context, opts Options, result *model.ReclaimResult, killed map[int]struct{}) {
	owners, err := r.table.FindPortOwners(opts.Port)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("port owner lookup failed: %v", err))
		return
	}

	anyKilled := false
	for _, owner := range owners {
		if r.killOnce(owner.Process, model.RulePortOwner, result, killed) {
			r.notify("Killing process %d using port %d", owner.Process.PID, opts.Port)
			anyKilled = true
		}
	}

	if anyKilled {
		r.prober.WaitUntilFree(ctx, opts.Port, opts.OwnerGrace)
	}
}

// containerPass stops Docker containers publishing the port. It only
// runs when Docker integration is enabled and the port is still held —
// if the process passes already freed it, there is no container to blame.
func (r *Reclaimer) containerPass(ctx context.Context, opts Options, result *model.ReclaimResult) {
	if r.containers == nil || r.prober.IsFree(opts.Port) {
		return
	}

	// A non-nil error can accompany a partial result: containers that
	// did stop are still recorded as actions.
	stopped, err := r.containers.StopPublishing(ctx, opts.Port)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("container stop failed: %v", err))
	}

	for _, id := range stopped {
		r.notify("Stopping container %s publishing port %d", shortID(id), opts.Port)
		result.Actions = append(result.Actions, model.ReclaimAction{
			ContainerID: id,
			Rule:        model.RuleContainer,
		})
	}

	if len(stopped) > 0 {
		r.prober.WaitUntilFree(ctx, opts.Port, opts.OwnerGrace)
	}
}

// killOnce issues at most one termination request for the process,
// recording the action and its outcome. Returns true if a request was
// issued (successfully or not) — i.e. the process was a fresh target.
// Protected PIDs and already-targeted PIDs are skipped silently.
func (r *Reclaimer) killOnce(p model.ProcessInfo, rule model.ReclaimRule, result *model.ReclaimResult, killed map[int]struct{}) bool {
	if _, ok := r.protected[p.PID]; ok {
		return false
	}
	if _, done := killed[p.PID]; done {
		return false
	}
	killed[p.PID] = struct{}{}

	err := r.kill(p.PID)
	result.Actions = append(result.Actions, model.ReclaimAction{
		Process: p,
		Rule:    rule,
		Err:     err,
	})
	return true
}

// shortID truncates a container ID to the conventional 12-character
// display form for notices.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
