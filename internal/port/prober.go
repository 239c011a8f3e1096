// prober.go implements OS-level port availability checks via net.Listen
// and the grace-bounded wait used between reclaim passes.
package port

import (
	"context"
	"fmt"
	"net"
	"time"
)

// defaultPollInterval is the delay between availability probes inside
// WaitUntilFree. 50ms keeps the reaction to a freed port well under the
// shortest configured grace period while avoiding a busy loop.
const defaultPollInterval = 50 * time.Millisecond

// Prober checks whether specific TCP ports are available on the host.
//
// It uses the operating system's network stack (net.Listen) to determine
// if a port is free. This is the most reliable method because it asks the
// OS directly, rather than parsing /proc/net/* or relying on external
// commands like `lsof` or `ss` which may require elevated permissions.
//
// The struct is currently stateless, but is defined as a struct (rather
// than bare functions) so that future options (e.g., bind address, poll
// interval) can be added without breaking the API. It also makes the
// Prober injectable as a dependency, which improves testability of the
// reclaimer.
type Prober struct{}

// NewProber creates a new Prober instance.
func NewProber() *Prober {
	return &Prober{}
}

// IsFree checks whether a TCP port can be bound on the host machine.
//
// It attempts net.Listen("tcp", ":port"). If the bind succeeds, the port
// is free — the listener is immediately closed via defer. We bind to all
// interfaces (":port" rather than "127.0.0.1:port") because servers
// typically listen on 0.0.0.0, so we must check the same address space
// to avoid false positives.
//
// Returns true if the port is free, false if it is already in use.
func (p *Prober) IsFree(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	defer func() { _ = listener.Close() }()
	return true
}

// WaitUntilFree polls the port until it becomes free, the grace period
// elapses, or the context is canceled. It returns true if the port was
// observed free, false otherwise.
//
// A grace of zero (or negative) performs a single immediate probe, which
// keeps "no waiting" configurations cheap.
//
// The grace period is an upper bound, not a fixed sleep: when the killed
// process releases the socket quickly, the wait ends early. Kill-to-probe
// races (the socket lingering briefly in the kernel after process exit)
// are absorbed by the polling loop.
func (p *Prober) WaitUntilFree(ctx context.Context, port int, grace time.Duration) bool {
	if p.IsFree(port) {
		return true
	}
	if grace <= 0 {
		return false
	}

	deadline := time.NewTimer(grace)
	defer deadline.Stop()

	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			// Final probe at the deadline: the port may have freed
			// between the last tick and now.
			return p.IsFree(port)
		case <-ticker.C:
			if p.IsFree(port) {
				return true
			}
		}
	}
}
