// Package port implements TCP port availability probing for the
// portclaim CLI.
//
// Availability is tested by actually binding the port with net.Listen,
// which asks the OS directly rather than parsing /proc/net/* or relying
// on external commands like lsof or ss. The Prober answers two questions:
//
//   - IsFree: can the port be bound right now?
//   - WaitUntilFree: does the port free up within a grace period?
//
// WaitUntilFree replaces the original fixed post-kill sleeps with a
// bounded poll: it returns as soon as the port frees and gives up when
// the grace period elapses, so a fast process teardown never costs the
// full delay.
package port
