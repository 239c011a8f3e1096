// Package reclaim orchestrates the port reclaim sequence: the linear
// kill-wait-kill-wait flow that frees a target port before a server
// launch.
//
// The sequence runs in three passes, each best-effort:
//
//  1. Pattern pass — kill processes whose command line matches the
//     configured patterns, then wait (bounded) for the port to free.
//  2. Owner pass — kill whichever process holds a listening socket on
//     the port, then wait again.
//  3. Container pass — stop Docker containers publishing the port, if
//     Docker integration is enabled and the port is still held.
//
// No PID ever receives more than one termination request per run, and
// the reclaimer never targets its own process or its parent. Discovery
// and termination failures are recorded in the result, not propagated:
// the run always proceeds to its conclusion.
//
// All OS interactions are behind narrow injected interfaces so the
// sequencing logic is testable without killing anything real.
package reclaim
