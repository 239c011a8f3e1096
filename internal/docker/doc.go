// Package docker provides Docker Engine API wrappers for finding and
// stopping containers that publish the target port.
//
// A port held by a container cannot be reclaimed by killing a host
// process: the host-side listener belongs to the Docker port proxy (or
// the kernel's NAT rules), so the container itself must be stopped.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Daemon connectivity checks (Ping)
//   - Publish-port based container discovery and forced stop
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
// Docker integration is best-effort for the reclaim sequence: an
// unreachable daemon degrades the run to host-process reclaim only.
package docker
