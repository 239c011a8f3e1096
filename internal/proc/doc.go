// Package proc provides read access to the operating system's process
// table and forced process termination.
//
// Two discovery queries are supported:
//   - FindByPattern: processes whose full command line contains any of the
//     given substrings (the same semantics as pkill -f)
//   - FindPortOwners: processes holding a listening TCP socket on a port
//
// On Linux both queries are answered directly from procfs: command lines
// from /proc/<pid>/cmdline, and port ownership by joining the socket inodes
// in /proc/net/tcp and /proc/net/tcp6 against /proc/<pid>/fd. The procfs
// root is injectable, which lets tests run against a synthetic tree.
//
// On other platforms the package shells out to pgrep and lsof, the same
// way the git and docker-compose integrations shell out to their CLIs.
package proc
