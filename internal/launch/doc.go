// Package launch hands the process over to the server command once the
// port has been reclaimed.
//
// On Unix the handoff is a true exec: the portclaim process image is
// replaced by the server, so the server inherits the PID, stdio, and
// environment, and no wrapper process lingers to show up in later
// pattern scans. On Windows, where exec does not exist, the server is
// spawned as a child with inherited stdio and its exit code is
// propagated.
package launch
