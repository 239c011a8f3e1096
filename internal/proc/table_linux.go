//go:build linux

// table_linux.go answers process-table queries directly from procfs,
// with no external commands. Requires Linux.
package proc

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// tcpStateListen is the LISTEN value of the "st" column in /proc/net/tcp,
// from the kernel's TCP_LISTEN state constant.
const tcpStateListen = "0A"

// FindByPattern returns the processes whose full command line contains any
// of the given substrings. Processes that disappear mid-scan (the usual
// procfs race) are silently skipped, as are kernel threads and zombies,
// which expose an empty cmdline.
func (t *Table) FindByPattern(patterns []string) ([]model.ProcessInfo, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	procs, err := t.listProcesses()
	if err != nil {
		return nil, err
	}

	var matched []model.ProcessInfo
	for _, p := range procs {
		if p.Cmdline == "" {
			continue
		}
		if MatchesAny(p.Cmdline, patterns) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// FindPortOwners returns the processes holding a listening TCP socket on
// the given port, for both IPv4 and IPv6.
//
// The lookup works in two steps, the same join the lsof and ss tools
// perform internally:
//  1. Scan /proc/net/tcp and /proc/net/tcp6 for LISTEN rows on the port
//     and collect their socket inode numbers.
//  2. Walk every /proc/<pid>/fd directory looking for symlinks of the
//     form "socket:[<inode>]" that reference a collected inode.
//
// Step 2 requires permission to read other processes' fd directories;
// sockets owned by other users' processes are silently not attributed
// (the fd scan skips unreadable directories). This mirrors the behavior
// of running lsof without elevated privileges.
func (t *Table) FindPortOwners(port int) ([]model.PortOwner, error) {
	inodes, err := t.listeningInodes(port)
	if err != nil {
		return nil, err
	}
	if len(inodes) == 0 {
		return nil, nil
	}

	procs, err := t.listProcesses()
	if err != nil {
		return nil, err
	}

	var owners []model.PortOwner
	seen := make(map[int]struct{})
	for _, p := range procs {
		inode, ok := t.ownsSocketInode(p.PID, inodes)
		if !ok {
			continue
		}
		if _, dup := seen[p.PID]; dup {
			continue
		}
		seen[p.PID] = struct{}{}
		owners = append(owners, model.PortOwner{
			Process:     p,
			Port:        port,
			BindAddress: inodes[inode],
		})
	}
	return owners, nil
}

// listProcesses enumerates every numeric entry under the procfs root and
// returns a snapshot of PID, short command name, and full command line.
func (t *Table) listProcesses() ([]model.ProcessInfo, error) {
	entries, err := os.ReadDir(t.root)
	if err != nil {
		return nil, fmt.Errorf("read process table %s: %w", t.root, err)
	}

	var procs []model.ProcessInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			// Non-numeric entries (self, sys, net, ...) are not processes.
			continue
		}

		procs = append(procs, model.ProcessInfo{
			PID:     pid,
			Command: t.readComm(pid),
			Cmdline: t.readCmdline(pid),
		})
	}
	return dedupe(procs), nil
}

// readCmdline reads /proc/<pid>/cmdline and joins the NUL-separated
// arguments with spaces. Returns "" for vanished processes, kernel
// threads, and zombies.
func (t *Table) readCmdline(pid int) string {
	data, err := os.ReadFile(filepath.Join(t.root, strconv.Itoa(pid), "cmdline"))
	if err != nil || len(data) == 0 {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimRight(string(data), "\x00"), "\x00", " "))
}

// readComm reads the short executable name from /proc/<pid>/comm.
func (t *Table) readComm(pid int) string {
	data, err := os.ReadFile(filepath.Join(t.root, strconv.Itoa(pid), "comm"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// listeningInodes returns a map of socket inode → bind address for every
// LISTEN socket on the given port, across /proc/net/tcp and tcp6.
// A missing tcp6 table (IPv6 disabled) is not an error.
func (t *Table) listeningInodes(port int) (map[string]string, error) {
	inodes := make(map[string]string)

	tcp4 := filepath.Join(t.root, "net", "tcp")
	if err := collectListeningInodes(tcp4, port, inodes); err != nil {
		return nil, err
	}

	tcp6 := filepath.Join(t.root, "net", "tcp6")
	if err := collectListeningInodes(tcp6, port, inodes); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return inodes, nil
}

// collectListeningInodes parses one /proc/net/tcp-format table and adds
// the inodes of LISTEN rows on the target port to the map.
//
// Row format (whitespace-separated, after the header line):
//
//	sl local_address rem_address st tx:rx tr:tm retrnsmt uid timeout inode ...
//
// local_address is hex "IP:PORT" with the IP in network-struct byte order.
func collectListeningInodes(path string, port int, inodes map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("read socket table %s: %w", path, err)
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		if i == 0 {
			// Header line.
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}

		if fields[3] != tcpStateListen {
			continue
		}

		addr, rowPort, ok := parseHexAddr(fields[1])
		if !ok || rowPort != port {
			continue
		}

		inodes[fields[9]] = addr
	}
	return nil
}

// parseHexAddr decodes the hex "IP:PORT" form used in /proc/net/tcp
// local_address columns, e.g. "0100007F:1388" → ("127.0.0.1", 5000).
// The IP bytes are stored as little-endian 32-bit words.
func parseHexAddr(s string) (addr string, port int, ok bool) {
	ipHex, portHex, found := strings.Cut(s, ":")
	if !found {
		return "", 0, false
	}

	p, err := strconv.ParseInt(portHex, 16, 32)
	if err != nil {
		return "", 0, false
	}

	raw, err := hex.DecodeString(ipHex)
	if err != nil {
		return "", 0, false
	}

	// Reverse each 4-byte word: the kernel prints the in-memory
	// representation of a little-endian 32-bit word per IPv4 address
	// (IPv6 addresses are four such words).
	if len(raw) != net.IPv4len && len(raw) != net.IPv6len {
		return "", 0, false
	}
	ip := make(net.IP, len(raw))
	for word := 0; word < len(raw); word += 4 {
		ip[word+0] = raw[word+3]
		ip[word+1] = raw[word+2]
		ip[word+2] = raw[word+1]
		ip[word+3] = raw[word+0]
	}

	return ip.String(), int(p), true
}

// ownsSocketInode reports whether the process holds an fd referencing any
// of the given socket inodes, and returns the matched inode. Unreadable
// fd directories (permissions, vanished process) report no ownership.
func (t *Table) ownsSocketInode(pid int, inodes map[string]string) (string, bool) {
	fdDir := filepath.Join(t.root, strconv.Itoa(pid), "fd")
	entries, err := os.ReadDir(fdDir)
	if err != nil {
		return "", false
	}

	for _, entry := range entries {
		target, err := os.Readlink(filepath.Join(fdDir, entry.Name()))
		if err != nil {
			continue
		}
		// Socket fds read back as "socket:[<inode>]".
		inode, ok := strings.CutPrefix(target, "socket:[")
		if !ok {
			continue
		}
		inode = strings.TrimSuffix(inode, "]")
		if _, match := inodes[inode]; match {
			return inode, true
		}
	}
	return "", false
}
