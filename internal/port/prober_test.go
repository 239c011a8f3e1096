package port

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listenOnFreePort starts a TCP listener on an OS-assigned port (":0"
// lets the OS pick a free one, avoiding flakiness from hardcoded ports)
// and returns the listener plus its port number.
func listenOnFreePort(t *testing.T) (net.Listener, int) {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "failed to start test listener")

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)
	return listener, tcpAddr.Port
}

// TestIsFree_FreePort verifies that IsFree returns true for a port no
// process is using: we take an OS-assigned port, release it, and probe.
func TestIsFree_FreePort(t *testing.T) {
	listener, port := listenOnFreePort(t)
	require.NoError(t, listener.Close())

	prober := NewProber()
	assert.True(t, prober.IsFree(port), "port %d should be free after the listener closed", port)
}

// TestIsFree_UsedPort verifies that IsFree returns false while another
// listener holds the port. This simulates the real-world scenario where a
// stale server still occupies the target port.
func TestIsFree_UsedPort(t *testing.T) {
	listener, port := listenOnFreePort(t)
	defer func() { _ = listener.Close() }()

	prober := NewProber()
	assert.False(t, prober.IsFree(port), "port %d should be in use (we have a listener on it)", port)
}

// TestWaitUntilFree_AlreadyFree verifies the fast path: a free port
// returns immediately without consuming the grace period.
func TestWaitUntilFree_AlreadyFree(t *testing.T) {
	listener, port := listenOnFreePort(t)
	require.NoError(t, listener.Close())

	prober := NewProber()
	start := time.Now()
	free := prober.WaitUntilFree(context.Background(), port, 5*time.Second)

	assert.True(t, free)
	assert.Less(t, time.Since(start), time.Second, "free port must not wait out the grace period")
}

// TestWaitUntilFree_FreesDuringGrace verifies the early return: the wait
// ends as soon as the port frees, well before the grace deadline.
func TestWaitUntilFree_FreesDuringGrace(t *testing.T) {
	listener, port := listenOnFreePort(t)

	// Release the port shortly after the wait begins.
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = listener.Close()
	}()

	prober := NewProber()
	start := time.Now()
	free := prober.WaitUntilFree(context.Background(), port, 5*time.Second)

	assert.True(t, free)
	assert.Less(t, time.Since(start), 2*time.Second, "wait should end soon after the port frees")
}

// TestWaitUntilFree_GraceExpires verifies that a port which never frees
// causes the wait to give up once the grace period elapses.
func TestWaitUntilFree_GraceExpires(t *testing.T) {
	listener, port := listenOnFreePort(t)
	defer func() { _ = listener.Close() }()

	prober := NewProber()
	free := prober.WaitUntilFree(context.Background(), port, 200*time.Millisecond)

	assert.False(t, free, "port held for the whole grace period should report not free")
}

// TestWaitUntilFree_ZeroGrace verifies that a zero grace performs a single
// immediate probe instead of polling.
func TestWaitUntilFree_ZeroGrace(t *testing.T) {
	listener, port := listenOnFreePort(t)
	defer func() { _ = listener.Close() }()

	prober := NewProber()
	assert.False(t, prober.WaitUntilFree(context.Background(), port, 0))
}

// TestWaitUntilFree_ContextCanceled verifies that canceling the context
// aborts the wait before the grace deadline.
func TestWaitUntilFree_ContextCanceled(t *testing.T) {
	listener, port := listenOnFreePort(t)
	defer func() { _ = listener.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	prober := NewProber()
	start := time.Now()
	free := prober.WaitUntilFree(ctx, port, 10*time.Second)

	assert.False(t, free)
	assert.Less(t, time.Since(start), 5*time.Second, "cancellation should cut the wait short")
}
