package docker

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
)

// makeTestContainer is a helper that creates a Docker API container
// summary with the given name and port mappings. This avoids repetitive
// struct construction across test cases.
func makeTestContainer(id, name, image string, ports ...types.Port) types.Container {
	return types.Container{
		ID:    id,
		Names: []string{"/" + name},
		Image: image,
		Ports: ports,
	}
}

// tcpPort builds a TCP port mapping from a container port to a host port.
func tcpPort(private, public int) types.Port {
	return types.Port{
		PrivatePort: uint16(private),
		PublicPort:  uint16(public),
		Type:        "tcp",
	}
}

// TestPublishesPort verifies the host-port match used to decide whether
// a container holds the target port.
func TestPublishesPort(t *testing.T) {
	tests := []struct {
		name      string
		container types.Container
		port      int
		expected  bool
	}{
		{
			"direct publish",
			makeTestContainer("aaa", "web", "nginx", tcpPort(80, 5000)),
			5000,
			true,
		},
		{
			"different host port",
			makeTestContainer("bbb", "web", "nginx", tcpPort(80, 8080)),
			5000,
			false,
		},
		{
			"container port matches but host port differs",
			makeTestContainer("ccc", "web", "nginx", tcpPort(5000, 8080)),
			5000,
			false,
		},
		{
			"one of several mappings",
			makeTestContainer("ddd", "app", "app:dev", tcpPort(80, 8080), tcpPort(5000, 5000)),
			5000,
			true,
		},
		{
			"udp mapping does not count",
			makeTestContainer("eee", "dns", "coredns", types.Port{PrivatePort: 53, PublicPort: 5000, Type: "udp"}),
			5000,
			false,
		},
		{
			"no published ports",
			makeTestContainer("fff", "worker", "worker:latest"),
			5000,
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, publishesPort(tt.container, tt.port))
		})
	}
}

// TestToPublishedContainer verifies the API-to-domain conversion,
// including the strip of the leading "/" from container names and the
// restriction of HostPorts to the queried port.
func TestToPublishedContainer(t *testing.T) {
	c := makeTestContainer("0123456789abcdef", "flask-dev", "python:3.12",
		tcpPort(5000, 5000), tcpPort(9229, 9229))

	result := toPublishedContainer(c, 5000)

	assert.Equal(t, "0123456789abcdef", result.ID)
	assert.Equal(t, "flask-dev", result.Name, "leading slash must be stripped")
	assert.Equal(t, "python:3.12", result.Image)
	assert.Equal(t, []int{5000}, result.HostPorts, "only the queried port is listed")
}

// TestToPublishedContainer_NoNames verifies the conversion tolerates a
// container summary with an empty Names slice.
func TestToPublishedContainer_NoNames(t *testing.T) {
	c := types.Container{ID: "abc", Ports: []types.Port{tcpPort(80, 5000)}}

	result := toPublishedContainer(c, 5000)
	assert.Empty(t, result.Name)
}
