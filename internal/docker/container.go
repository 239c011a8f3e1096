// container.go implements publish-port based container discovery and the
// forced stop used to release a port held by a container.
package docker

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/portclaim/internal/model"
)

// PublishedContainer describes a running container that publishes the
// target port to the host. This data is fetched from the Docker API at
// query time, not persisted.
type PublishedContainer struct {
	// ID is the full Docker container identifier.
	ID string `json:"id"`

	// Name is the human-readable container name, without the leading "/"
	// the Docker API prefixes it with.
	Name string `json:"name"`

	// Image is the image reference the container was created from.
	Image string `json:"image"`

	// HostPorts lists the host ports the container publishes, restricted
	// to the port the query asked about (a container may publish it on
	// several bind addresses).
	HostPorts []int `json:"hostPorts"`
}

// ContainersPublishing queries the Docker daemon for running containers
// that publish the given host port.
//
// Filtering happens server-side via the "publish" filter, then the result
// is re-checked client-side with publishesPort: the publish filter matches
// on the container port for some daemon versions, and the re-check keeps
// the semantics exact regardless.
func ContainersPublishing(ctx context.Context, cli *Client, port int) ([]PublishedContainer, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("publish", fmt.Sprintf("%d/tcp", port)),
	)

	// Only running containers hold the host port; stopped ones don't
	// keep the proxy listener alive.
	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	var result []PublishedContainer
	for _, c := range containers {
		if !publishesPort(c, port) {
			continue
		}
		result = append(result, toPublishedContainer(c, port))
	}

	return result, nil
}

// publishesPort reports whether the container publishes the given TCP
// port to the host.
func publishesPort(c types.Container, port int) bool {
	for _, p := range c.Ports {
		if p.Type == "tcp" && int(p.PublicPort) == port {
			return true
		}
	}
	return false
}

// toPublishedContainer converts a Docker API container summary into the
// domain representation, collecting the host-side bindings of the target
// port. The leading "/" on the API's container name is stripped — it is
// an artifact of the API, not meaningful to users.
func toPublishedContainer(c types.Container, port int) PublishedContainer {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	var hostPorts []int
	for _, p := range c.Ports {
		if p.Type == "tcp" && int(p.PublicPort) == port {
			hostPorts = append(hostPorts, int(p.PublicPort))
		}
	}

	return PublishedContainer{
		ID:        c.ID,
		Name:      name,
		Image:     c.Image,
		HostPorts: hostPorts,
	}
}

// StopContainer force-stops a container with a zero-second grace period,
// matching the forced-termination semantics of the process kill passes:
// the daemon sends the stop signal and immediately escalates to SIGKILL.
func StopContainer(ctx context.Context, cli *Client, containerID string) error {
	timeout := 0
	err := cli.Inner().ContainerStop(ctx, containerID, container.StopOptions{
		Timeout: &timeout,
	})
	if err != nil {
		return fmt.Errorf("stop container %s: %w", containerID, err)
	}
	return nil
}
