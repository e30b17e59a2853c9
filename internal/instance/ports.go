package instance

import (
	"context"
	"fmt"
	"net"
	"strconv"

	dockerpkg "github.com/dyluth/pinboard/internal/docker"
)

const (
	// Port range for Redis containers (allows 100 concurrent instances)
	startPort = 6379
	endPort   = 6478
)

// portBindable is swapped out in tests.
var portBindable = isPortBindable

// FindNextAvailablePort finds the next available port for Redis, starting from 6379.
// Ports claimed by existing instance labels or already bound on the host are skipped.
func FindNextAvailablePort(ctx context.Context, cli ContainerLister) (int, error) {
	containers, err := listContainers(ctx, cli,
		dockerpkg.LabelFilter(dockerpkg.LabelProject, "true"),
		dockerpkg.LabelFilter(dockerpkg.LabelComponent, dockerpkg.ComponentRedis),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to query Docker containers: %w", err)
	}

	usedPorts := make(map[int]bool)
	for _, c := range containers {
		if port, err := strconv.Atoi(c.Labels[dockerpkg.LabelRedisPort]); err == nil {
			usedPorts[port] = true
		}
	}

	for port := startPort; port <= endPort; port++ {
		if usedPorts[port] {
			continue
		}
		if portBindable(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("no available Redis ports (range %d-%d exhausted)", startPort, endPort)
}

// isPortBindable checks if a port can be bound on localhost.
func isPortBindable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
