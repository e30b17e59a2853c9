package docker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/docker/docker/client"
)

// ErrDaemonUnavailable is wrapped by NewClient when the daemon does not answer.
var ErrDaemonUnavailable = errors.New("docker daemon not accessible")

// pingTimeout bounds the daemon check so a wedged socket can't hang a command.
const pingTimeout = 5 * time.Second

// NewClient connects to the daemon named by the DOCKER_* environment and
// pings it once.
func NewClient(ctx context.Context) (*client.Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := cli.Ping(pingCtx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("%w: %v\n\nStart Docker (Docker Desktop on macOS, 'sudo systemctl start docker' on Linux)\nor point store.redis_url in pinboard.yml at an existing Redis", ErrDaemonUnavailable, err)
	}

	return cli, nil
}
