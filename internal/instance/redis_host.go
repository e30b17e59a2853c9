package instance

import (
	"fmt"
	"os"
)

// dockerEnvFile marks a process running inside a container.
var dockerEnvFile = "/.dockerenv"

// GetRedisHost returns the hostname published instance ports are reachable on.
// Inside a container that is "host.docker.internal", otherwise "localhost".
func GetRedisHost() string {
	if _, err := os.Stat(dockerEnvFile); err == nil {
		return "host.docker.internal"
	}
	return "localhost"
}

// GetRedisURL constructs the full Redis URL for a given port.
func GetRedisURL(port int) string {
	return fmt.Sprintf("redis://%s:%d", GetRedisHost(), port)
}
