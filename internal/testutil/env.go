//go:build integration

// Package testutil provides helpers for integration tests that need a real
// Redis server.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dyluth/pinboard/pkg/board"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// StoreEnvironment is an isolated store backed by a disposable Redis container
type StoreEnvironment struct {
	T         *testing.T
	Ctx       context.Context
	RedisURL  string
	Namespace string
	Client    *board.Client
}

// StartRedis starts a Redis container and returns its URL. The container is
// terminated when the test finishes.
func StartRedis(t *testing.T) string {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "Failed to start Redis container")

	t.Cleanup(func() {
		if err := redisC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Redis container: %v", err)
		}
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err, "Failed to get container host")

	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err, "Failed to get container port")

	return fmt.Sprintf("redis://%s:%s", host, port.Port())
}

// SetupStoreEnvironment starts Redis and connects a store client under a
// unique namespace.
func SetupStoreEnvironment(t *testing.T) *StoreEnvironment {
	redisURL := StartRedis(t)

	opts, err := redis.ParseURL(redisURL)
	require.NoError(t, err, "Failed to parse Redis URL")

	namespace := "it-" + uuid.NewString()[:8]
	client, err := board.NewClient(opts, namespace)
	require.NoError(t, err, "Failed to create store client")
	t.Cleanup(func() { client.Close() })

	return &StoreEnvironment{
		T:         t,
		Ctx:       context.Background(),
		RedisURL:  redisURL,
		Namespace: namespace,
		Client:    client,
	}
}

// NewActor registers a user and returns a client acting on their behalf
func (env *StoreEnvironment) NewActor(email, name string) *board.Client {
	u, err := env.Client.CreateUser(env.Ctx, email, name)
	require.NoError(env.T, err, "Failed to create user")
	return env.Client.WithActor(u.ID)
}
