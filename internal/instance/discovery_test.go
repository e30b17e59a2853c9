package instance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docker/docker/api/types"
	dockerpkg "github.com/dyluth/pinboard/internal/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDockerEnv(t *testing.T) {
	t.Helper()
	prev := dockerEnvFile
	dockerEnvFile = t.TempDir() + "/missing"
	t.Cleanup(func() { dockerEnvFile = prev })
}

func TestListInstances(t *testing.T) {
	noDockerEnv(t)
	now := time.Unix(10_000, 0)
	cli := &fakeDocker{containers: []types.Container{
		redisContainer("prod", 6380, "running", now.Add(-2*time.Hour-5*time.Minute).Unix()),
		redisContainer("dev", 6379, "exited", now.Add(-time.Hour).Unix()),
		{Labels: map[string]string{"other": "x"}, State: "running"},
	}}

	infos, err := ListInstances(context.Background(), cli, now)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	assert.Equal(t, "dev", infos[0].Name)
	assert.Equal(t, StatusStopped, infos[0].Status)
	assert.Equal(t, "-", infos[0].Uptime)

	assert.Equal(t, "prod", infos[1].Name)
	assert.Equal(t, StatusRunning, infos[1].Status)
	assert.Equal(t, 6380, infos[1].RedisPort)
	assert.Equal(t, "redis://localhost:6380", infos[1].RedisURL)
	assert.Equal(t, "2h 5m", infos[1].Uptime)

	_, err = ListInstances(context.Background(), &fakeDocker{err: errDocker}, now)
	assert.ErrorIs(t, err, errDocker)
}

func TestInferInstance(t *testing.T) {
	ctx := context.Background()

	_, err := InferInstance(ctx, &fakeDocker{})
	assert.ErrorIs(t, err, ErrNoInstances)

	cli := &fakeDocker{containers: []types.Container{
		redisContainer("prod", 6380, "running", 0),
		redisContainer("dev", 6379, "exited", 0),
	}}
	name, err := InferInstance(ctx, cli)
	require.NoError(t, err)
	assert.Equal(t, "prod", name)

	cli.containers = append(cli.containers, redisContainer("staging", 6381, "running", 0))
	_, err = InferInstance(ctx, cli)
	assert.True(t, errors.Is(err, ErrMultipleInstances))
	assert.ErrorContains(t, err, "--instance")
}

func TestGetInstanceRedisPort(t *testing.T) {
	ctx := context.Background()
	cli := &fakeDocker{containers: []types.Container{
		redisContainer("prod", 6390, "running", 0),
		redisContainer("broken", 0, "running", 0),
	}}

	port, err := GetInstanceRedisPort(ctx, cli, "prod")
	require.NoError(t, err)
	assert.Equal(t, 6390, port)

	_, err = GetInstanceRedisPort(ctx, cli, "broken")
	assert.ErrorContains(t, err, "Redis port label missing for instance 'broken'")

	_, err = GetInstanceRedisPort(ctx, cli, "missing")
	assert.ErrorContains(t, err, "Redis container not found for instance 'missing'")
}

func TestVerifyInstanceRunning(t *testing.T) {
	ctx := context.Background()
	other := types.Container{Labels: dockerpkg.BuildLabels("bare", "run", "sidecar"), State: "running"}
	cli := &fakeDocker{containers: []types.Container{
		redisContainer("prod", 6380, "running", 0),
		redisContainer("dev", 6379, "exited", 0),
		other,
	}}

	assert.NoError(t, VerifyInstanceRunning(ctx, cli, "prod"))
	assert.ErrorContains(t, VerifyInstanceRunning(ctx, cli, "dev"), "is not running (component 'redis' is exited)")
	assert.ErrorContains(t, VerifyInstanceRunning(ctx, cli, "bare"), "missing essential component 'redis'")
	assert.ErrorContains(t, VerifyInstanceRunning(ctx, cli, "nope"), "instance 'nope' not found")
}

func TestResolveRedisURL(t *testing.T) {
	noDockerEnv(t)
	ctx := context.Background()
	cli := &fakeDocker{containers: []types.Container{redisContainer("prod", 6385, "running", 0)}}

	name, url, err := ResolveRedisURL(ctx, cli, "")
	require.NoError(t, err)
	assert.Equal(t, "prod", name)
	assert.Equal(t, "redis://localhost:6385", url)

	_, _, err = ResolveRedisURL(ctx, cli, "dev")
	assert.ErrorContains(t, err, "not found")
}

func TestGetRedisHost(t *testing.T) {
	noDockerEnv(t)
	assert.Equal(t, "localhost", GetRedisHost())

	dockerEnvFile = t.TempDir()
	assert.Equal(t, "host.docker.internal", GetRedisHost())
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", FormatDuration(5*time.Second))
	assert.Equal(t, "4m 5s", FormatDuration(4*time.Minute+5*time.Second))
	assert.Equal(t, "3h 4m", FormatDuration(3*time.Hour+4*time.Minute+59*time.Second))
}
