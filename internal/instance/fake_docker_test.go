package instance

import (
	"context"
	"errors"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	dockerpkg "github.com/dyluth/pinboard/internal/docker"
)

// fakeDocker answers ContainerList by applying label filters to a fixed set.
type fakeDocker struct {
	containers []types.Container
	err        error
	calls      []container.ListOptions
}

func (f *fakeDocker) ContainerList(_ context.Context, opts container.ListOptions) ([]types.Container, error) {
	f.calls = append(f.calls, opts)
	if f.err != nil {
		return nil, f.err
	}
	want := opts.Filters.Get("label")
	var out []types.Container
	for _, c := range f.containers {
		if matchesAll(c.Labels, want) {
			out = append(out, c)
		}
	}
	return out, nil
}

func matchesAll(labels map[string]string, pairs []string) bool {
	for _, p := range pairs {
		found := false
		for k, v := range labels {
			if fmt.Sprintf("%s=%s", k, v) == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func redisContainer(name string, port int, state string, created int64) types.Container {
	labels := dockerpkg.BuildLabels(name, "run-"+name, dockerpkg.ComponentRedis)
	if port > 0 {
		labels[dockerpkg.LabelRedisPort] = fmt.Sprintf("%d", port)
	}
	return types.Container{Labels: labels, State: state, Created: created}
}

var errDocker = errors.New("daemon unavailable")
