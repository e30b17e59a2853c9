package instance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/docker/docker/api/types"
	dockerpkg "github.com/dyluth/pinboard/internal/docker"
)

var (
	// ErrNoInstances is returned by InferInstance when nothing is running
	ErrNoInstances = errors.New("no pinboard instances found")

	// ErrMultipleInstances is returned by InferInstance when the choice is ambiguous
	ErrMultipleInstances = errors.New("multiple pinboard instances running")
)

// ListInstances groups pinboard containers by instance and reports each
// instance's status, sorted by name.
func ListInstances(ctx context.Context, cli ContainerLister, now time.Time) ([]InstanceInfo, error) {
	containers, err := listContainers(ctx, cli, dockerpkg.LabelFilter(dockerpkg.LabelProject, "true"))
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	byName := make(map[string][]types.Container)
	for _, c := range containers {
		name := c.Labels[dockerpkg.LabelInstanceName]
		byName[name] = append(byName[name], c)
	}

	infos := make([]InstanceInfo, 0, len(byName))
	for name, group := range byName {
		info := InstanceInfo{
			Name:   name,
			Status: DetermineStatus(group),
			Uptime: "-",
		}
		if port, err := redisPort(group); err == nil {
			info.RedisPort = port
			info.RedisURL = GetRedisURL(port)
		}
		if info.Status == StatusRunning {
			info.Uptime = FormatDuration(now.Sub(time.Unix(group[0].Created, 0)))
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}

// InferInstance picks the instance to talk to when none was named: the only
// running one.
func InferInstance(ctx context.Context, cli ContainerLister) (string, error) {
	infos, err := ListInstances(ctx, cli, time.Now())
	if err != nil {
		return "", err
	}

	var running []string
	for _, info := range infos {
		if info.Status == StatusRunning {
			running = append(running, info.Name)
		}
	}

	switch len(running) {
	case 0:
		return "", ErrNoInstances
	case 1:
		return running[0], nil
	default:
		return "", fmt.Errorf("%w: %v, use --instance to specify which one", ErrMultipleInstances, running)
	}
}

// GetInstanceRedisPort retrieves the Redis port for the given instance from Docker labels.
func GetInstanceRedisPort(ctx context.Context, cli ContainerLister, instanceName string) (int, error) {
	containers, err := listContainers(ctx, cli,
		dockerpkg.LabelFilter(dockerpkg.LabelInstanceName, instanceName),
		dockerpkg.LabelFilter(dockerpkg.LabelComponent, dockerpkg.ComponentRedis),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to list containers: %w", err)
	}

	if len(containers) == 0 {
		return 0, fmt.Errorf("Redis container not found for instance '%s'", instanceName)
	}

	port, err := redisPort(containers)
	if err != nil {
		return 0, fmt.Errorf("%w for instance '%s'", err, instanceName)
	}
	return port, nil
}

// VerifyInstanceRunning checks that the instance's Redis container exists and is running.
func VerifyInstanceRunning(ctx context.Context, cli ContainerLister, instanceName string) error {
	containers, err := listContainers(ctx, cli, dockerpkg.LabelFilter(dockerpkg.LabelInstanceName, instanceName))
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	if len(containers) == 0 {
		return fmt.Errorf("instance '%s' not found", instanceName)
	}

	for _, c := range containers {
		if c.Labels[dockerpkg.LabelComponent] != dockerpkg.ComponentRedis {
			continue
		}
		if c.State != "running" {
			return fmt.Errorf("instance '%s' is not running (component '%s' is %s)", instanceName, dockerpkg.ComponentRedis, c.State)
		}
		return nil
	}

	return fmt.Errorf("instance '%s' is missing essential component '%s'", instanceName, dockerpkg.ComponentRedis)
}

// ResolveRedisURL finds the Redis URL of a running instance. An empty name
// infers the instance.
func ResolveRedisURL(ctx context.Context, cli ContainerLister, instanceName string) (string, string, error) {
	if instanceName == "" {
		name, err := InferInstance(ctx, cli)
		if err != nil {
			return "", "", err
		}
		instanceName = name
	}

	if err := VerifyInstanceRunning(ctx, cli, instanceName); err != nil {
		return "", "", err
	}

	port, err := GetInstanceRedisPort(ctx, cli, instanceName)
	if err != nil {
		return "", "", err
	}
	return instanceName, GetRedisURL(port), nil
}

func redisPort(containers []types.Container) (int, error) {
	for _, c := range containers {
		if c.Labels[dockerpkg.LabelComponent] != dockerpkg.ComponentRedis {
			continue
		}
		portStr, ok := c.Labels[dockerpkg.LabelRedisPort]
		if !ok {
			return 0, fmt.Errorf("Redis port label missing")
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return 0, fmt.Errorf("invalid Redis port '%s': %w", portStr, err)
		}
		return port, nil
	}
	return 0, fmt.Errorf("Redis container not found")
}

// FormatDuration renders an uptime as "3h 4m", "4m 5s" or "5s".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	hours := d / time.Hour
	d -= hours * time.Hour

	minutes := d / time.Minute
	d -= minutes * time.Minute

	seconds := d / time.Second

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
