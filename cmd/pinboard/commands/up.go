package commands

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	dockerpkg "github.com/dyluth/pinboard/internal/docker"
	"github.com/dyluth/pinboard/internal/instance"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/spf13/cobra"
)

var (
	upInstanceName string
	upImage        string
)

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start a local store instance",
	Long: `Start a local pinboard store: a Redis container on a private Docker network.

Creates and starts:
  • Isolated Docker network
  • Redis container with a persistent data volume

The instance name is auto-generated (default-N) unless specified with --name.
Commands find the instance automatically when pinboard.yml has no redis_url.`,
	Args: cobra.NoArgs,
	RunE: runUp,
}

func init() {
	upCmd.Flags().StringVar(&upInstanceName, "name", "", "Instance name (auto-generated if omitted)")
	upCmd.Flags().StringVar(&upImage, "image", dockerpkg.RedisImage, "Redis image to run")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	name := upInstanceName
	if name == "" {
		name, err = instance.GenerateDefaultName(ctx, cli)
		if err != nil {
			return fmt.Errorf("failed to generate instance name: %w", err)
		}
	}

	if err := instance.ValidateName(name); err != nil {
		return err
	}

	collision, err := instance.CheckNameCollision(ctx, cli, name)
	if err != nil {
		return err
	}
	if collision {
		return printer.Error(
			fmt.Sprintf("instance '%s' already exists", name),
			"Found existing containers with this instance name.",
			[]string{
				fmt.Sprintf("Stop the existing instance: pinboard down --name %s", name),
				"Choose a different name: pinboard up --name other-name",
			},
		)
	}

	runID := dockerpkg.GenerateRunID()
	port, err := createInstance(ctx, cli, name, runID)
	if err != nil {
		printer.Warning("Resource creation failed. Rolling back...\n")
		if rollbackErr := removeInstance(ctx, cli, name, false); rollbackErr != nil {
			printer.Warning("rollback encountered errors: %v\n", rollbackErr)
		}
		return fmt.Errorf("failed to create instance: %w", err)
	}

	printUpSuccess(name, port)
	return nil
}

// createInstance allocates a port and starts the network and Redis container.
func createInstance(ctx context.Context, cli *client.Client, name, runID string) (int, error) {
	port, err := instance.FindNextAvailablePort(ctx, cli)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate Redis port: %w", err)
	}
	printer.Success("Allocated Redis port: %d\n", port)

	networkName := dockerpkg.NetworkName(name)
	_, err = cli.NetworkCreate(ctx, networkName, types.NetworkCreate{
		Driver: "bridge",
		Labels: dockerpkg.BuildLabels(name, runID, ""),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create network '%s': %w", networkName, err)
	}
	printer.Success("Created network: %s\n", networkName)

	redisName := dockerpkg.RedisContainerName(name)
	labels := dockerpkg.BuildLabels(name, runID, dockerpkg.ComponentRedis)
	labels[dockerpkg.LabelRedisPort] = fmt.Sprintf("%d", port)

	resp, err := cli.ContainerCreate(ctx, &container.Config{
		Image:  upImage,
		Labels: labels,
		Cmd:    []string{"redis-server", "--appendonly", "yes"},
		ExposedPorts: nat.PortSet{
			"6379/tcp": struct{}{},
		},
	}, &container.HostConfig{
		NetworkMode: container.NetworkMode(networkName),
		PortBindings: nat.PortMap{
			"6379/tcp": []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: fmt.Sprintf("%d", port),
				},
			},
		},
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeVolume,
				Source: dockerpkg.RedisVolumeName(name),
				Target: "/data",
			},
		},
		RestartPolicy: container.RestartPolicy{Name: "unless-stopped"},
	}, nil, nil, redisName)
	if err != nil {
		return 0, fmt.Errorf("failed to create Redis container: %w", err)
	}

	if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return 0, fmt.Errorf("failed to start Redis container: %w", err)
	}
	printer.Success("Started Redis container: %s (port %d)\n", redisName, port)

	return port, nil
}

// removeInstance stops and removes every container and network labelled
// with the instance name. With purge the data volume goes too.
func removeInstance(ctx context.Context, cli *client.Client, name string, purge bool) error {
	byInstance := filters.NewArgs(filters.Arg("label", dockerpkg.LabelFilter(dockerpkg.LabelInstanceName, name)))

	containers, err := cli.ContainerList(ctx, container.ListOptions{All: true, Filters: byInstance})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	timeout := 10
	for _, c := range containers {
		containerName := containerLabel(c)
		printer.Step("Stopping %s...\n", containerName)
		if err := cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout}); err != nil {
			// Container might already be stopped
			printer.Warning("failed to stop %s: %v\n", containerName, err)
		}

		printer.Step("Removing %s...\n", containerName)
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("failed to remove %s: %w", containerName, err)
		}
	}

	networks, err := cli.NetworkList(ctx, types.NetworkListOptions{Filters: byInstance})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}
	for _, n := range networks {
		printer.Step("Removing network %s...\n", n.Name)
		if err := cli.NetworkRemove(ctx, n.ID); err != nil {
			return fmt.Errorf("failed to remove network %s: %w", n.Name, err)
		}
	}

	if purge {
		volume := dockerpkg.RedisVolumeName(name)
		printer.Step("Removing volume %s...\n", volume)
		if err := cli.VolumeRemove(ctx, volume, true); err != nil {
			return fmt.Errorf("failed to remove volume %s: %w", volume, err)
		}
	}

	return nil
}

func containerLabel(c types.Container) string {
	if len(c.Names) > 0 {
		return c.Names[0]
	}
	return c.ID
}

func printUpSuccess(name string, port int) {
	printer.Success("\nInstance '%s' started successfully\n\n", name)
	printer.Info("Containers:\n")
	printer.Info("  • %s (running)\n", dockerpkg.RedisContainerName(name))
	printer.Info("\nNetwork:\n")
	printer.Info("  • %s\n", dockerpkg.NetworkName(name))
	printer.Info("\nStore: %s\n", instance.GetRedisURL(port))
	printer.Info("\nNext steps:\n")
	printer.Info("  1. Run 'pinboard user add <email> <name> --use' to create your user\n")
	printer.Info("  2. Run 'pinboard ls' to view all instances\n")
	printer.Info("  3. Run 'pinboard down --name %s' when finished\n", name)
}
