package docker

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys used for pinboard resources
const (
	LabelProject       = "pinboard.project"
	LabelInstanceName  = "pinboard.instance.name"
	LabelInstanceRunID = "pinboard.instance.run_id"
	LabelComponent     = "pinboard.component"
	LabelRedisPort     = "pinboard.redis.port"
)

// ComponentRedis is the component label value of an instance's store container.
const ComponentRedis = "redis"

// RedisImage is the image every instance's store runs.
const RedisImage = "redis:7-alpine"

// BuildLabels creates the standard label set for all pinboard resources.
// component is optional and omitted when empty.
func BuildLabels(instanceName, runID, component string) map[string]string {
	labels := map[string]string{
		LabelProject:       "true",
		LabelInstanceName:  instanceName,
		LabelInstanceRunID: runID,
	}

	if component != "" {
		labels[LabelComponent] = component
	}

	return labels
}

// LabelFilter formats a key=value pair for a Docker label filter.
func LabelFilter(key, value string) string {
	return fmt.Sprintf("%s=%s", key, value)
}

// GenerateRunID creates a new UUID for an instance run.
// Each invocation of `pinboard up` gets a unique run ID.
func GenerateRunID() string {
	return uuid.New().String()
}

// NetworkName returns the Docker network name for an instance
func NetworkName(instanceName string) string {
	return fmt.Sprintf("pinboard-network-%s", instanceName)
}

// RedisContainerName returns the Redis container name for an instance
func RedisContainerName(instanceName string) string {
	return fmt.Sprintf("pinboard-redis-%s", instanceName)
}

// RedisVolumeName returns the volume holding an instance's Redis data
func RedisVolumeName(instanceName string) string {
	return fmt.Sprintf("pinboard-data-%s", instanceName)
}
