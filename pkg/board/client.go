package board

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultActivityRetention is how many activity entries a board keeps.
const DefaultActivityRetention = 200

// Client provides namespace-scoped Redis operations for boards.
// All keys and channels are automatically namespaced.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb       *redis.Client
	namespace string
	actor     string
	retention int64
	now       func() time.Time
}

// NewClient creates a new store client for the specified namespace.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - namespace: key namespace (must not be empty)
//
// The returned client has no actor; call WithActor before any board call.
func NewClient(redisOpts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		namespace: namespace,
		retention: DefaultActivityRetention,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}, nil
}

// WithActor returns a client acting on behalf of userID. The returned client
// shares the connection pool with c, so closing either closes both.
func (c *Client) WithActor(userID string) *Client {
	clone := *c
	clone.actor = userID
	return &clone
}

// Actor returns the user ID the client acts for, or "" if none.
func (c *Client) Actor() string {
	return c.actor
}

// Namespace returns the key namespace of the client.
func (c *Client) Namespace() string {
	return c.namespace
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// recordActivity queues an activity entry on pipe and trims the feed.
func (c *Client) recordActivity(ctx context.Context, pipe redis.Pipeliner, boardID, activityType string, data map[string]string) error {
	activity := Activity{
		ID:        newID(),
		BoardID:   boardID,
		ActorID:   c.actor,
		Type:      activityType,
		Data:      data,
		CreatedAt: c.now(),
	}

	activityJSON, err := json.Marshal(activity)
	if err != nil {
		return fmt.Errorf("failed to marshal activity: %w", err)
	}

	key := BoardActivityKey(c.namespace, boardID)
	pipe.LPush(ctx, key, activityJSON)
	pipe.LTrim(ctx, key, 0, c.retention-1)
	return nil
}

// readHash fetches a hash and reports ErrNotFound when it is empty.
func (c *Client) readHash(ctx context.Context, key string) (map[string]string, error) {
	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from Redis: %w", key, err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, ErrNotFound
	}
	return hashData, nil
}

// lastScore returns the highest score of a sorted set, or 0 when it is empty.
func (c *Client) lastScore(ctx context.Context, key string) (int, error) {
	last, err := c.rdb.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read last position: %w", err)
	}
	if len(last) == 0 {
		return 0, nil
	}
	return int(last[0].Score), nil
}
