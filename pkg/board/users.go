package board

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// CreateUser registers a user. Accounts are provisioned out of band, so no
// actor is required. Emails are unique per namespace.
func (c *Client) CreateUser(ctx context.Context, email, displayName string) (*User, error) {
	u := &User{
		ID:          newID(),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(displayName),
		CreatedAt:   c.now(),
	}
	if err := Validate(u); err != nil {
		return nil, err
	}

	claimed, err := c.rdb.HSetNX(ctx, UserEmailIndexKey(c.namespace), u.Email, u.ID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to reserve email: %w", err)
	}
	if !claimed {
		return nil, FieldErrors{"email": "is already registered"}
	}

	if err := c.rdb.HSet(ctx, UserKey(c.namespace, u.ID), UserToHash(u)).Err(); err != nil {
		return nil, fmt.Errorf("failed to write user to Redis: %w", err)
	}
	return u, nil
}

// GetUser retrieves a user by ID.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	hashData, err := c.readHash(ctx, UserKey(c.namespace, userID))
	if err != nil {
		return nil, err
	}
	u, err := HashToUser(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize user: %w", err)
	}
	return u, nil
}

// FindUserByEmail retrieves a user by email address.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	id, err := c.rdb.HGet(ctx, UserEmailIndexKey(c.namespace), strings.ToLower(strings.TrimSpace(email))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	return c.GetUser(ctx, id)
}
