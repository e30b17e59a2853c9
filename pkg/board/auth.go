package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// loadBoard reads the board hash.
func (c *Client) loadBoard(ctx context.Context, boardID string) (*Board, error) {
	hashData, err := c.readHash(ctx, BoardKey(c.namespace, boardID))
	if err != nil {
		return nil, err
	}

	b, err := HashToBoard(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize board: %w", err)
	}
	return b, nil
}

// EffectiveRole derives the actor's role on b: the explicit membership role
// if present, else owner for the creator, else viewer. The second return
// value reports whether the role came from membership or authorship.
func (c *Client) EffectiveRole(ctx context.Context, b *Board) (Role, bool, error) {
	role, err := c.rdb.HGet(ctx, BoardMembersKey(c.namespace, b.ID), c.actor).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", false, fmt.Errorf("failed to read membership: %w", err)
	}

	switch {
	case role != "":
		return Role(role), true, nil
	case b.CreatedBy == c.actor:
		return RoleOwner, true, nil
	default:
		return RoleViewer, false, nil
	}
}

// authorizeRead loads the board and checks that the actor may read it.
func (c *Client) authorizeRead(ctx context.Context, boardID string) (*Board, Role, error) {
	if c.actor == "" {
		return nil, "", ErrUnauthenticated
	}

	b, err := c.loadBoard(ctx, boardID)
	if err != nil {
		return nil, "", err
	}

	role, related, err := c.EffectiveRole(ctx, b)
	if err != nil {
		return nil, "", err
	}
	if related {
		return b, role, nil
	}

	if b.Visibility == VisibilityWorkspace {
		known, err := c.rdb.Exists(ctx, UserKey(c.namespace, c.actor)).Result()
		if err != nil {
			return nil, "", fmt.Errorf("failed to check user existence: %w", err)
		}
		if known > 0 {
			return b, RoleViewer, nil
		}
	}

	return nil, "", ErrAccessDenied
}

// authorizeWrite loads the board and checks that the actor may mutate it.
func (c *Client) authorizeWrite(ctx context.Context, boardID string) (*Board, error) {
	b, role, err := c.authorizeRead(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !role.CanWrite() {
		return nil, ErrForbidden
	}
	return b, nil
}

// authorizeOwner loads the board and checks that the actor owns it.
func (c *Client) authorizeOwner(ctx context.Context, boardID string) (*Board, error) {
	b, role, err := c.authorizeRead(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if role != RoleOwner {
		return nil, ErrForbidden
	}
	return b, nil
}
