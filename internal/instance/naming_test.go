package instance

import (
	"context"
	"strings"
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expectErr bool
	}{
		{"simple", "prod", false},
		{"with hyphen", "my-board-store", false},
		{"single character", "a", false},
		{"digits", "default-12", false},
		{"empty", "", true},
		{"uppercase", "Prod", true},
		{"leading hyphen", "-prod", true},
		{"trailing hyphen", "prod-", true},
		{"underscore", "my_store", true},
		{"dot", "my.store", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), true},
		{"max length", strings.Repeat("a", MaxNameLength), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateDefaultName(t *testing.T) {
	ctx := context.Background()

	name, err := GenerateDefaultName(ctx, &fakeDocker{})
	require.NoError(t, err)
	assert.Equal(t, "default-1", name)

	cli := &fakeDocker{containers: []types.Container{
		redisContainer("default-1", 6379, "running", 0),
		redisContainer("default-7", 6380, "exited", 0),
		redisContainer("default-x", 6381, "running", 0),
		redisContainer("prod", 6382, "running", 0),
	}}
	name, err = GenerateDefaultName(ctx, cli)
	require.NoError(t, err)
	assert.Equal(t, "default-8", name)

	_, err = GenerateDefaultName(ctx, &fakeDocker{err: errDocker})
	assert.ErrorIs(t, err, errDocker)
}

func TestCheckNameCollision(t *testing.T) {
	ctx := context.Background()
	cli := &fakeDocker{containers: []types.Container{redisContainer("prod", 6379, "exited", 0)}}

	taken, err := CheckNameCollision(ctx, cli, "prod")
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = CheckNameCollision(ctx, cli, "dev")
	require.NoError(t, err)
	assert.False(t, taken)

	require.Len(t, cli.calls, 2)
	assert.True(t, cli.calls[0].All, "stopped containers count as collisions")
}
