package board

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toStringHash mimics what HGetAll returns for a hash written with HSet
func toStringHash(in map[string]interface{}) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = fmt.Sprint(v)
	}
	return out
}

func TestCardHashRoundTrip(t *testing.T) {
	now := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	due := "2025-10-29"

	t.Run("keeps due date and archived flag", func(t *testing.T) {
		card := &Card{
			ID: "c1", ListID: "l1", BoardID: "b1", Title: "Ship", Description: "soon",
			DueDate: &due, Position: 3000, Archived: true, CreatedBy: "u1",
			CreatedAt: now, UpdatedAt: now,
		}

		got, err := HashToCard(toStringHash(CardToHash(card)))
		require.NoError(t, err)
		require.NotNil(t, got.DueDate)
		assert.Equal(t, due, *got.DueDate)
		assert.True(t, got.Archived)
		assert.Equal(t, 3000, got.Position)
		assert.True(t, now.Equal(got.CreatedAt))
		assert.NotNil(t, got.Labels)
	})

	t.Run("absent due date stays nil", func(t *testing.T) {
		card := &Card{ID: "c1", Position: 1000, CreatedAt: now, UpdatedAt: now}
		got, err := HashToCard(toStringHash(CardToHash(card)))
		require.NoError(t, err)
		assert.Nil(t, got.DueDate)
		assert.False(t, got.Archived)
	})
}

func TestHashToListRejectsBadPosition(t *testing.T) {
	_, err := HashToList(map[string]string{"id": "l1", "position": "first"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid position field")
}
