package position

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForIndex(t *testing.T) {
	assert.Equal(t, 1000, ForIndex(0))
	assert.Equal(t, 3000, ForIndex(2))
	assert.Equal(t, 3000, ForAppend(2))
}

func TestForInsert(t *testing.T) {
	tests := []struct {
		name     string
		siblings []int
		index    int
		want     int
	}{
		{"empty list starts at 1000", nil, 0, 1000},
		{"negative index prepends", []int{1000, 2000}, -5, 1000},
		{"middle", []int{1000, 2000}, 1, 2000},
		{"past the end appends", []int{1000, 2000}, 9, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForInsert(tt.siblings, tt.index))
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, Clamp(-1, 3))
	assert.Equal(t, 0, Clamp(0, 3))
	assert.Equal(t, 2, Clamp(2, 3))
	assert.Equal(t, 3, Clamp(3, 3))
	assert.Equal(t, 3, Clamp(10, 3))
}

func TestMove(t *testing.T) {
	t.Run("last to first", func(t *testing.T) {
		assert.Equal(t, []string{"L3", "L1", "L2"}, Move([]string{"L1", "L2", "L3"}, 2, 0))
	})

	t.Run("first to last", func(t *testing.T) {
		assert.Equal(t, []string{"b", "c", "a"}, Move([]string{"a", "b", "c"}, 0, 2))
	})

	t.Run("does not modify input", func(t *testing.T) {
		in := []int{1, 2, 3}
		Move(in, 0, 2)
		assert.Equal(t, []int{1, 2, 3}, in)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Move([]int{}, 0, 1))
	})
}

func TestInsert(t *testing.T) {
	assert.Equal(t, []string{"x"}, Insert(nil, 0, "x"))
	assert.Equal(t, []string{"x", "a"}, Insert([]string{"a"}, -1, "x"))
	assert.Equal(t, []string{"a", "x"}, Insert([]string{"a"}, 7, "x"))
	assert.Equal(t, []string{"a", "x", "b"}, Insert([]string{"a", "b"}, 1, "x"))
}

// Any sequence of moves followed by a renumber yields (i+1)*1000.
func TestRenumberAfterRandomMoves(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	items := []int{0, 1, 2, 3, 4, 5, 6, 7}

	for i := 0; i < 200; i++ {
		items = Move(items, rng.Intn(len(items)), rng.Intn(len(items)))
		positions := Renumber(len(items))

		assert.True(t, IsDense(positions))
		for j := 1; j < len(positions); j++ {
			assert.Greater(t, positions[j], positions[j-1])
		}
	}
	assert.ElementsMatch(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, items)
}
