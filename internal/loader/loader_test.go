package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedRemote blocks GetBoard for a board until its gate is closed
type gatedRemote struct {
	mu      sync.Mutex
	gates   map[string]chan struct{}
	entered chan string
	aggs    map[string]*board.Aggregate
	err     error
}

func newGatedRemote() *gatedRemote {
	return &gatedRemote{
		gates:   map[string]chan struct{}{},
		entered: make(chan string, 10),
		aggs:    map[string]*board.Aggregate{},
	}
}

func (g *gatedRemote) GetBoard(ctx context.Context, boardID string) (*board.Aggregate, error) {
	g.mu.Lock()
	gate := g.gates[boardID]
	agg, err := g.aggs[boardID], g.err
	g.mu.Unlock()

	g.entered <- boardID
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func aggregate(id string) *board.Aggregate {
	return &board.Aggregate{Board: board.Board{ID: id, Title: id, CreatedBy: "creator"}}
}

func TestLoadBuildsSnapshot(t *testing.T) {
	due := "2025-10-29"
	remote := newGatedRemote()
	remote.aggs["b1"] = &board.Aggregate{
		Board: board.Board{ID: "b1", CreatedBy: "creator"},
		Lists: []board.List{
			{ID: "L2", Position: 2000, Cards: []board.Card{
				{ID: "c3", Position: 2000},
				{ID: "c4", Position: 1000, Archived: true},
				{ID: "c5", Position: 1000, DueDate: &due},
			}},
			{ID: "L1", Position: 1000},
		},
		Members: []board.Member{{UserID: "u1", Role: board.RoleEditor}},
		Activities: []board.Activity{
			{ID: "a3"}, {ID: "a2"}, {ID: "a1"},
		},
	}

	l := New(remote, "u1", WithActivityLimit(2))
	s, err := l.Load(context.Background(), "b1")
	require.NoError(t, err)

	require.Len(t, s.Lists, 2)
	assert.Equal(t, "L1", s.Lists[0].ID)
	assert.NotNil(t, s.Lists[0].Cards)
	require.Len(t, s.Lists[1].Cards, 2)
	assert.Equal(t, "c5", s.Lists[1].Cards[0].ID)
	assert.Equal(t, "c3", s.Lists[1].Cards[1].ID)
	assert.NotNil(t, s.Lists[1].Cards[0].Comments)

	require.Len(t, s.Activities, 2)
	assert.Equal(t, "a3", s.Activities[0].ID)
	assert.Equal(t, board.RoleEditor, s.Role)
}

func TestRoleOf(t *testing.T) {
	agg := &board.Aggregate{
		Board:   board.Board{CreatedBy: "creator"},
		Members: []board.Member{{UserID: "creator", Role: board.RoleEditor}, {UserID: "v", Role: board.RoleViewer}},
	}
	assert.Equal(t, board.RoleEditor, RoleOf(agg, "creator"), "membership wins over authorship")
	assert.Equal(t, board.RoleViewer, RoleOf(agg, "v"))
	assert.Equal(t, board.RoleViewer, RoleOf(agg, "stranger"))

	agg.Members = nil
	assert.Equal(t, board.RoleOwner, RoleOf(agg, "creator"))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status Status
	}{
		{"unauthenticated", board.ErrUnauthenticated, StatusUnauthenticated},
		{"access denied", board.ErrAccessDenied, StatusAccessDenied},
		{"not found", board.ErrNotFound, StatusNotFound},
		{"redis nil", redis.Nil, StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := newGatedRemote()
			remote.err = tt.err

			_, err := New(remote, "u1").Load(context.Background(), "b1")
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.status, loadErr.Status)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("other failures are wrapped", func(t *testing.T) {
		remote := newGatedRemote()
		remote.err = errors.New("connection refused")

		_, err := New(remote, "u1").Load(context.Background(), "b1")
		var loadErr *LoadError
		assert.False(t, errors.As(err, &loadErr))
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestNewLoadSupersedesInFlight(t *testing.T) {
	remote := newGatedRemote()
	remote.gates["slow"] = make(chan struct{})
	remote.aggs["slow"] = aggregate("slow")
	remote.aggs["fast"] = aggregate("fast")
	l := New(remote, "u1")

	slowErr := make(chan error)
	go func() {
		_, err := l.Load(context.Background(), "slow")
		slowErr <- err
	}()
	require.Equal(t, "slow", <-remote.entered)

	s, err := l.Load(context.Background(), "fast")
	require.NoError(t, err)
	assert.Equal(t, "fast", s.Board.ID)

	select {
	case err := <-slowErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("superseded load did not return")
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	remote := newGatedRemote()
	remote.gates["b1"] = make(chan struct{})
	remote.aggs["b1"] = aggregate("b1")
	l := New(remote, "u1")

	done := make(chan error)
	go func() {
		_, err := l.Load(context.Background(), "b1")
		done <- err
	}()
	<-remote.entered
	l.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("load did not stop after Close")
	}
}

func TestLoadFromStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := board.NewClient(&redis.Options{Addr: mr.Addr()}, "test-ns")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	ctx := context.Background()

	u, err := client.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	alice := client.WithActor(u.ID)

	b, err := alice.CreateBoard(ctx, "Roadmap", board.VisibilityPrivate, "")
	require.NoError(t, err)
	todo, err := alice.CreateList(ctx, b.ID, "To do")
	require.NoError(t, err)
	_, err = alice.CreateCard(ctx, b.ID, todo.ID, "Keep")
	require.NoError(t, err)
	gone, err := alice.CreateCard(ctx, b.ID, todo.ID, "Archive me")
	require.NoError(t, err)
	archived := true
	_, err = alice.UpdateCard(ctx, b.ID, gone.ID, board.CardPatch{Archived: &archived})
	require.NoError(t, err)

	s, err := New(alice, u.ID).Load(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, s.Lists, 1)
	require.Len(t, s.Lists[0].Cards, 1)
	assert.Equal(t, "Keep", s.Lists[0].Cards[0].Title)
	assert.Equal(t, board.RoleOwner, s.Role)
	assert.NotEmpty(t, s.Activities)

	t.Run("stranger is denied", func(t *testing.T) {
		other, err := client.CreateUser(ctx, "bob@example.com", "Bob")
		require.NoError(t, err)
		_, err = New(client.WithActor(other.ID), other.ID).Load(ctx, b.ID)
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, StatusAccessDenied, loadErr.Status)
	})

	t.Run("missing board", func(t *testing.T) {
		_, err := New(alice, u.ID).Load(ctx, "00000000-0000-0000-0000-000000000000")
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		assert.Equal(t, StatusNotFound, loadErr.Status)
	})
}
