package board

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestClient creates a test client connected to a miniredis instance
func setupTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr := miniredis.NewMiniRedis()
	err := mr.Start()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := NewClient(&redis.Options{Addr: mr.Addr()}, "test-ns")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, mr
}

// newActor registers a user and returns a client acting for them
func newActor(t *testing.T, client *Client, email, name string) *Client {
	u, err := client.CreateUser(context.Background(), email, name)
	require.NoError(t, err)
	return client.WithActor(u.ID)
}

// newBoard creates a private board owned by the actor
func newBoard(t *testing.T, actor *Client) *Board {
	b, err := actor.CreateBoard(context.Background(), "Roadmap", VisibilityPrivate, "#0079bf")
	require.NoError(t, err)
	return b
}

func TestNewClient(t *testing.T) {
	t.Run("creates client successfully", func(t *testing.T) {
		client, _ := setupTestClient(t)
		assert.NotNil(t, client)
		assert.Equal(t, "test-ns", client.Namespace())
		assert.Empty(t, client.Actor())
	})

	t.Run("rejects empty namespace", func(t *testing.T) {
		_, err := NewClient(&redis.Options{Addr: "localhost:6379"}, "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "namespace cannot be empty")
	})

	t.Run("WithActor does not mutate the receiver", func(t *testing.T) {
		client, _ := setupTestClient(t)
		scoped := client.WithActor("someone")
		assert.Equal(t, "someone", scoped.Actor())
		assert.Empty(t, client.Actor())
	})
}

func TestPing(t *testing.T) {
	client, _ := setupTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	u, err := client.CreateUser(ctx, " Alice@Example.com ", "Alice")
	require.NoError(t, err)
	assert.True(t, IsPermanentID(u.ID))
	assert.Equal(t, "alice@example.com", u.Email)

	t.Run("finds by email case-insensitively", func(t *testing.T) {
		found, err := client.FindUserByEmail(ctx, "ALICE@example.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, found.ID)
		assert.Equal(t, "Alice", found.DisplayName)
	})

	t.Run("rejects duplicate email", func(t *testing.T) {
		_, err := client.CreateUser(ctx, "alice@example.com", "Other")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := client.CreateUser(ctx, "not-an-email", "Bob")
		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		assert.Contains(t, fields, "email")
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		_, err := client.FindUserByEmail(ctx, "nobody@example.com")
		assert.True(t, IsNotFound(err))
	})
}

func TestBoardAccess(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	alice := newActor(t, client, "alice@example.com", "Alice")
	bob := newActor(t, client, "bob@example.com", "Bob")
	b := newBoard(t, alice)

	t.Run("creator reads the aggregate", func(t *testing.T) {
		agg, err := alice.GetBoard(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Roadmap", agg.Board.Title)
		require.Len(t, agg.Members, 1)
		assert.Equal(t, RoleOwner, agg.Members[0].Role)
		assert.Equal(t, "Alice", agg.Members[0].DisplayName)
		require.NotEmpty(t, agg.Activities)
		assert.Equal(t, ActivityBoardCreated, agg.Activities[0].Type)
	})

	t.Run("no actor is unauthenticated", func(t *testing.T) {
		_, err := client.GetBoard(ctx, b.ID)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing board is not found", func(t *testing.T) {
		_, err := alice.GetBoard(ctx, "8c9a43b4-2a55-4b7b-9a5b-4b2f3c1f0d11")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stranger is denied on private board", func(t *testing.T) {
		_, err := bob.GetBoard(ctx, b.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("workspace visibility grants read but not write", func(t *testing.T) {
		vis := VisibilityWorkspace
		_, err := alice.UpdateBoard(ctx, b.ID, BoardPatch{Visibility: &vis})
		require.NoError(t, err)

		_, err = bob.GetBoard(ctx, b.ID)
		require.NoError(t, err)

		_, err = bob.CreateList(ctx, b.ID, "Nope")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("invited editor can write", func(t *testing.T) {
		m, err := alice.InviteMember(ctx, b.ID, "bob@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, RoleEditor, m.Role)

		_, err = bob.CreateList(ctx, b.ID, "Bob's list")
		assert.NoError(t, err)
	})

	t.Run("only the owner invites", func(t *testing.T) {
		_, err := bob.InviteMember(ctx, b.ID, "alice@example.com", RoleViewer)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("ListBoards only returns readable boards", func(t *testing.T) {
		carol := newActor(t, client, "carol@example.com", "Carol")
		_, err := carol.CreateBoard(ctx, "Private", VisibilityPrivate, "")
		require.NoError(t, err)

		boards, err := alice.ListBoards(ctx)
		require.NoError(t, err)
		require.Len(t, boards, 1)
		assert.Equal(t, b.ID, boards[0].ID)
	})
}

func TestUpdateBoard(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	alice := newActor(t, client, "alice@example.com", "Alice")
	b := newBoard(t, alice)

	t.Run("applies partial update", func(t *testing.T) {
		title := "  Q3 Roadmap "
		updated, err := alice.UpdateBoard(ctx, b.ID, BoardPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Q3 Roadmap", updated.Title)
		assert.Equal(t, "#0079bf", updated.BackgroundColor)
	})

	t.Run("rejects blank title", func(t *testing.T) {
		blank := "   "
		_, err := alice.UpdateBoard(ctx, b.ID, BoardPatch{Title: &blank})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("rejects bad colour", func(t *testing.T) {
		color := "blue"
		_, err := alice.UpdateBoard(ctx, b.ID, BoardPatch{BackgroundColor: &color})
		assert.ErrorIs(t, err, ErrInvalid)
	})
}

func TestListsAndCards(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	alice := newActor(t, client, "alice@example.com", "Alice")
	b := newBoard(t, alice)

	todo, err := alice.CreateList(ctx, b.ID, " To do ")
	require.NoError(t, err)
	done, err := alice.CreateList(ctx, b.ID, "Done")
	require.NoError(t, err)

	assert.Equal(t, "To do", todo.Title)
	assert.Equal(t, 1000, todo.Position)
	assert.Equal(t, 2000, done.Position)

	c1, err := alice.CreateCard(ctx, b.ID, todo.ID, "Write tests")
	require.NoError(t, err)
	c2, err := alice.CreateCard(ctx, b.ID, todo.ID, "Ship it")
	require.NoError(t, err)
	assert.Equal(t, 1000, c1.Position)
	assert.Equal(t, 2000, c2.Position)

	t.Run("rejects empty titles", func(t *testing.T) {
		_, err := alice.CreateList(ctx, b.ID, "  ")
		assert.ErrorIs(t, err, ErrInvalid)
		_, err = alice.CreateCard(ctx, b.ID, todo.ID, "")
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("card on unknown list is not found", func(t *testing.T) {
		_, err := alice.CreateCard(ctx, b.ID, "3d4e1f20-6c2b-4d8e-9f3a-1b2c3d4e5f60", "x")
		assert.True(t, IsNotFound(err))
	})

	t.Run("aggregate orders lists and cards by position", func(t *testing.T) {
		agg, err := alice.GetBoard(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, agg.Lists, 2)
		assert.Equal(t, todo.ID, agg.Lists[0].ID)
		require.Len(t, agg.Lists[0].Cards, 2)
		assert.Equal(t, c1.ID, agg.Lists[0].Cards[0].ID)
		assert.Empty(t, agg.Lists[1].Cards)
	})

	t.Run("UpdateCard sets and clears due date", func(t *testing.T) {
		due := "2025-10-29"
		desc := "with miniredis"
		updated, err := alice.UpdateCard(ctx, b.ID, c1.ID, CardPatch{DueDate: &due, Description: &desc})
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, due, *updated.DueDate)
		assert.Equal(t, "Write tests", updated.Title)

		cleared, err := alice.UpdateCard(ctx, b.ID, c1.ID, CardPatch{ClearDueDate: true})
		require.NoError(t, err)
		assert.Nil(t, cleared.DueDate)
		assert.Equal(t, desc, cleared.Description)
	})

	t.Run("UpdateCard rejects malformed date", func(t *testing.T) {
		due := "29/10/2025"
		_, err := alice.UpdateCard(ctx, b.ID, c1.ID, CardPatch{DueDate: &due})
		assert.ErrorIs(t, err, ErrInvalid)
	})

	t.Run("SetCards moves a card between lists", func(t *testing.T) {
		err := alice.SetCards(ctx, b.ID, []CardPlacement{
			{ID: c2.ID, ListID: todo.ID, Position: 1000},
			{ID: c1.ID, ListID: done.ID, Position: 1000, Moved: true, PreviousListID: todo.ID},
		})
		require.NoError(t, err)

		agg, err := alice.GetBoard(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, agg.Lists[0].Cards, 1)
		assert.Equal(t, c2.ID, agg.Lists[0].Cards[0].ID)
		require.Len(t, agg.Lists[1].Cards, 1)
		assert.Equal(t, c1.ID, agg.Lists[1].Cards[0].ID)
		assert.Equal(t, done.ID, agg.Lists[1].Cards[0].ListID)

		assert.Equal(t, ActivityCardMoved, agg.Activities[0].Type)
		assert.Equal(t, todo.ID, agg.Activities[0].Data["from_list_id"])
		assert.Equal(t, done.ID, agg.Activities[0].Data["to_list_id"])
	})

	t.Run("SetCards rejects unknown cards", func(t *testing.T) {
		err := alice.SetCards(ctx, b.ID, []CardPlacement{{ID: "tmp-abc", ListID: todo.ID, Position: 1000}})
		assert.True(t, IsNotFound(err))
	})

	t.Run("SetListsOrder rewrites list order", func(t *testing.T) {
		err := alice.SetListsOrder(ctx, b.ID, []ListOrder{{ID: done.ID, Position: 1000}, {ID: todo.ID, Position: 2000}})
		require.NoError(t, err)

		agg, err := alice.GetBoard(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, done.ID, agg.Lists[0].ID)
		assert.Equal(t, 1000, agg.Lists[0].Position)
		assert.Equal(t, todo.ID, agg.Lists[1].ID)
	})

	t.Run("UpdateList renames", func(t *testing.T) {
		title := "Backlog"
		l, err := alice.UpdateList(ctx, b.ID, todo.ID, ListPatch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Backlog", l.Title)
		assert.Equal(t, 2000, l.Position)
	})

	t.Run("DeleteCard and DeleteList remove data", func(t *testing.T) {
		require.NoError(t, alice.DeleteCard(ctx, b.ID, c2.ID))
		require.NoError(t, alice.DeleteList(ctx, b.ID, done.ID))

		agg, err := alice.GetBoard(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, agg.Lists, 1)
		assert.Empty(t, agg.Lists[0].Cards)

		_, err = alice.GetCard(ctx, b.ID, c1.ID)
		assert.True(t, IsNotFound(err))
	})
}

func TestCardDetails(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()
	alice := newActor(t, client, "alice@example.com", "Alice")
	b := newBoard(t, alice)
	l, err := alice.CreateList(ctx, b.ID, "To do")
	require.NoError(t, err)
	card, err := alice.CreateCard(ctx, b.ID, l.ID, "Design")
	require.NoError(t, err)

	t.Run("comments append in order", func(t *testing.T) {
		_, err := alice.AddComment(ctx, b.ID, card.ID, "first")
		require.NoError(t, err)
		_, err = alice.AddComment(ctx, b.ID, card.ID, "second")
		require.NoError(t, err)

		comments, err := alice.Comments(ctx, b.ID, card.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "first", comments[0].Body)
		assert.Equal(t, "Alice", comments[0].Author)
	})

	t.Run("labels attach and detach", func(t *testing.T) {
		bug, err := alice.CreateLabel(ctx, b.ID, "bug", "#EB5A46")
		require.NoError(t, err)
		assert.Equal(t, "#eb5a46", bug.Color)

		require.NoError(t, alice.AddCardLabel(ctx, b.ID, card.ID, bug.ID))
		labels, err := alice.CardLabels(ctx, b.ID, card.ID)
		require.NoError(t, err)
		require.Len(t, labels, 1)
		assert.Equal(t, "bug", labels[0].Name)

		require.NoError(t, alice.RemoveCardLabel(ctx, b.ID, card.ID, bug.ID))
		labels, err = alice.CardLabels(ctx, b.ID, card.ID)
		require.NoError(t, err)
		assert.Empty(t, labels)
	})

	t.Run("unknown label is rejected", func(t *testing.T) {
		err := alice.AddCardLabel(ctx, b.ID, card.ID, "0b7c52a4-51f4-44e4-8c55-2b1e0f1a9c77")
		assert.True(t, IsNotFound(err))
	})

	t.Run("assignees must be members", func(t *testing.T) {
		dave, err := client.CreateUser(ctx, "dave@example.com", "Dave")
		require.NoError(t, err)

		err = alice.AddCardAssignee(ctx, b.ID, card.ID, dave.ID)
		assert.True(t, IsNotFound(err))

		_, err = alice.InviteMember(ctx, b.ID, "dave@example.com", RoleEditor)
		require.NoError(t, err)
		require.NoError(t, alice.AddCardAssignee(ctx, b.ID, card.ID, dave.ID))

		got, err := alice.GetCard(ctx, b.ID, card.ID)
		require.NoError(t, err)
		require.Len(t, got.Assignees, 1)
		assert.Equal(t, "Dave", got.Assignees[0].DisplayName)
		assert.Len(t, got.Comments, 2)
	})

	t.Run("creator cannot be removed", func(t *testing.T) {
		err := alice.RemoveMember(ctx, b.ID, alice.Actor())
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestDeleteBoardCascades(t *testing.T) {
	client, mr := setupTestClient(t)
	ctx := context.Background()
	alice := newActor(t, client, "alice@example.com", "Alice")
	bob := newActor(t, client, "bob@example.com", "Bob")
	b := newBoard(t, alice)

	l, err := alice.CreateList(ctx, b.ID, "To do")
	require.NoError(t, err)
	card, err := alice.CreateCard(ctx, b.ID, l.ID, "Design")
	require.NoError(t, err)
	_, err = alice.AddComment(ctx, b.ID, card.ID, "hello")
	require.NoError(t, err)
	label, err := alice.CreateLabel(ctx, b.ID, "bug", "#eb5a46")
	require.NoError(t, err)
	_, err = alice.InviteMember(ctx, b.ID, "bob@example.com", RoleEditor)
	require.NoError(t, err)

	t.Run("editor cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, bob.DeleteBoard(ctx, b.ID), ErrForbidden)
	})

	t.Run("creator deletes everything", func(t *testing.T) {
		require.NoError(t, alice.DeleteBoard(ctx, b.ID))

		for _, key := range []string{
			BoardKey("test-ns", b.ID),
			BoardListsKey("test-ns", b.ID),
			BoardMembersKey("test-ns", b.ID),
			BoardActivityKey("test-ns", b.ID),
			ListKey("test-ns", l.ID),
			CardKey("test-ns", card.ID),
			CardCommentsKey("test-ns", card.ID),
			LabelKey("test-ns", label.ID),
		} {
			assert.False(t, mr.Exists(key), key)
		}

		_, err := alice.GetBoard(ctx, b.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
