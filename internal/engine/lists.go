package engine

import (
	"context"
	"strings"

	"github.com/dyluth/pinboard/internal/identity"
	"github.com/dyluth/pinboard/internal/position"
	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/sirupsen/logrus"
)

// UpdateBoard changes board metadata. Unlike list and card mutations it is
// applied only after the store confirms, so there is nothing to roll back.
func (e *Engine) UpdateBoard(ctx context.Context, patch board.BoardPatch) (board.Board, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return board.Board{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	if patch.Title == nil && patch.Visibility == nil && patch.BackgroundColor == nil {
		return board.Board{}, &ValidationError{Field: "patch", Reason: "is empty"}
	}
	if err := board.Validate(patch); err != nil {
		return board.Board{}, validationFrom(err)
	}

	e.notify(OpUpdateBoard, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	updated, err := e.remote.UpdateBoard(reqCtx, e.boardID, patch)
	cancel()
	if err != nil {
		e.log.WithField("op", OpUpdateBoard).WithError(err).Warn("Store rejected board update")
		e.notify(OpUpdateBoard, PhaseRolledBack)
		return board.Board{}, &RemoteRequestError{Op: OpUpdateBoard, Err: err}
	}

	e.mu.Lock()
	e.snap.Board = *updated
	e.mu.Unlock()

	e.notify(OpUpdateBoard, PhaseConfirmed)
	return *updated, nil
}

// CreateList appends a list under a temporary identity and swaps in the
// store's identity once confirmed. On failure the temporary list is removed.
func (e *Engine) CreateList(ctx context.Context, title string) (board.List, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return board.List{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	tempID, err := identity.NewTemporary()
	if err != nil {
		return board.List{}, err
	}

	e.notify(OpCreateList, PhaseApplying)
	e.mu.Lock()
	now := e.now()
	e.snap.Lists = append(e.snap.Lists, board.List{
		ID:        tempID,
		BoardID:   e.boardID,
		Title:     title,
		Position:  position.ForAppend(len(e.snap.Lists)),
		Cards:     []board.Card{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	e.mu.Unlock()

	e.notify(OpCreateList, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	created, err := e.remote.CreateList(reqCtx, e.boardID, title)
	cancel()

	e.mu.Lock()
	if err != nil {
		if i := e.snap.ListIndex(tempID); i >= 0 {
			e.snap.Lists = append(e.snap.Lists[:i], e.snap.Lists[i+1:]...)
		}
		e.mu.Unlock()
		return board.List{}, e.rolledBack(OpCreateList, err, logrus.Fields{"list": tempID})
	}

	result := *created
	if identity.SubstituteList(e.snap, tempID, *created) {
		result = snapshot.CloneList(*e.snap.List(created.ID))
	} else {
		e.log.WithField("list", tempID).Debug("Temporary list vanished before confirmation")
	}
	e.mu.Unlock()

	e.notify(OpCreateList, PhaseConfirmed)
	e.broadcast(ctx, board.Event{Type: board.EventListCreated, List: &result})
	return result, nil
}

// UpdateList applies a partial update to one list. Only that list's header
// is restored on failure; its cards are never touched.
func (e *Engine) UpdateList(ctx context.Context, listID string, patch board.ListPatch) (board.List, error) {
	if patch.Title == nil {
		return board.List{}, &ValidationError{Field: "patch", Reason: "is empty"}
	}
	if strings.TrimSpace(*patch.Title) == "" {
		return board.List{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	if err := board.Validate(patch); err != nil {
		return board.List{}, validationFrom(err)
	}
	if identity.IsTemporary(listID) {
		return board.List{}, e.pending(OpUpdateList, listID)
	}

	e.notify(OpUpdateList, PhaseApplying)
	e.mu.Lock()
	l := e.snap.List(listID)
	if l == nil {
		e.mu.Unlock()
		return board.List{}, e.notFound(OpUpdateList, "list", listID)
	}
	prevTitle, prevUpdated := l.Title, l.UpdatedAt
	patch.ApplyTo(l)
	l.UpdatedAt = e.now()
	e.mu.Unlock()

	e.notify(OpUpdateList, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	updated, err := e.remote.UpdateList(reqCtx, e.boardID, listID, patch)
	cancel()

	e.mu.Lock()
	l = e.snap.List(listID)
	if err != nil {
		if l != nil {
			l.Title, l.UpdatedAt = prevTitle, prevUpdated
		}
		e.mu.Unlock()
		return board.List{}, e.rolledBack(OpUpdateList, err, logrus.Fields{"list": listID})
	}

	result := *updated
	if l != nil {
		// Positions are owned locally; only content fields come from the store
		l.Title = updated.Title
		l.UpdatedAt = updated.UpdatedAt
		result = snapshot.CloneList(*l)
	}
	e.mu.Unlock()

	e.notify(OpUpdateList, PhaseConfirmed)
	return result, nil
}

// RenameList is UpdateList with only a title.
func (e *Engine) RenameList(ctx context.Context, listID, title string) (board.List, error) {
	return e.UpdateList(ctx, listID, board.ListPatch{Title: &title})
}

// DeleteList removes a list and its cards. On failure the list is put back
// at its original index with the board's prior positions.
func (e *Engine) DeleteList(ctx context.Context, listID string) error {
	if identity.IsTemporary(listID) {
		return e.pending(OpDeleteList, listID)
	}

	e.notify(OpDeleteList, PhaseApplying)
	e.mu.Lock()
	idx := e.snap.ListIndex(listID)
	if idx < 0 {
		e.mu.Unlock()
		return e.notFound(OpDeleteList, "list", listID)
	}
	saved := captureListSlots(e.snap.Lists)
	removed := snapshot.CloneList(e.snap.Lists[idx])
	e.snap.Lists = append(e.snap.Lists[:idx:idx], e.snap.Lists[idx+1:]...)
	e.snap.RenumberLists()
	if e.snap.Selection.ListID == listID {
		e.snap.Selection = snapshot.Selection{}
	}
	e.mu.Unlock()

	e.notify(OpDeleteList, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	err := e.remote.DeleteList(reqCtx, e.boardID, listID)
	cancel()

	if err != nil {
		e.mu.Lock()
		e.snap.Lists = position.Insert(e.snap.Lists, idx, removed)
		restoreLists(e.snap, saved)
		e.mu.Unlock()
		return e.rolledBack(OpDeleteList, err, logrus.Fields{"list": listID})
	}

	e.notify(OpDeleteList, PhaseConfirmed)
	e.broadcast(ctx, board.Event{Type: board.EventListDeleted, ListID: listID})
	return nil
}

// ReorderList moves the list at from to index to and renumbers every list.
// The store receives the full sequence of confirmed lists in one request;
// on failure the prior order and positions are restored.
func (e *Engine) ReorderList(ctx context.Context, from, to int) error {
	e.notify(OpReorderList, PhaseApplying)
	e.mu.Lock()
	if from < 0 || from >= len(e.snap.Lists) {
		e.mu.Unlock()
		return &ValidationError{Field: "from", Reason: "is out of range"}
	}
	to = position.Clamp(to, len(e.snap.Lists)-1)
	if from == to {
		e.mu.Unlock()
		return nil
	}

	saved := captureListSlots(e.snap.Lists)
	e.snap.Lists = position.Move(e.snap.Lists, from, to)
	e.snap.RenumberLists()

	order := make([]board.ListOrder, 0, len(e.snap.Lists))
	for _, l := range e.snap.Lists {
		if identity.IsTemporary(l.ID) {
			continue
		}
		order = append(order, board.ListOrder{ID: l.ID, Position: l.Position})
	}
	e.mu.Unlock()

	e.notify(OpReorderList, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	err := e.remote.SetListsOrder(reqCtx, e.boardID, order)
	cancel()

	if err != nil {
		e.mu.Lock()
		restoreLists(e.snap, saved)
		e.mu.Unlock()
		return e.rolledBack(OpReorderList, err, logrus.Fields{"from": from, "to": to})
	}

	e.notify(OpReorderList, PhaseConfirmed)
	e.broadcast(ctx, board.Event{Type: board.EventListsReordered, ListOrder: order})
	return nil
}
