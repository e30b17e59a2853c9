package engine

import (
	"context"
	"strings"
	"time"

	"github.com/dyluth/pinboard/internal/identity"
	"github.com/dyluth/pinboard/internal/position"
	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/sirupsen/logrus"
)

// CreateCard appends a card to a list under a temporary identity. The
// target list must exist and be confirmed. On failure the temporary card is
// removed; on success the store's identity and position replace it.
func (e *Engine) CreateCard(ctx context.Context, listID, title string) (board.Card, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return board.Card{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	if identity.IsTemporary(listID) {
		return board.Card{}, e.pending(OpCreateCard, listID)
	}
	tempID, err := identity.NewTemporary()
	if err != nil {
		return board.Card{}, err
	}

	e.notify(OpCreateCard, PhaseApplying)
	e.mu.Lock()
	l := e.snap.List(listID)
	if l == nil {
		e.mu.Unlock()
		return board.Card{}, e.notFound(OpCreateCard, "list", listID)
	}
	now := e.now()
	l.Cards = append(l.Cards, board.Card{
		ID:        tempID,
		ListID:    listID,
		BoardID:   e.boardID,
		Title:     title,
		Position:  position.ForAppend(len(l.Cards)),
		Labels:    []board.Label{},
		Assignees: []board.Member{},
		Comments:  []board.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	e.mu.Unlock()

	e.notify(OpCreateCard, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	created, err := e.remote.CreateCard(reqCtx, e.boardID, listID, title)
	cancel()

	e.mu.Lock()
	if err != nil {
		if li, ci, ok := e.snap.FindCard(tempID); ok {
			l := &e.snap.Lists[li]
			l.Cards = append(l.Cards[:ci:ci], l.Cards[ci+1:]...)
			snapshot.RenumberCards(l)
		}
		if e.snap.Selection.CardID == tempID {
			e.snap.Selection.CardID = ""
		}
		e.mu.Unlock()
		return board.Card{}, e.rolledBack(OpCreateCard, err, logrus.Fields{"list": listID, "card": tempID})
	}

	result := snapshot.CloneCard(*created)
	if identity.SubstituteCard(e.snap, tempID, *created) {
		result = snapshot.CloneCard(*e.snap.Card(created.ID))
	} else {
		e.log.WithField("card", tempID).Debug("Temporary card vanished before confirmation")
	}
	e.mu.Unlock()

	e.notify(OpCreateCard, PhaseConfirmed)
	e.broadcast(ctx, board.Event{Type: board.EventCardCreated, ListID: result.ListID, Card: &result})
	return result, nil
}

// cardContent is the part of a card that UpdateCard may change and restore.
type cardContent struct {
	title       string
	description string
	dueDate     *string
	updatedAt   time.Time
}

func contentOf(c *board.Card) cardContent {
	out := cardContent{title: c.Title, description: c.Description, updatedAt: c.UpdatedAt}
	if c.DueDate != nil {
		d := *c.DueDate
		out.dueDate = &d
	}
	return out
}

func (cc cardContent) restore(c *board.Card) {
	c.Title = cc.title
	c.Description = cc.description
	c.DueDate = cc.dueDate
	c.UpdatedAt = cc.updatedAt
}

// UpdateCard applies a partial update of title, description or due date to
// one card. On failure exactly those fields of that card are restored.
// Changing a card's list is only possible through MoveCard.
func (e *Engine) UpdateCard(ctx context.Context, cardID string, patch board.CardPatch) (board.Card, error) {
	if patch.Archived != nil {
		return board.Card{}, &ValidationError{Field: "archived", Reason: "use ArchiveCard"}
	}
	if patch.IsEmpty() {
		return board.Card{}, &ValidationError{Field: "patch", Reason: "is empty"}
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return board.Card{}, &ValidationError{Field: "title", Reason: "is required"}
	}
	if patch.ClearDueDate && patch.DueDate != nil {
		return board.Card{}, &ValidationError{Field: "due_date", Reason: "cannot be set and cleared at once"}
	}
	if err := board.Validate(patch); err != nil {
		return board.Card{}, validationFrom(err)
	}
	if identity.IsTemporary(cardID) {
		return board.Card{}, e.pending(OpUpdateCard, cardID)
	}

	e.notify(OpUpdateCard, PhaseApplying)
	e.mu.Lock()
	c := e.snap.Card(cardID)
	if c == nil {
		e.mu.Unlock()
		return board.Card{}, e.notFound(OpUpdateCard, "card", cardID)
	}
	prev := contentOf(c)
	patch.ApplyTo(c)
	c.UpdatedAt = e.now()
	e.mu.Unlock()

	e.notify(OpUpdateCard, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	updated, err := e.remote.UpdateCard(reqCtx, e.boardID, cardID, patch)
	cancel()

	e.mu.Lock()
	c = e.snap.Card(cardID)
	if err != nil {
		if c != nil {
			prev.restore(c)
		}
		e.mu.Unlock()
		return board.Card{}, e.rolledBack(OpUpdateCard, err, logrus.Fields{"card": cardID})
	}

	result := snapshot.CloneCard(*updated)
	if c != nil {
		contentOf(updated).restore(c)
		result = snapshot.CloneCard(*c)
	}
	e.mu.Unlock()

	e.notify(OpUpdateCard, PhaseConfirmed)
	e.broadcast(ctx, board.Event{Type: board.EventCardUpdated, CardID: cardID})
	return result, nil
}

// DeleteCard removes a card from its list. On failure it is reinserted at
// its original index with the list's prior positions.
func (e *Engine) DeleteCard(ctx context.Context, listID, cardID string) error {
	return e.removeCard(ctx, OpDeleteCard, listID, cardID, func(reqCtx context.Context) error {
		return e.remote.DeleteCard(reqCtx, e.boardID, cardID)
	})
}

// ArchiveCard hides a card from the board. Locally it behaves like a delete;
// the store keeps the card flagged as archived.
func (e *Engine) ArchiveCard(ctx context.Context, listID, cardID string) error {
	archived := true
	return e.removeCard(ctx, OpArchiveCard, listID, cardID, func(reqCtx context.Context) error {
		_, err := e.remote.UpdateCard(reqCtx, e.boardID, cardID, board.CardPatch{Archived: &archived})
		return err
	})
}

func (e *Engine) removeCard(ctx context.Context, op Op, listID, cardID string, request func(context.Context) error) error {
	if identity.IsTemporary(cardID) {
		return e.pending(op, cardID)
	}

	e.notify(op, PhaseApplying)
	e.mu.Lock()
	l := e.snap.List(listID)
	if l == nil {
		e.mu.Unlock()
		return e.notFound(op, "list", listID)
	}
	idx := snapshot.CardIndex(l, cardID)
	if idx < 0 {
		e.mu.Unlock()
		return e.notFound(op, "card", cardID)
	}
	saved := map[string][]slot{listID: captureCardSlots(l)}
	removed := snapshot.CloneCard(l.Cards[idx])
	l.Cards = append(l.Cards[:idx:idx], l.Cards[idx+1:]...)
	snapshot.RenumberCards(l)
	if e.snap.Selection.CardID == cardID {
		e.snap.Selection.CardID = ""
	}
	e.mu.Unlock()

	e.notify(op, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	err := request(reqCtx)
	cancel()

	if err != nil {
		e.mu.Lock()
		if l := e.snap.List(listID); l != nil {
			l.Cards = position.Insert(l.Cards, idx, removed)
			restoreCards(e.snap, saved)
		}
		e.mu.Unlock()
		return e.rolledBack(op, err, logrus.Fields{"list": listID, "card": cardID})
	}

	e.notify(op, PhaseConfirmed)
	e.broadcast(ctx, board.Event{Type: board.EventCardDeleted, ListID: listID, CardID: cardID})
	return nil
}

// ReorderCard moves the card at from to index to within one list and
// renumbers that list. On failure the list's prior sequence is restored.
func (e *Engine) ReorderCard(ctx context.Context, listID string, from, to int) error {
	return e.reorderCard(ctx, listID, to, func(l *board.List) (int, error) {
		if from < 0 || from >= len(l.Cards) {
			return -1, &ValidationError{Field: "from", Reason: "is out of range"}
		}
		return from, nil
	})
}

// reorderCard is ReorderCard with the source index resolved by locate while
// the snapshot lock is held.
func (e *Engine) reorderCard(ctx context.Context, listID string, to int, locate func(l *board.List) (int, error)) error {
	e.notify(OpReorderCard, PhaseApplying)
	e.mu.Lock()
	l := e.snap.List(listID)
	if l == nil {
		e.mu.Unlock()
		return e.notFound(OpReorderCard, "list", listID)
	}
	from, err := locate(l)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	to = position.Clamp(to, len(l.Cards)-1)
	if from == to {
		e.mu.Unlock()
		return nil
	}

	saved := map[string][]slot{listID: captureCardSlots(l)}
	l.Cards = position.Move(l.Cards, from, to)
	snapshot.RenumberCards(l)
	placements := placementsFor(l, "", "")
	replacement := snapshot.CloneList(*l)
	e.mu.Unlock()

	e.notify(OpReorderCard, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	err = e.remote.SetCards(reqCtx, e.boardID, placements)
	cancel()

	if err != nil {
		e.mu.Lock()
		restoreCards(e.snap, saved)
		e.mu.Unlock()
		return e.rolledBack(OpReorderCard, err, logrus.Fields{"list": listID, "from": from, "to": to})
	}

	e.notify(OpReorderCard, PhaseConfirmed)
	e.broadcast(ctx, board.Event{Type: board.EventCardMoved, NewLists: []board.List{replacement}})
	return nil
}

// MoveCard moves a card to targetIndex of another list (clamped: 0 prepends,
// past the end appends) and renumbers both lists. Cards that still carry a
// temporary identity cannot be moved. The store receives every confirmed card
// of both lists in one request, the moved one marked with its previous list.
// On failure both lists are restored entirely.
func (e *Engine) MoveCard(ctx context.Context, fromListID, toListID, cardID string, targetIndex int) error {
	if identity.IsTemporary(cardID) {
		return e.pending(OpMoveCard, cardID)
	}
	if fromListID == toListID {
		return e.reorderCard(ctx, fromListID, targetIndex, func(l *board.List) (int, error) {
			idx := snapshot.CardIndex(l, cardID)
			if idx < 0 {
				return -1, e.notFound(OpMoveCard, "card", cardID)
			}
			return idx, nil
		})
	}
	if identity.IsTemporary(toListID) {
		return e.pending(OpMoveCard, toListID)
	}

	e.notify(OpMoveCard, PhaseApplying)
	e.mu.Lock()
	src := e.snap.List(fromListID)
	if src == nil {
		e.mu.Unlock()
		return e.notFound(OpMoveCard, "list", fromListID)
	}
	dst := e.snap.List(toListID)
	if dst == nil {
		e.mu.Unlock()
		return e.notFound(OpMoveCard, "list", toListID)
	}
	idx := snapshot.CardIndex(src, cardID)
	if idx < 0 {
		e.mu.Unlock()
		return e.notFound(OpMoveCard, "card", cardID)
	}

	saved := map[string][]slot{
		fromListID: captureCardSlots(src),
		toListID:   captureCardSlots(dst),
	}

	card := src.Cards[idx]
	src.Cards = append(src.Cards[:idx:idx], src.Cards[idx+1:]...)
	card.ListID = toListID
	dst.Cards = position.Insert(dst.Cards, targetIndex, card)
	snapshot.RenumberCards(src)
	snapshot.RenumberCards(dst)

	newIndex := snapshot.CardIndex(dst, cardID)
	moved := snapshot.CloneCard(dst.Cards[newIndex])
	placements := append(placementsFor(src, "", ""), placementsFor(dst, cardID, fromListID)...)
	e.mu.Unlock()

	e.notify(OpMoveCard, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	err := e.remote.SetCards(reqCtx, e.boardID, placements)
	cancel()

	if err != nil {
		e.mu.Lock()
		restoreCards(e.snap, saved)
		e.mu.Unlock()
		return e.rolledBack(OpMoveCard, err, logrus.Fields{"card": cardID, "from": fromListID, "to": toListID})
	}

	e.notify(OpMoveCard, PhaseConfirmed)
	e.broadcast(ctx, board.Event{
		Type:        board.EventCardMoved,
		CardID:      cardID,
		FromListID:  fromListID,
		ToListID:    toListID,
		NewPosition: newIndex,
		MovedCard:   &moved,
	})
	return nil
}

// placementsFor builds bulk entries for every confirmed card of l. The card
// movedID, if present, is marked as having come from previousListID.
func placementsFor(l *board.List, movedID, previousListID string) []board.CardPlacement {
	out := make([]board.CardPlacement, 0, len(l.Cards))
	for _, c := range l.Cards {
		if identity.IsTemporary(c.ID) {
			continue
		}
		p := board.CardPlacement{
			ID:          c.ID,
			ListID:      l.ID,
			Position:    c.Position,
			Title:       c.Title,
			Description: c.Description,
			DueDate:     c.DueDate,
		}
		if c.ID == movedID {
			p.Moved = true
			p.PreviousListID = previousListID
		}
		out = append(out, p)
	}
	return out
}
