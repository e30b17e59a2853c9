package engine

import (
	"context"
	"strings"

	"github.com/dyluth/pinboard/internal/identity"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/sirupsen/logrus"
)

// Card details and membership are confirmed first and then written into the
// snapshot, so a failure leaves nothing to undo.

// confirmFirst runs a store request for op and wraps its failure.
func (e *Engine) confirmFirst(ctx context.Context, op Op, fields logrus.Fields, request func(context.Context) error) error {
	e.notify(op, PhaseAwaitingRemote)
	reqCtx, cancel := e.requestCtx(ctx)
	err := request(reqCtx)
	cancel()
	if err != nil {
		e.log.WithFields(fields).WithField("op", op).WithError(err).Warn("Store request failed")
		e.notify(op, PhaseRolledBack)
		return &RemoteRequestError{Op: op, Err: err}
	}
	e.notify(op, PhaseConfirmed)
	return nil
}

// withCard runs fn on the live card if it is still in the snapshot.
func (e *Engine) withCard(cardID string, fn func(c *board.Card)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c := e.snap.Card(cardID); c != nil {
		fn(c)
	}
}

// RefreshCard refetches a card's comments, labels and assignees and writes
// them into the snapshot. It backs the card_updated live signal.
func (e *Engine) RefreshCard(ctx context.Context, cardID string) error {
	if identity.IsTemporary(cardID) {
		return e.pending(OpRefreshCard, cardID)
	}

	var (
		comments  []board.Comment
		labels    []board.Label
		assignees []board.Member
	)
	err := e.confirmFirst(ctx, OpRefreshCard, logrus.Fields{"card": cardID}, func(reqCtx context.Context) error {
		var err error
		if comments, err = e.remote.Comments(reqCtx, e.boardID, cardID); err != nil {
			return err
		}
		if labels, err = e.remote.CardLabels(reqCtx, e.boardID, cardID); err != nil {
			return err
		}
		assignees, err = e.remote.CardAssignees(reqCtx, e.boardID, cardID)
		return err
	})
	if err != nil {
		return err
	}

	e.withCard(cardID, func(c *board.Card) {
		c.Comments = comments
		c.Labels = labels
		c.Assignees = assignees
	})
	return nil
}

// Comments returns a card's comments from the store and caches them on the
// card.
func (e *Engine) Comments(ctx context.Context, cardID string) ([]board.Comment, error) {
	if identity.IsTemporary(cardID) {
		return []board.Comment{}, nil
	}

	var comments []board.Comment
	err := e.confirmFirst(ctx, OpRefreshCard, logrus.Fields{"card": cardID}, func(reqCtx context.Context) error {
		var err error
		comments, err = e.remote.Comments(reqCtx, e.boardID, cardID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.withCard(cardID, func(c *board.Card) { c.Comments = append([]board.Comment(nil), comments...) })
	return comments, nil
}

// AddComment appends a comment to a card and signals other sessions.
func (e *Engine) AddComment(ctx context.Context, cardID, body string) (board.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return board.Comment{}, &ValidationError{Field: "body", Reason: "is required"}
	}
	if identity.IsTemporary(cardID) {
		return board.Comment{}, e.pending(OpAddComment, cardID)
	}

	var comment *board.Comment
	err := e.confirmFirst(ctx, OpAddComment, logrus.Fields{"card": cardID}, func(reqCtx context.Context) error {
		var err error
		comment, err = e.remote.AddComment(reqCtx, e.boardID, cardID, body)
		return err
	})
	if err != nil {
		return board.Comment{}, err
	}

	e.withCard(cardID, func(c *board.Card) { c.Comments = append(c.Comments, *comment) })
	e.broadcast(ctx, board.Event{Type: board.EventCardUpdated, CardID: cardID})
	return *comment, nil
}

// CreateLabel adds a board label.
func (e *Engine) CreateLabel(ctx context.Context, name, color string) (board.Label, error) {
	if strings.TrimSpace(name) == "" {
		return board.Label{}, &ValidationError{Field: "name", Reason: "is required"}
	}

	var label *board.Label
	err := e.confirmFirst(ctx, OpCreateLabel, logrus.Fields{"name": name}, func(reqCtx context.Context) error {
		var err error
		label, err = e.remote.CreateLabel(reqCtx, e.boardID, name, color)
		return err
	})
	if err != nil {
		return board.Label{}, err
	}

	e.mu.Lock()
	e.snap.Labels = append(e.snap.Labels, *label)
	e.mu.Unlock()
	return *label, nil
}

// AddCardLabel attaches a board label to a card.
func (e *Engine) AddCardLabel(ctx context.Context, cardID, labelID string) error {
	return e.changeCardLabel(ctx, cardID, labelID, true)
}

// RemoveCardLabel detaches a label from a card.
func (e *Engine) RemoveCardLabel(ctx context.Context, cardID, labelID string) error {
	return e.changeCardLabel(ctx, cardID, labelID, false)
}

func (e *Engine) changeCardLabel(ctx context.Context, cardID, labelID string, add bool) error {
	if identity.IsTemporary(cardID) {
		return e.pending(OpCardLabel, cardID)
	}

	err := e.confirmFirst(ctx, OpCardLabel, logrus.Fields{"card": cardID, "label": labelID}, func(reqCtx context.Context) error {
		if add {
			return e.remote.AddCardLabel(reqCtx, e.boardID, cardID, labelID)
		}
		return e.remote.RemoveCardLabel(reqCtx, e.boardID, cardID, labelID)
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	var label *board.Label
	for i := range e.snap.Labels {
		if e.snap.Labels[i].ID == labelID {
			label = &e.snap.Labels[i]
		}
	}
	if c := e.snap.Card(cardID); c != nil {
		c.Labels = withoutLabel(c.Labels, labelID)
		if add && label != nil {
			c.Labels = append(c.Labels, *label)
		}
	}
	e.mu.Unlock()

	e.broadcast(ctx, board.Event{Type: board.EventCardUpdated, CardID: cardID})
	return nil
}

func withoutLabel(labels []board.Label, id string) []board.Label {
	out := make([]board.Label, 0, len(labels))
	for _, l := range labels {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}

// AddCardAssignee assigns a board member to a card.
func (e *Engine) AddCardAssignee(ctx context.Context, cardID, userID string) error {
	return e.changeCardAssignee(ctx, cardID, userID, true)
}

// RemoveCardAssignee unassigns a user from a card.
func (e *Engine) RemoveCardAssignee(ctx context.Context, cardID, userID string) error {
	return e.changeCardAssignee(ctx, cardID, userID, false)
}

func (e *Engine) changeCardAssignee(ctx context.Context, cardID, userID string, add bool) error {
	if identity.IsTemporary(cardID) {
		return e.pending(OpCardAssignee, cardID)
	}

	err := e.confirmFirst(ctx, OpCardAssignee, logrus.Fields{"card": cardID, "user": userID}, func(reqCtx context.Context) error {
		if add {
			return e.remote.AddCardAssignee(reqCtx, e.boardID, cardID, userID)
		}
		return e.remote.RemoveCardAssignee(reqCtx, e.boardID, cardID, userID)
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	member := board.Member{UserID: userID}
	for _, m := range e.snap.Members {
		if m.UserID == userID {
			member = m
		}
	}
	if c := e.snap.Card(cardID); c != nil {
		kept := make([]board.Member, 0, len(c.Assignees)+1)
		for _, a := range c.Assignees {
			if a.UserID != userID {
				kept = append(kept, a)
			}
		}
		if add {
			kept = append(kept, member)
		}
		c.Assignees = kept
	}
	e.mu.Unlock()

	e.broadcast(ctx, board.Event{Type: board.EventCardUpdated, CardID: cardID})
	return nil
}

// InviteMember adds a user to the board by email.
func (e *Engine) InviteMember(ctx context.Context, email string, role board.Role) (board.Member, error) {
	if strings.TrimSpace(email) == "" {
		return board.Member{}, &ValidationError{Field: "email", Reason: "is required"}
	}

	var member *board.Member
	err := e.confirmFirst(ctx, OpMembers, logrus.Fields{"email": email}, func(reqCtx context.Context) error {
		var err error
		member, err = e.remote.InviteMember(reqCtx, e.boardID, email, role)
		return err
	})
	if err != nil {
		return board.Member{}, err
	}

	e.mu.Lock()
	e.snap.Members = append(withoutMember(e.snap.Members, member.UserID), *member)
	e.mu.Unlock()
	return *member, nil
}

// RemoveMember revokes a user's membership.
func (e *Engine) RemoveMember(ctx context.Context, userID string) error {
	err := e.confirmFirst(ctx, OpMembers, logrus.Fields{"user": userID}, func(reqCtx context.Context) error {
		return e.remote.RemoveMember(reqCtx, e.boardID, userID)
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.snap.Members = withoutMember(e.snap.Members, userID)
	e.mu.Unlock()
	return nil
}

// Members refreshes the board's member list from the store.
func (e *Engine) Members(ctx context.Context) ([]board.Member, error) {
	var members []board.Member
	err := e.confirmFirst(ctx, OpMembers, logrus.Fields{}, func(reqCtx context.Context) error {
		var err error
		members, err = e.remote.Members(reqCtx, e.boardID)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.snap.Members = append([]board.Member(nil), members...)
	e.mu.Unlock()
	return members, nil
}

func withoutMember(members []board.Member, userID string) []board.Member {
	out := make([]board.Member, 0, len(members))
	for _, m := range members {
		if m.UserID != userID {
			out = append(out, m)
		}
	}
	return out
}
