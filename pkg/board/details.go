package board

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Comments returns a card's comments, oldest first.
func (c *Client) Comments(ctx context.Context, boardID, cardID string) ([]Comment, error) {
	if _, _, err := c.authorizeRead(ctx, boardID); err != nil {
		return nil, err
	}
	if _, err := c.getCard(ctx, boardID, cardID); err != nil {
		return nil, err
	}

	raw, err := c.rdb.LRange(ctx, CardCommentsKey(c.namespace, cardID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read comments: %w", err)
	}
	return decodeComments(raw)
}

// AddComment appends a comment authored by the actor.
func (c *Client) AddComment(ctx context.Context, boardID, cardID, body string) (*Comment, error) {
	if err := requireTitle("body", body); err != nil {
		return nil, err
	}
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return nil, err
	}
	if _, err := c.getCard(ctx, boardID, cardID); err != nil {
		return nil, err
	}

	author := c.actor
	if u, err := c.GetUser(ctx, c.actor); err == nil {
		author = u.DisplayName
	}

	comment := &Comment{
		ID:        newID(),
		CardID:    cardID,
		AuthorID:  c.actor,
		Author:    author,
		Body:      strings.TrimSpace(body),
		CreatedAt: c.now(),
	}
	commentJSON, err := json.Marshal(comment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal comment: %w", err)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, CardCommentsKey(c.namespace, cardID), commentJSON)
		return c.recordActivity(ctx, pipe, boardID, ActivityCommentCreated, map[string]string{"card_id": cardID, "comment_id": comment.ID})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write comment: %w", err)
	}
	return comment, nil
}

func decodeComments(raw []string) ([]Comment, error) {
	comments := make([]Comment, 0, len(raw))
	for _, entry := range raw {
		var cm Comment
		if err := json.Unmarshal([]byte(entry), &cm); err != nil {
			return nil, fmt.Errorf("failed to unmarshal comment: %w", err)
		}
		comments = append(comments, cm)
	}
	return comments, nil
}

// Labels returns the board's labels sorted by name.
func (c *Client) Labels(ctx context.Context, boardID string) ([]Label, error) {
	if _, _, err := c.authorizeRead(ctx, boardID); err != nil {
		return nil, err
	}
	return c.readLabels(ctx, boardID)
}

// CreateLabel adds a board-scoped label.
func (c *Client) CreateLabel(ctx context.Context, boardID, name, color string) (*Label, error) {
	label := &Label{ID: newID(), BoardID: boardID, Name: strings.TrimSpace(name), Color: strings.ToLower(color)}
	if err := Validate(label); err != nil {
		return nil, err
	}
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return nil, err
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, LabelKey(c.namespace, label.ID), LabelToHash(label))
		pipe.SAdd(ctx, BoardLabelsKey(c.namespace, boardID), label.ID)
		return c.recordActivity(ctx, pipe, boardID, ActivityLabelCreated, map[string]string{"label_id": label.ID, "name": label.Name})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write label: %w", err)
	}
	return label, nil
}

// CardLabels returns the labels attached to a card, sorted by name.
func (c *Client) CardLabels(ctx context.Context, boardID, cardID string) ([]Label, error) {
	if _, _, err := c.authorizeRead(ctx, boardID); err != nil {
		return nil, err
	}
	ids, err := c.rdb.SMembers(ctx, CardLabelsKey(c.namespace, cardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read card labels: %w", err)
	}

	labels := make([]Label, 0, len(ids))
	for _, id := range ids {
		hashData, err := c.readHash(ctx, LabelKey(c.namespace, id))
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		labels = append(labels, *HashToLabel(hashData))
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i].Name < labels[j].Name })
	return labels, nil
}

// AddCardLabel attaches a board label to a card. Attaching twice is a no-op.
func (c *Client) AddCardLabel(ctx context.Context, boardID, cardID, labelID string) error {
	return c.changeCardSet(ctx, boardID, cardID, labelID, true, CardLabelsKey(c.namespace, cardID), ActivityCardLabelAdded, "label_id",
		func() error { return c.checkLabel(ctx, boardID, labelID) })
}

// RemoveCardLabel detaches a label from a card.
func (c *Client) RemoveCardLabel(ctx context.Context, boardID, cardID, labelID string) error {
	return c.changeCardSet(ctx, boardID, cardID, labelID, false, CardLabelsKey(c.namespace, cardID), ActivityCardLabelRemoved, "label_id", nil)
}

// CardAssignees returns the members assigned to a card.
func (c *Client) CardAssignees(ctx context.Context, boardID, cardID string) ([]Member, error) {
	if _, _, err := c.authorizeRead(ctx, boardID); err != nil {
		return nil, err
	}
	ids, err := c.rdb.SMembers(ctx, CardAssigneesKey(c.namespace, cardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read card assignees: %w", err)
	}
	members, err := c.readMembers(ctx, boardID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Member, len(members))
	for _, m := range members {
		byID[m.UserID] = m
	}
	refs := make([]Member, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, Member{UserID: id})
	}
	return c.resolveAssignees(ctx, refs, byID), nil
}

// AddCardAssignee assigns a board member to a card.
func (c *Client) AddCardAssignee(ctx context.Context, boardID, cardID, userID string) error {
	return c.changeCardSet(ctx, boardID, cardID, userID, true, CardAssigneesKey(c.namespace, cardID), ActivityAssigneeAdded, "user_id",
		func() error { return c.checkMember(ctx, boardID, userID) })
}

// RemoveCardAssignee unassigns a user from a card.
func (c *Client) RemoveCardAssignee(ctx context.Context, boardID, cardID, userID string) error {
	return c.changeCardSet(ctx, boardID, cardID, userID, false, CardAssigneesKey(c.namespace, cardID), ActivityAssigneeRemoved, "user_id", nil)
}

// changeCardSet adds or removes member in a card relation set and records
// the activity. check, when set, validates member before the write.
func (c *Client) changeCardSet(ctx context.Context, boardID, cardID, member string, add bool, key, activityType, field string, check func() error) error {
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return err
	}
	if _, err := c.getCard(ctx, boardID, cardID); err != nil {
		return err
	}
	if check != nil {
		if err := check(); err != nil {
			return err
		}
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if add {
			pipe.SAdd(ctx, key, member)
		} else {
			pipe.SRem(ctx, key, member)
		}
		return c.recordActivity(ctx, pipe, boardID, activityType, map[string]string{"card_id": cardID, field: member})
	})
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	return nil
}

func (c *Client) checkLabel(ctx context.Context, boardID, labelID string) error {
	ok, err := c.rdb.SIsMember(ctx, BoardLabelsKey(c.namespace, boardID), labelID).Result()
	if err != nil {
		return fmt.Errorf("failed to check label: %w", err)
	}
	if !ok {
		return fmt.Errorf("label %s: %w", labelID, ErrNotFound)
	}
	return nil
}

func (c *Client) checkMember(ctx context.Context, boardID, userID string) error {
	ok, err := c.rdb.HExists(ctx, BoardMembersKey(c.namespace, boardID), userID).Result()
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if !ok {
		return fmt.Errorf("member %s: %w", userID, ErrNotFound)
	}
	return nil
}

// Members returns the board's members.
func (c *Client) Members(ctx context.Context, boardID string) ([]Member, error) {
	if _, _, err := c.authorizeRead(ctx, boardID); err != nil {
		return nil, err
	}
	return c.readMembers(ctx, boardID)
}

// InviteMember adds an existing user, found by email, to the board. Only
// owners may invite. An empty role defaults to editor.
func (c *Client) InviteMember(ctx context.Context, boardID, email string, role Role) (*Member, error) {
	if role == "" {
		role = RoleEditor
	}
	if role != RoleOwner && role != RoleEditor && role != RoleViewer {
		return nil, FieldErrors{"role": "must be one of: owner editor viewer"}
	}
	if _, err := c.authorizeOwner(ctx, boardID); err != nil {
		return nil, err
	}

	u, err := c.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, BoardMembersKey(c.namespace, boardID), u.ID, string(role))
		return c.recordActivity(ctx, pipe, boardID, ActivityMemberInvited, map[string]string{"user_id": u.ID, "role": string(role)})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write membership: %w", err)
	}

	return &Member{UserID: u.ID, DisplayName: u.DisplayName, Email: u.Email, Role: role}, nil
}

// RemoveMember revokes a user's membership. The creator cannot be removed.
func (c *Client) RemoveMember(ctx context.Context, boardID, userID string) error {
	b, err := c.authorizeOwner(ctx, boardID)
	if err != nil {
		return err
	}
	if userID == b.CreatedBy {
		return ErrForbidden
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, BoardMembersKey(c.namespace, boardID), userID)
		return c.recordActivity(ctx, pipe, boardID, ActivityMemberRemoved, map[string]string{"user_id": userID})
	})
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}
	return nil
}
