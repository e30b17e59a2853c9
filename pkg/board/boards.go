package board

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// CreateBoard creates a board owned by the actor. The actor becomes an owner
// member so that the board shows up in their membership immediately.
func (c *Client) CreateBoard(ctx context.Context, title string, visibility Visibility, backgroundColor string) (*Board, error) {
	if c.actor == "" {
		return nil, ErrUnauthenticated
	}
	if visibility == "" {
		visibility = VisibilityPrivate
	}

	now := c.now()
	b := &Board{
		ID:              newID(),
		Title:           strings.TrimSpace(title),
		Visibility:      visibility,
		CreatedBy:       c.actor,
		BackgroundColor: backgroundColor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("invalid board: %w", err)
	}

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, BoardKey(c.namespace, b.ID), BoardToHash(b))
		pipe.SAdd(ctx, BoardsKey(c.namespace), b.ID)
		pipe.HSet(ctx, BoardMembersKey(c.namespace, b.ID), c.actor, string(RoleOwner))
		return c.recordActivity(ctx, pipe, b.ID, ActivityBoardCreated, map[string]string{"title": b.Title})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write board to Redis: %w", err)
	}

	return b, nil
}

// ListBoards returns every board the actor may read, oldest first.
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	if c.actor == "" {
		return nil, ErrUnauthenticated
	}

	ids, err := c.rdb.SMembers(ctx, BoardsKey(c.namespace)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	boards := make([]Board, 0, len(ids))
	for _, id := range ids {
		b, _, err := c.authorizeRead(ctx, id)
		if err != nil {
			if IsNotFound(err) || errors.Is(err, ErrAccessDenied) {
				continue
			}
			return nil, err
		}
		boards = append(boards, *b)
	}

	sort.Slice(boards, func(i, j int) bool {
		return boards[i].CreatedAt.Before(boards[j].CreatedAt)
	})
	return boards, nil
}

// GetBoard reads the whole board in one coherent pass: the board itself,
// lists sorted by position with every card (archived ones included, each with
// labels, assignees and comments), labels, members and the retained activity
// feed newest first.
//
// Returns ErrUnauthenticated, ErrNotFound or ErrAccessDenied when the actor
// cannot read the board.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*Aggregate, error) {
	b, _, err := c.authorizeRead(ctx, boardID)
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{Board: *b}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lists, err := c.readLists(gctx, boardID)
		agg.Lists = lists
		return err
	})
	g.Go(func() error {
		labels, err := c.readLabels(gctx, boardID)
		agg.Labels = labels
		return err
	})
	g.Go(func() error {
		members, err := c.readMembers(gctx, boardID)
		agg.Members = members
		return err
	})
	g.Go(func() error {
		activities, err := c.readActivities(gctx, boardID, c.retention)
		agg.Activities = activities
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.hydrateCards(ctx, agg)
	return agg, nil
}

// hydrateCards replaces the ID-only labels and assignees that readLists
// leaves on cards with the full records of the aggregate.
func (c *Client) hydrateCards(ctx context.Context, agg *Aggregate) {
	labelsByID := make(map[string]Label, len(agg.Labels))
	for _, l := range agg.Labels {
		labelsByID[l.ID] = l
	}
	membersByID := make(map[string]Member, len(agg.Members))
	for _, m := range agg.Members {
		membersByID[m.UserID] = m
	}

	for li := range agg.Lists {
		for ci := range agg.Lists[li].Cards {
			card := &agg.Lists[li].Cards[ci]
			card.Labels = resolveLabels(card.Labels, labelsByID)
			card.Assignees = c.resolveAssignees(ctx, card.Assignees, membersByID)
		}
	}
}

func resolveLabels(refs []Label, byID map[string]Label) []Label {
	out := make([]Label, 0, len(refs))
	for _, ref := range refs {
		if l, ok := byID[ref.ID]; ok {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// resolveAssignees fills assignee records from the member list, falling back
// to the user record for users who are no longer members.
func (c *Client) resolveAssignees(ctx context.Context, refs []Member, byID map[string]Member) []Member {
	out := make([]Member, 0, len(refs))
	for _, ref := range refs {
		if m, ok := byID[ref.UserID]; ok {
			out = append(out, m)
			continue
		}
		if u, err := c.GetUser(ctx, ref.UserID); err == nil {
			out = append(out, Member{UserID: u.ID, DisplayName: u.DisplayName, Email: u.Email})
			continue
		}
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out
}

// readLists reads lists in position order together with their cards.
// Card labels and assignees carry only their IDs.
func (c *Client) readLists(ctx context.Context, boardID string) ([]List, error) {
	listIDs, err := c.rdb.ZRange(ctx, BoardListsKey(c.namespace, boardID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board lists: %w", err)
	}

	lists := make([]List, 0, len(listIDs))
	for _, listID := range listIDs {
		hashData, err := c.readHash(ctx, ListKey(c.namespace, listID))
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		l, err := HashToList(hashData)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize list %s: %w", listID, err)
		}

		cards, err := c.readCards(ctx, listID)
		if err != nil {
			return nil, err
		}
		l.Cards = cards
		lists = append(lists, *l)
	}

	return lists, nil
}

// readCards reads a list's cards in position order with their relations.
func (c *Client) readCards(ctx context.Context, listID string) ([]Card, error) {
	cardIDs, err := c.rdb.ZRange(ctx, ListCardsKey(c.namespace, listID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read list cards: %w", err)
	}

	cards := make([]Card, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		card, err := c.readCard(ctx, cardID)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		cards = append(cards, *card)
	}
	return cards, nil
}

// readCard reads one card with label and assignee IDs and its comments.
func (c *Client) readCard(ctx context.Context, cardID string) (*Card, error) {
	hashData, err := c.readHash(ctx, CardKey(c.namespace, cardID))
	if err != nil {
		return nil, err
	}
	card, err := HashToCard(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize card %s: %w", cardID, err)
	}

	var labelIDs, assigneeIDs *redis.StringSliceCmd
	var comments *redis.StringSliceCmd
	_, err = c.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		labelIDs = pipe.SMembers(ctx, CardLabelsKey(c.namespace, cardID))
		assigneeIDs = pipe.SMembers(ctx, CardAssigneesKey(c.namespace, cardID))
		comments = pipe.LRange(ctx, CardCommentsKey(c.namespace, cardID), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read card relations: %w", err)
	}

	for _, id := range labelIDs.Val() {
		card.Labels = append(card.Labels, Label{ID: id})
	}
	for _, id := range assigneeIDs.Val() {
		card.Assignees = append(card.Assignees, Member{UserID: id})
	}
	card.Comments, err = decodeComments(comments.Val())
	if err != nil {
		return nil, err
	}

	return card, nil
}

func (c *Client) readLabels(ctx context.Context, boardID string) ([]Label, error) {
	ids, err := c.rdb.SMembers(ctx, BoardLabelsKey(c.namespace, boardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board labels: %w", err)
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

func (c *Client) readMembers(ctx context.Context, boardID string) ([]Member, error) {
	roles, err := c.rdb.HGetAll(ctx, BoardMembersKey(c.namespace, boardID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read board members: %w", err)
	}

	members := make([]Member, 0, len(roles))
	for userID, role := range roles {
		m := Member{UserID: userID, Role: Role(role)}
		if u, err := c.GetUser(ctx, userID); err == nil {
			m.DisplayName = u.DisplayName
			m.Email = u.Email
		} else if !IsNotFound(err) {
			return nil, err
		}
		members = append(members, m)
	}

	sort.Slice(members, func(i, j int) bool { return members[i].UserID < members[j].UserID })
	return members, nil
}

// readActivities returns up to limit activities, newest first.
func (c *Client) readActivities(ctx context.Context, boardID string, limit int64) ([]Activity, error) {
	raw, err := c.rdb.LRange(ctx, BoardActivityKey(c.namespace, boardID), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity: %w", err)
	}

	activities := make([]Activity, 0, len(raw))
	for _, entry := range raw {
		var a Activity
		if err := json.Unmarshal([]byte(entry), &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, nil
}

// UpdateBoard applies a partial update to board metadata and returns the
// stored board.
func (c *Client) UpdateBoard(ctx context.Context, boardID string, patch BoardPatch) (*Board, error) {
	if err := Validate(patch); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if err := requireTitle("title", *patch.Title); err != nil {
			return nil, err
		}
	}

	b, err := c.authorizeWrite(ctx, boardID)
	if err != nil {
		return nil, err
	}

	patch.ApplyTo(b)
	b.UpdatedAt = c.now()

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, BoardKey(c.namespace, b.ID), BoardToHash(b))
		return c.recordActivity(ctx, pipe, b.ID, ActivityBoardUpdated, map[string]string{"title": b.Title})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}

	return b, nil
}

// DeleteBoard removes the board and everything it owns: lists, cards with
// their labels, assignees and comments, board labels, memberships and the
// activity feed. Only the creator may delete a board.
func (c *Client) DeleteBoard(ctx context.Context, boardID string) error {
	b, _, err := c.authorizeRead(ctx, boardID)
	if err != nil {
		return err
	}
	if b.CreatedBy != c.actor {
		return ErrForbidden
	}

	listIDs, err := c.rdb.ZRange(ctx, BoardListsKey(c.namespace, boardID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read board lists: %w", err)
	}
	labelIDs, err := c.rdb.SMembers(ctx, BoardLabelsKey(c.namespace, boardID)).Result()
	if err != nil {
		return fmt.Errorf("failed to read board labels: %w", err)
	}

	keys := []string{
		BoardKey(c.namespace, boardID),
		BoardListsKey(c.namespace, boardID),
		BoardLabelsKey(c.namespace, boardID),
		BoardMembersKey(c.namespace, boardID),
		BoardActivityKey(c.namespace, boardID),
	}
	for _, labelID := range labelIDs {
		keys = append(keys, LabelKey(c.namespace, labelID))
	}
	for _, listID := range listIDs {
		cardIDs, err := c.rdb.ZRange(ctx, ListCardsKey(c.namespace, listID), 0, -1).Result()
		if err != nil {
			return fmt.Errorf("failed to read list cards: %w", err)
		}
		keys = append(keys, ListKey(c.namespace, listID), ListCardsKey(c.namespace, listID))
		for _, cardID := range cardIDs {
			keys = append(keys, c.cardKeys(cardID)...)
		}
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, BoardsKey(c.namespace), boardID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}

// cardKeys returns every key owned by a card.
func (c *Client) cardKeys(cardID string) []string {
	return []string{
		CardKey(c.namespace, cardID),
		CardLabelsKey(c.namespace, cardID),
		CardAssigneesKey(c.namespace, cardID),
		CardCommentsKey(c.namespace, cardID),
	}
}
