package board

import (
	"fmt"
	"strconv"
	"time"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis hashes are flat string maps. Timestamps are stored as Unix
// milliseconds, booleans as "0"/"1" and an absent due date as "".
// Relations (cards of a list, labels of a card, ...) live in their own keys
// and are never embedded in a hash.

// BoardToHash converts a Board to its Redis hash form.
func BoardToHash(b *Board) map[string]interface{} {
	return map[string]interface{}{
		"id":               b.ID,
		"title":            b.Title,
		"visibility":       string(b.Visibility),
		"workspace_id":     b.WorkspaceID,
		"created_by":       b.CreatedBy,
		"background_color": b.BackgroundColor,
		"created_at_ms":    b.CreatedAt.UnixMilli(),
		"updated_at_ms":    b.UpdatedAt.UnixMilli(),
	}
}

// HashToBoard converts a Redis hash back to a Board.
func HashToBoard(hash map[string]string) (*Board, error) {
	createdAt, err := parseMillis(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseMillis(hash, "updated_at_ms")
	if err != nil {
		return nil, err
	}

	return &Board{
		ID:              hash["id"],
		Title:           hash["title"],
		Visibility:      Visibility(hash["visibility"]),
		WorkspaceID:     hash["workspace_id"],
		CreatedBy:       hash["created_by"],
		BackgroundColor: hash["background_color"],
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// ListToHash converts a List to its Redis hash form. Cards are not stored.
func ListToHash(l *List) map[string]interface{} {
	return map[string]interface{}{
		"id":            l.ID,
		"board_id":      l.BoardID,
		"title":         l.Title,
		"position":      l.Position,
		"created_at_ms": l.CreatedAt.UnixMilli(),
		"updated_at_ms": l.UpdatedAt.UnixMilli(),
	}
}

// HashToList converts a Redis hash back to a List with an empty card slice.
func HashToList(hash map[string]string) (*List, error) {
	position, err := strconv.Atoi(hash["position"])
	if err != nil {
		return nil, fmt.Errorf("invalid position field: %w", err)
	}
	createdAt, err := parseMillis(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseMillis(hash, "updated_at_ms")
	if err != nil {
		return nil, err
	}

	return &List{
		ID:        hash["id"],
		BoardID:   hash["board_id"],
		Title:     hash["title"],
		Position:  position,
		Cards:     []Card{},
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// CardToHash converts a Card to its Redis hash form. Labels, assignees and
// comments are stored under their own keys.
func CardToHash(c *Card) map[string]interface{} {
	dueDate := ""
	if c.DueDate != nil {
		dueDate = *c.DueDate
	}
	archived := "0"
	if c.Archived {
		archived = "1"
	}

	return map[string]interface{}{
		"id":            c.ID,
		"list_id":       c.ListID,
		"board_id":      c.BoardID,
		"title":         c.Title,
		"description":   c.Description,
		"due_date":      dueDate,
		"position":      c.Position,
		"archived":      archived,
		"created_by":    c.CreatedBy,
		"created_at_ms": c.CreatedAt.UnixMilli(),
		"updated_at_ms": c.UpdatedAt.UnixMilli(),
	}
}

// HashToCard converts a Redis hash back to a Card with empty relations.
func HashToCard(hash map[string]string) (*Card, error) {
	position, err := strconv.Atoi(hash["position"])
	if err != nil {
		return nil, fmt.Errorf("invalid position field: %w", err)
	}
	createdAt, err := parseMillis(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseMillis(hash, "updated_at_ms")
	if err != nil {
		return nil, err
	}

	var dueDate *string
	if d := hash["due_date"]; d != "" {
		dueDate = &d
	}

	return &Card{
		ID:          hash["id"],
		ListID:      hash["list_id"],
		BoardID:     hash["board_id"],
		Title:       hash["title"],
		Description: hash["description"],
		DueDate:     dueDate,
		Position:    position,
		Archived:    hash["archived"] == "1",
		Labels:      []Label{},
		Assignees:   []Member{},
		Comments:    []Comment{},
		CreatedBy:   hash["created_by"],
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// LabelToHash converts a Label to its Redis hash form.
func LabelToHash(l *Label) map[string]interface{} {
	return map[string]interface{}{
		"id":       l.ID,
		"board_id": l.BoardID,
		"name":     l.Name,
		"color":    l.Color,
	}
}

// HashToLabel converts a Redis hash back to a Label.
func HashToLabel(hash map[string]string) *Label {
	return &Label{
		ID:      hash["id"],
		BoardID: hash["board_id"],
		Name:    hash["name"],
		Color:   hash["color"],
	}
}

// UserToHash converts a User to its Redis hash form.
func UserToHash(u *User) map[string]interface{} {
	return map[string]interface{}{
		"id":            u.ID,
		"email":         u.Email,
		"display_name":  u.DisplayName,
		"created_at_ms": u.CreatedAt.UnixMilli(),
	}
}

// HashToUser converts a Redis hash back to a User.
func HashToUser(hash map[string]string) (*User, error) {
	createdAt, err := parseMillis(hash, "created_at_ms")
	if err != nil {
		return nil, err
	}
	return &User{
		ID:          hash["id"],
		Email:       hash["email"],
		DisplayName: hash["display_name"],
		CreatedAt:   createdAt,
	}, nil
}

// parseMillis reads an optional Unix millisecond field. Missing fields yield
// the zero time.
func parseMillis(hash map[string]string, field string) (time.Time, error) {
	raw, ok := hash[field]
	if !ok || raw == "" {
		return time.Time{}, nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s field: %w", field, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
