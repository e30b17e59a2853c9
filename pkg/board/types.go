package board

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Visibility controls who besides members may read a board.
type Visibility string

const (
	// VisibilityPrivate restricts reads to the creator and members
	VisibilityPrivate Visibility = "private"

	// VisibilityWorkspace lets any known user of the namespace read the board
	VisibilityWorkspace Visibility = "workspace"
)

// Role is a member's effective permission level on a board.
type Role string

const (
	// RoleOwner can do everything, including inviting and removing members
	RoleOwner Role = "owner"

	// RoleEditor can change lists, cards and board metadata
	RoleEditor Role = "editor"

	// RoleViewer can only read
	RoleViewer Role = "viewer"
)

// CanWrite reports whether the role may mutate lists, cards or the board.
func (r Role) CanWrite() bool {
	return r == RoleOwner || r == RoleEditor
}

// User is an account known to the store. Users are created out of band
// (signup is not handled here) and referenced by ID everywhere else.
type User struct {
	ID          string    `json:"id" validate:"required,uuid"`
	Email       string    `json:"email" validate:"required,email"`
	DisplayName string    `json:"display_name" validate:"required,max=100"`
	CreatedAt   time.Time `json:"created_at"`
}

// Board is the top-level container of lists.
type Board struct {
	ID              string     `json:"id" validate:"required,uuid"`
	Title           string     `json:"title" validate:"required,max=200"`
	Visibility      Visibility `json:"visibility" validate:"oneof=private workspace"`
	WorkspaceID     string     `json:"workspace_id,omitempty"`
	CreatedBy       string     `json:"created_by" validate:"required,uuid"`
	BackgroundColor string     `json:"background_color,omitempty" validate:"omitempty,hexcolor"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// List is an ordered column of cards. Cards is only populated by aggregate
// reads; list hashes never embed their cards.
type List struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Cards     []Card    `json:"cards"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Card is a unit of work. A card belongs to exactly one list at a time.
// DueDate is a calendar date in YYYY-MM-DD form with no timezone.
type Card struct {
	ID          string    `json:"id"`
	ListID      string    `json:"list_id"`
	BoardID     string    `json:"board_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     *string   `json:"due_date"`
	Position    int       `json:"position"`
	Archived    bool      `json:"archived"`
	Labels      []Label   `json:"labels"`
	Assignees   []Member  `json:"assignees"`
	Comments    []Comment `json:"comments"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Label is a board-scoped tag that can be attached to many cards.
type Label struct {
	ID      string `json:"id"`
	BoardID string `json:"board_id"`
	Name    string `json:"name" validate:"required,max=50"`
	Color   string `json:"color" validate:"required,hexcolor"`
}

// Comment is an append-only note on a card.
type Comment struct {
	ID        string    `json:"id"`
	CardID    string    `json:"card_id"`
	AuthorID  string    `json:"author_id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a user's membership of a board, denormalized with the user's
// display fields so that readers need no second lookup.
type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
}

// Activity is one entry of a board's audit feed.
type Activity struct {
	ID        string            `json:"id"`
	BoardID   string            `json:"board_id"`
	ActorID   string            `json:"actor_id"`
	Type      string            `json:"type"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Activity types written by the store.
const (
	ActivityBoardCreated     = "board.created"
	ActivityBoardUpdated     = "board.updated"
	ActivityListCreated      = "list.created"
	ActivityListUpdated      = "list.updated"
	ActivityListDeleted      = "list.deleted"
	ActivityListsReordered   = "lists.reordered"
	ActivityCardCreated      = "card.created"
	ActivityCardUpdated      = "card.updated"
	ActivityCardDeleted      = "card.deleted"
	ActivityCardMoved        = "card.moved"
	ActivityCardsReordered   = "cards.reordered"
	ActivityCommentCreated   = "comment.created"
	ActivityLabelCreated     = "label.created"
	ActivityCardLabelAdded   = "card.label_added"
	ActivityCardLabelRemoved = "card.label_removed"
	ActivityAssigneeAdded    = "card.assignee_added"
	ActivityAssigneeRemoved  = "card.assignee_removed"
	ActivityMemberInvited    = "member.invited"
	ActivityMemberRemoved    = "member.removed"
)

// Aggregate is the coherent read of a whole board returned by GetBoard.
// Lists come back sorted by position and carry every card, archived ones
// included; Activities are newest first.
type Aggregate struct {
	Board      Board      `json:"board"`
	Lists      []List     `json:"lists"`
	Labels     []Label    `json:"labels"`
	Members    []Member   `json:"members"`
	Activities []Activity `json:"activities"`
}

// BoardPatch is a partial update of board metadata. Nil fields are left alone.
type BoardPatch struct {
	Title           *string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Visibility      *Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=private workspace"`
	BackgroundColor *string     `json:"background_color,omitempty" validate:"omitempty,hexcolor"`
}

// ApplyTo copies the set fields onto b.
func (p BoardPatch) ApplyTo(b *Board) {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Visibility != nil {
		b.Visibility = *p.Visibility
	}
	if p.BackgroundColor != nil {
		b.BackgroundColor = *p.BackgroundColor
	}
}

// ListPatch is a partial update of a list. Position changes go through
// SetListsOrder instead.
type ListPatch struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=200"`
}

// ApplyTo copies the set fields onto l.
func (p ListPatch) ApplyTo(l *List) {
	if p.Title != nil {
		l.Title = strings.TrimSpace(*p.Title)
	}
}

// CardPatch is a partial update of a card. List assignment is deliberately
// absent: a card only changes list through SetCards.
//
// DueDate sets the due date; ClearDueDate removes it. Setting both is invalid.
type CardPatch struct {
	Title        *string `json:"title,omitempty" validate:"omitempty,max=500"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	DueDate      *string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ClearDueDate bool    `json:"clear_due_date,omitempty"`
	Archived     *bool   `json:"archived,omitempty"`
}

// ApplyTo copies the set fields onto c.
func (p CardPatch) ApplyTo(c *Card) {
	if p.Title != nil {
		c.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.ClearDueDate {
		c.DueDate = nil
	} else if p.DueDate != nil {
		d := *p.DueDate
		c.DueDate = &d
	}
	if p.Archived != nil {
		c.Archived = *p.Archived
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p CardPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && !p.ClearDueDate && p.Archived == nil
}

// ListOrder places one list at a position within its board.
type ListOrder struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}

// CardPlacement is one entry of a bulk card write. Moved and PreviousListID
// mark the card that changed list; they feed the activity log only and never
// influence where the card ends up.
type CardPlacement struct {
	ID             string  `json:"id"`
	ListID         string  `json:"list_id"`
	Position       int     `json:"position"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	DueDate        *string `json:"due_date"`
	Moved          bool    `json:"moved,omitempty"`
	PreviousListID string  `json:"previous_list_id,omitempty"`
}

// IsPermanentID reports whether id has the shape of a store-issued identity.
// Temporary client identities never satisfy it.
func IsPermanentID(id string) bool {
	return isValidUUID(id)
}

// newID issues a permanent identity.
func newID() string {
	return uuid.New().String()
}

func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
