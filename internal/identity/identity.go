// Package identity issues temporary identities for entities created locally
// and swaps them for store-issued identities once a create is confirmed.
//
// Temporary identities carry the "tmp-" prefix followed by a NanoID. The
// store issues UUIDs, which can never start with that prefix, so the two
// namespaces never collide.
package identity

import (
	"fmt"
	"strings"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// TemporaryPrefix marks identities that the store has not issued.
const TemporaryPrefix = "tmp-"

// NewTemporary generates a temporary identity.
// Format: tmp-nanoid (e.g., "tmp-V1StGXR8_Z5jdHi6B-myT")
func NewTemporary() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return TemporaryPrefix + id, nil
}

// MustNewTemporary is like NewTemporary but panics if the system has no
// entropy available.
func MustNewTemporary() string {
	id, err := NewTemporary()
	if err != nil {
		panic(fmt.Sprintf("failed to generate temporary ID: %v", err))
	}
	return id
}

// IsTemporary reports whether id was issued locally.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, TemporaryPrefix)
}

// SubstituteList replaces the list carrying tempID with the confirmed list.
// Identity, position and timestamps come from confirmed; the locally held
// cards are kept and re-pointed at the new identity, as is the selection.
// Returns false if the temporary list is no longer in the snapshot.
func SubstituteList(s *snapshot.Snapshot, tempID string, confirmed board.List) bool {
	l := s.List(tempID)
	if l == nil {
		return false
	}

	cards := l.Cards
	*l = confirmed
	l.Cards = cards
	if l.Cards == nil {
		l.Cards = []board.Card{}
	}
	for i := range l.Cards {
		l.Cards[i].ListID = confirmed.ID
	}

	if s.Selection.ListID == tempID {
		s.Selection.ListID = confirmed.ID
	}
	return true
}

// SubstituteCard replaces the card carrying tempID with the confirmed card,
// trusting the store for identity and position. The card's relations are
// kept when the store returned none, and the selection follows.
// Returns false if the temporary card is no longer in the snapshot.
func SubstituteCard(s *snapshot.Snapshot, tempID string, confirmed board.Card) bool {
	li, ci, ok := s.FindCard(tempID)
	if !ok {
		return false
	}

	prev := s.Lists[li].Cards[ci]
	next := snapshot.CloneCard(confirmed)
	next.ListID = s.Lists[li].ID
	if len(next.Labels) == 0 {
		next.Labels = prev.Labels
	}
	if len(next.Assignees) == 0 {
		next.Assignees = prev.Assignees
	}
	if len(next.Comments) == 0 {
		next.Comments = prev.Comments
	}
	s.Lists[li].Cards[ci] = next

	if s.Selection.CardID == tempID {
		s.Selection.CardID = confirmed.ID
	}
	return true
}
