// Package resolver turns the short references users type on the command
// line (ID prefixes or exact titles) into full identities.
package resolver

import (
	"context"
	"fmt"
	"strings"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
)

// MinShortIDLength is the minimum required length for short ID prefixes.
// Set to 6 characters to balance usability with collision avoidance.
const MinShortIDLength = 6

// candidate is one resolvable entity: its ID and its human title.
type candidate struct {
	id    string
	title string
}

// BoardLister is the part of the store the board resolver needs.
type BoardLister interface {
	ListBoards(ctx context.Context) ([]board.Board, error)
}

// ResolveBoard resolves a board reference against the boards the caller can see.
func ResolveBoard(ctx context.Context, store BoardLister, ref string) (string, error) {
	boards, err := store.ListBoards(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list boards: %w", err)
	}
	cands := make([]candidate, len(boards))
	for i, b := range boards {
		cands[i] = candidate{id: b.ID, title: b.Title}
	}
	return resolve("board", ref, cands)
}

// ResolveList resolves a list reference within a loaded board.
func ResolveList(s *snapshot.Snapshot, ref string) (string, error) {
	cands := make([]candidate, len(s.Lists))
	for i, l := range s.Lists {
		cands[i] = candidate{id: l.ID, title: l.Title}
	}
	return resolve("list", ref, cands)
}

// ResolveCard resolves a card reference within a loaded board.
func ResolveCard(s *snapshot.Snapshot, ref string) (string, error) {
	cands := make([]candidate, 0, s.CardCount())
	for _, l := range s.Lists {
		for _, c := range l.Cards {
			cands = append(cands, candidate{id: c.ID, title: c.Title})
		}
	}
	return resolve("card", ref, cands)
}

// ResolveLabel resolves a label reference by ID prefix or exact name.
func ResolveLabel(s *snapshot.Snapshot, ref string) (string, error) {
	cands := make([]candidate, len(s.Labels))
	for i, l := range s.Labels {
		cands[i] = candidate{id: l.ID, title: l.Name}
	}
	return resolve("label", ref, cands)
}

// ResolveMember resolves a member reference by user ID prefix, email or
// display name.
func ResolveMember(s *snapshot.Snapshot, ref string) (string, error) {
	cands := make([]candidate, 0, len(s.Members)*2)
	for _, m := range s.Members {
		cands = append(cands, candidate{id: m.UserID, title: m.Email})
		if m.DisplayName != "" {
			cands = append(cands, candidate{id: m.UserID, title: m.DisplayName})
		}
	}
	return resolve("member", ref, cands)
}

// resolve applies the lookup order shared by every entity kind:
//  1. an exact ID always wins
//  2. a case-insensitive exact title match
//  3. an ID prefix of at least MinShortIDLength characters
func resolve(kind, ref string, cands []candidate) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s reference is empty", kind)
	}

	for _, c := range cands {
		if c.id == ref {
			return c.id, nil
		}
	}

	if ids := unique(cands, func(c candidate) bool { return strings.EqualFold(c.title, ref) }); len(ids) > 0 {
		if len(ids) > 1 {
			return "", &AmbiguousError{Kind: kind, ShortID: ref, Matches: ids}
		}
		return ids[0], nil
	}

	if len(ref) < MinShortIDLength {
		return "", &NotFoundError{Kind: kind, ShortID: ref}
	}

	ids := unique(cands, func(c candidate) bool { return strings.HasPrefix(c.id, ref) })
	switch len(ids) {
	case 0:
		return "", &NotFoundError{Kind: kind, ShortID: ref}
	case 1:
		return ids[0], nil
	default:
		return "", &AmbiguousError{Kind: kind, ShortID: ref, Matches: ids}
	}
}

func unique(cands []candidate, match func(candidate) bool) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range cands {
		if match(c) && !seen[c.id] {
			seen[c.id] = true
			ids = append(ids, c.id)
		}
	}
	return ids
}

// NotFoundError indicates nothing matched the reference.
type NotFoundError struct {
	Kind    string
	ShortID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %ss found matching '%s'", e.Kind, e.ShortID)
}

// AmbiguousError indicates several entities matched the reference.
type AmbiguousError struct {
	Kind    string
	ShortID string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous reference '%s' matches %d %ss", e.ShortID, len(e.Matches), e.Kind)
}

// FormatAmbiguousError creates a user-friendly error message for ambiguous references.
// Lists all matching IDs (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "ambiguous reference '%s' matches %d %ss:\n", err.ShortID, len(err.Matches), err.Kind)

	displayCount := min(len(err.Matches), 10)
	for i := 0; i < displayCount; i++ {
		fmt.Fprintf(&sb, "  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		fmt.Fprintf(&sb, "  ...and %d more\n", len(err.Matches)-10)
	}

	fmt.Fprintf(&sb, "\nUse a longer prefix or the full ID to pick one %s.", err.Kind)
	return sb.String()
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// IsAmbiguousError checks if an error is an AmbiguousError.
func IsAmbiguousError(err error) bool {
	_, ok := err.(*AmbiguousError)
	return ok
}
