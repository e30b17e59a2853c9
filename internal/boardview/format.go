// Package boardview renders boards, cards and activity for the terminal
// and for line-delimited JSON consumers.
package boardview

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
)

// FormatBoard writes every list of s as a card table.
// Returns the number of cards formatted.
func FormatBoard(w io.Writer, s *snapshot.Snapshot) int {
	fmt.Fprintf(w, "Board '%s' (%s, %s)\n", s.Board.Title, formatID(s.Board.ID), s.Role)

	if len(s.Lists) == 0 {
		fmt.Fprintf(w, "\nNo lists yet\n")
		return 0
	}

	total := 0
	for _, l := range s.Lists {
		fmt.Fprintf(w, "\n%s  %s (%d)\n", formatID(l.ID), l.Title, len(l.Cards))
		if len(l.Cards) == 0 {
			fmt.Fprintf(w, "  (empty)\n")
			continue
		}

		fmt.Fprintf(w, "  %-10s %-10s %-16s %-16s %s\n", "ID", "DUE", "LABELS", "ASSIGNEES", "TITLE")
		for _, c := range l.Cards {
			fmt.Fprintf(w, "  %-10s %-10s %-16s %-16s %s\n",
				formatID(c.ID),
				formatDue(c.DueDate),
				truncate(labelNames(c.Labels), 16),
				truncate(assigneeNames(c.Assignees), 16),
				truncate(c.Title, 50),
			)
		}
		total += len(l.Cards)
	}

	fmt.Fprintf(w, "\n%d %s across %d %s\n", total, plural(total, "card"), len(s.Lists), plural(len(s.Lists), "list"))
	return total
}

// FormatBoards writes the boards the caller can see as a table.
func FormatBoards(w io.Writer, boards []board.Board, now time.Time) int {
	if len(boards) == 0 {
		fmt.Fprintf(w, "No boards found\n")
		return 0
	}

	fmt.Fprintf(w, "%-10s %-10s %-8s %s\n", "ID", "VISIBILITY", "UPDATED", "TITLE")
	fmt.Fprintf(w, "%-10s %-10s %-8s %s\n", "----------", "----------", "--------", "----------------------------------------")
	for _, b := range boards {
		fmt.Fprintf(w, "%-10s %-10s %-8s %s\n",
			formatID(b.ID),
			b.Visibility,
			formatAge(b.UpdatedAt, now),
			truncate(b.Title, 60),
		)
	}

	fmt.Fprintf(w, "\n%d %s found\n", len(boards), plural(len(boards), "board"))
	return len(boards)
}

// FormatMembers writes a board's members as a table.
func FormatMembers(w io.Writer, members []board.Member) {
	fmt.Fprintf(w, "%-10s %-8s %-24s %s\n", "USER", "ROLE", "NAME", "EMAIL")
	for _, m := range members {
		fmt.Fprintf(w, "%-10s %-8s %-24s %s\n", formatID(m.UserID), m.Role, truncate(m.DisplayName, 24), m.Email)
	}
}

// FormatActivity writes activity entries newest first, one per line.
func FormatActivity(w io.Writer, activities []board.Activity, now time.Time) {
	if len(activities) == 0 {
		fmt.Fprintf(w, "No activity yet\n")
		return
	}
	for _, a := range activities {
		fmt.Fprintf(w, "%-8s %-22s %s\n", formatAge(a.CreatedAt, now), a.Type, formatData(a.Data))
	}
}

// FormatCardsJSONL writes every card of lists as line-delimited JSON.
// This format is ideal for streaming and processing with tools like jq.
func FormatCardsJSONL(w io.Writer, lists []board.List) error {
	for _, l := range lists {
		for _, c := range l.Cards {
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("failed to marshal card to JSON: %w", err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
				return fmt.Errorf("failed to write JSONL output: %w", err)
			}
		}
	}
	return nil
}

// FormatJSON writes v as pretty-printed JSON followed by a newline.
func FormatJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

// FormatCard writes a human readable card detail view.
func FormatCard(w io.Writer, c *board.Card, now time.Time) {
	fmt.Fprintf(w, "%s  %s\n", c.ID, c.Title)
	fmt.Fprintf(w, "  list:      %s\n", formatID(c.ListID))
	fmt.Fprintf(w, "  due:       %s\n", formatDue(c.DueDate))
	fmt.Fprintf(w, "  labels:    %s\n", orDash(labelNames(c.Labels)))
	fmt.Fprintf(w, "  assignees: %s\n", orDash(assigneeNames(c.Assignees)))
	if c.Archived {
		fmt.Fprintf(w, "  archived\n")
	}
	if strings.TrimSpace(c.Description) != "" {
		fmt.Fprintf(w, "\n%s\n", strings.TrimRight(c.Description, "\n"))
	}
	if len(c.Comments) > 0 {
		fmt.Fprintf(w, "\nComments:\n")
		for _, cm := range c.Comments {
			fmt.Fprintf(w, "  [%s] %s: %s\n", formatAge(cm.CreatedAt, now), orDash(cm.Author), firstLine(cm.Body))
		}
	}
}

// formatID truncates an ID to its first 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDue(due *string) string {
	if due == nil || *due == "" {
		return "-"
	}
	return *due
}

func labelNames(labels []board.Label) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return strings.Join(names, ",")
}

func assigneeNames(members []board.Member) string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.DisplayName
		if names[i] == "" {
			names[i] = m.Email
		}
	}
	return strings.Join(names, ",")
}

// formatData renders activity data as sorted key=value pairs.
func formatData(data map[string]string) string {
	if len(data) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, truncate(data[k], 40))
	}
	return strings.Join(parts, " ")
}

// truncate shortens s to limit runes with an ellipsis. Empty values return "-".
func truncate(s string, limit int) string {
	s = firstLine(s)
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) > limit {
		return string(r[:limit-3]) + "..."
	}
	return s
}

// firstLine returns the first non-empty trimmed line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// formatAge formats t relative to now: "2m ago", "1h ago", etc.
func formatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", max(int(diff.Seconds()), 0))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
