package timespec

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date form cards store due dates in
const DateLayout = "2006-01-02"

// ParseDueDate parses a due date specification into a calendar date
// (YYYY-MM-DD). Supports three formats:
//   - Calendar dates: "2025-10-29"
//   - RFC3339 timestamps: "2025-10-29T13:00:00Z" (the UTC date is kept)
//   - Go duration format: "72h", "36h30m"
//
// Duration specifications are relative to now and point forward: "48h"
// means "two days from now".
func ParseDueDate(spec string, now time.Time) (string, error) {
	if spec == "" {
		return "", fmt.Errorf("empty due date")
	}

	if t, err := time.Parse(DateLayout, spec); err == nil {
		return t.Format(DateLayout), nil
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t.UTC().Format(DateLayout), nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return now.Add(d).UTC().Format(DateLayout), nil
	}

	return "", fmt.Errorf("invalid due date: %s (use a date like '2025-10-29', RFC3339 like '2025-10-29T13:00:00Z' or a duration like '72h')", spec)
}

// ParseDueWindow parses both --due-after and --due-before flags into an
// inclusive date window. Empty values leave that end open.
//
// Validates that after <= before if both are specified.
func ParseDueWindow(after, before string, now time.Time) (string, string, error) {
	var from, to string
	var err error

	if after != "" {
		from, err = ParseDueDate(after, now)
		if err != nil {
			return "", "", fmt.Errorf("invalid --due-after: %w", err)
		}
	}

	if before != "" {
		to, err = ParseDueDate(before, now)
		if err != nil {
			return "", "", fmt.Errorf("invalid --due-before: %w", err)
		}
	}

	// Dates in this layout compare correctly as strings
	if from != "" && to != "" && from > to {
		return "", "", fmt.Errorf("--due-after must not be later than --due-before")
	}

	return from, to, nil
}
