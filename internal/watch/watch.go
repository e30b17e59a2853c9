// Package watch prints a board's live updates as they are merged.
package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dyluth/pinboard/internal/merge"
	"github.com/dyluth/pinboard/pkg/board"
)

// OutputFormat selects how events are rendered.
type OutputFormat string

const (
	// OutputFormatDefault prints one human readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL prints one JSON object per event
	OutputFormatJSONL OutputFormat = "jsonl"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, "":
		return OutputFormatDefault, nil
	case OutputFormatJSONL:
		return OutputFormatJSONL, nil
	}
	return "", fmt.Errorf("invalid output format '%s': must be 'default' or 'jsonl'", s)
}

// Printer renders merged events to a writer. It is safe for concurrent use.
type Printer struct {
	mu     sync.Mutex
	w      io.Writer
	format OutputFormat
	now    func() time.Time
	names  func(id string) string
}

// NewPrinter creates a printer writing to w in format.
func NewPrinter(w io.Writer, format OutputFormat) *Printer {
	return &Printer{w: w, format: format, now: time.Now}
}

// WithNames sets a lookup used to show list and card titles in place of IDs.
// The lookup returns "" for unknown IDs.
func (p *Printer) WithNames(names func(id string) string) *Printer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = names
	return p
}

// jsonLine is the JSONL record for one event.
type jsonLine struct {
	Time    time.Time   `json:"time"`
	Event   board.Event `json:"event"`
	Changed bool        `json:"changed"`
	Refresh string      `json:"refreshed_card_id,omitempty"`
}

// Listener returns the printer as a merge listener.
func (p *Printer) Listener() merge.Listener {
	return func(ev board.Event, res merge.Result) {
		p.Print(ev, res)
	}
}

// Print renders a single event.
func (p *Printer) Print(ev board.Event, res merge.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.format == OutputFormatJSONL {
		data, err := json.Marshal(jsonLine{Time: p.now().UTC(), Event: ev, Changed: res.Changed, Refresh: res.RefreshCardID})
		if err != nil {
			return
		}
		fmt.Fprintf(p.w, "%s\n", data)
		return
	}

	fmt.Fprintf(p.w, "[%s] %s\n", p.now().Format("15:04:05"), p.describe(ev))
}

// FormatEvent returns the human readable line for ev.
func (p *Printer) FormatEvent(ev board.Event) string {
	return p.describe(ev)
}

func (p *Printer) describe(ev board.Event) string {
	switch ev.Type {
	case board.EventListCreated:
		if ev.List != nil {
			return fmt.Sprintf("📋 List created: %s (%s)", ev.List.Title, short(ev.List.ID))
		}
	case board.EventListDeleted:
		return fmt.Sprintf("🗑️  List deleted: %s", p.name(ev.ListID))
	case board.EventListsReordered:
		return fmt.Sprintf("↔️  Lists reordered: %d lists", len(ev.ListOrder))
	case board.EventCardCreated:
		if ev.Card != nil {
			return fmt.Sprintf("📝 Card created: %s in %s", ev.Card.Title, p.name(ev.ListID))
		}
	case board.EventCardDeleted:
		return fmt.Sprintf("🗑️  Card deleted: %s", p.name(ev.CardID))
	case board.EventCardMoved:
		if len(ev.NewLists) > 0 {
			return fmt.Sprintf("🔀 Cards rearranged in %d lists", len(ev.NewLists))
		}
		title := p.name(ev.CardID)
		if ev.MovedCard != nil && ev.MovedCard.Title != "" {
			title = ev.MovedCard.Title
		}
		return fmt.Sprintf("🔀 Card moved: %s from %s to %s (index %d)", title, p.name(ev.FromListID), p.name(ev.ToListID), ev.NewPosition)
	case board.EventCardUpdated:
		if ev.CardID == "" {
			return "✏️  Card updated"
		}
		return fmt.Sprintf("✏️  Card updated: %s", p.name(ev.CardID))
	}
	return fmt.Sprintf("❔ %s", ev.Type)
}

func (p *Printer) name(id string) string {
	if p.names != nil {
		if n := p.names(id); n != "" {
			return n
		}
	}
	return short(id)
}

func short(id string) string {
	if id == "" {
		return "-"
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
