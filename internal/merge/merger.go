// Package merge folds live updates from other sessions into a board
// snapshot. Payloads arrive undecoded from the board's pub/sub channel; each
// is decoded, checked, and applied under the owner's snapshot lock.
package merge

import (
	"context"
	"errors"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/sirupsen/logrus"
)

// Target owns the snapshot events are merged into. *engine.Engine
// implements it.
type Target interface {
	// Merge runs apply against the live snapshot under the owner's lock
	Merge(apply func(s *snapshot.Snapshot) bool) bool

	// RefreshCard refetches a card's dependent data from the store
	RefreshCard(ctx context.Context, cardID string) error
}

// Listener is told about every event that was applied.
type Listener func(ev board.Event, res Result)

// Merger applies live events to a Target.
type Merger struct {
	target   Target
	origin   string
	log      logrus.FieldLogger
	listener Listener
}

// Option configures a Merger.
type Option func(*Merger)

// WithOrigin sets the local session's origin tag. Events carrying it are
// this session's own echoes and are skipped.
func WithOrigin(origin string) Option {
	return func(m *Merger) { m.origin = origin }
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Merger) { m.log = log }
}

// WithListener registers a callback run after each applied event.
func WithListener(l Listener) Option {
	return func(m *Merger) { m.listener = l }
}

// New creates a merger for target.
func New(target Target, opts ...Option) *Merger {
	m := &Merger{
		target: target,
		log:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle decodes and applies one payload. Own echoes are skipped with a
// zero Result. A card refetch requested by the event is performed before
// Handle returns; its failure is logged, not returned.
func (m *Merger) Handle(ctx context.Context, payload []byte) (Result, error) {
	ev, err := Decode(payload)
	if err != nil {
		return Result{}, err
	}
	if m.origin != "" && ev.Origin == m.origin {
		m.log.WithField("event", ev.Type).Debug("Skipping own echo")
		return Result{}, nil
	}

	var res Result
	m.target.Merge(func(s *snapshot.Snapshot) bool {
		res = Apply(s, ev)
		return res.Changed
	})

	if res.RefreshCardID != "" {
		if err := m.target.RefreshCard(ctx, res.RefreshCardID); err != nil {
			m.log.WithFields(logrus.Fields{"event": ev.Type, "card": res.RefreshCardID}).WithError(err).Warn("Failed to refresh card after live update")
		}
	}
	if m.listener != nil && (res.Changed || res.RefreshCardID != "") {
		m.listener(ev, res)
	}
	return res, nil
}

// Run consumes payloads until the channel closes or ctx is done. Malformed
// payloads are logged and discarded.
func (m *Merger) Run(ctx context.Context, events <-chan []byte) error {
	m.log.Info("Merging live updates")
	for {
		select {
		case <-ctx.Done():
			m.log.Info("Stopped merging live updates")
			return nil

		case payload, ok := <-events:
			if !ok {
				m.log.Info("Live update channel closed")
				return nil
			}

			if _, err := m.Handle(ctx, payload); err != nil {
				var malformed *MalformedEventError
				if errors.As(err, &malformed) {
					m.log.WithError(err).Debug("Discarding malformed live update")
					continue
				}
				m.log.WithError(err).Error("Failed to merge live update")
			}
		}
	}
}
