// Package loader fetches a board aggregate from the store and turns it into
// the snapshot a session edits. Only the most recent load is ever applied:
// starting a new load cancels the one in flight.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/sirupsen/logrus"
)

// DefaultActivityLimit is how many recent activity entries a snapshot keeps.
const DefaultActivityLimit = 20

// Status classifies a load failure the user can act on.
type Status string

const (
	StatusUnauthenticated Status = "unauthenticated"
	StatusAccessDenied    Status = "access-denied"
	StatusNotFound        Status = "not-found"
)

// LoadError is returned when the store refuses or cannot find the board.
type LoadError struct {
	Status  Status
	BoardID string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load board %s: %s", e.BoardID, e.Status)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Remote is the store read the loader needs. *board.Client implements it.
type Remote interface {
	GetBoard(ctx context.Context, boardID string) (*board.Aggregate, error)
}

// Loader loads boards on behalf of one caller.
type Loader struct {
	remote        Remote
	callerID      string
	activityLimit int
	log           logrus.FieldLogger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithActivityLimit caps the activity entries kept in a snapshot.
// Non-positive values are ignored.
func WithActivityLimit(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.activityLimit = n
		}
	}
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loader) { l.log = log }
}

// New creates a loader reading through remote for callerID, whose role on
// each board is derived from the loaded membership.
func New(remote Remote, callerID string, opts ...Option) *Loader {
	l := &Loader{
		remote:        remote,
		callerID:      callerID,
		activityLimit: DefaultActivityLimit,
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches boardID and builds a snapshot from it. Any load still in
// flight is cancelled first; a load that is superseded while waiting on the
// store returns context.Canceled and its result is dropped.
func (l *Loader) Load(ctx context.Context, boardID string) (*snapshot.Snapshot, error) {
	loadCtx, seq := l.begin(ctx)
	defer l.finish(seq)

	agg, err := l.remote.GetBoard(loadCtx, boardID)
	if !l.current(seq) {
		l.log.WithField("board", boardID).Debug("Discarding superseded board load")
		return nil, context.Canceled
	}
	if err != nil {
		return nil, classify(boardID, err)
	}

	return build(agg, l.callerID, l.activityLimit), nil
}

// Close cancels the load in flight, if any.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loader) begin(ctx context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	l.seq++
	l.cancel = cancel
	return loadCtx, l.seq
}

func (l *Loader) finish(seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq == seq && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loader) current(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq == seq
}

// classify maps store errors onto load statuses.
func classify(boardID string, err error) error {
	var status Status
	switch {
	case errors.Is(err, board.ErrUnauthenticated):
		status = StatusUnauthenticated
	case errors.Is(err, board.ErrAccessDenied):
		status = StatusAccessDenied
	case board.IsNotFound(err):
		status = StatusNotFound
	default:
		return fmt.Errorf("failed to load board %s: %w", boardID, err)
	}
	return &LoadError{Status: status, BoardID: boardID, Err: err}
}

// build turns an aggregate into a snapshot: lists and their visible cards
// ordered by position, recent activity capped at limit.
func build(agg *board.Aggregate, callerID string, limit int) *snapshot.Snapshot {
	s := &snapshot.Snapshot{
		Board:   agg.Board,
		Lists:   make([]board.List, 0, len(agg.Lists)),
		Labels:  append([]board.Label{}, agg.Labels...),
		Members: append([]board.Member{}, agg.Members...),
		Role:    RoleOf(agg, callerID),
	}

	for _, l := range agg.Lists {
		cards := make([]board.Card, 0, len(l.Cards))
		for _, c := range l.Cards {
			if c.Archived {
				continue
			}
			c = snapshot.CloneCard(c)
			if c.Labels == nil {
				c.Labels = []board.Label{}
			}
			if c.Assignees == nil {
				c.Assignees = []board.Member{}
			}
			if c.Comments == nil {
				c.Comments = []board.Comment{}
			}
			cards = append(cards, c)
		}
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].Position < cards[j].Position })
		l.Cards = cards
		s.Lists = append(s.Lists, l)
	}
	sort.SliceStable(s.Lists, func(i, j int) bool { return s.Lists[i].Position < s.Lists[j].Position })

	activities := agg.Activities
	if len(activities) > limit {
		activities = activities[:limit]
	}
	s.Activities = append([]board.Activity{}, activities...)
	return s
}

// RoleOf derives the caller's effective role: their membership role, else
// owner if they created the board, else viewer.
func RoleOf(agg *board.Aggregate, callerID string) board.Role {
	for _, m := range agg.Members {
		if m.UserID == callerID {
			return m.Role
		}
	}
	if agg.Board.CreatedBy == callerID {
		return board.RoleOwner
	}
	return board.RoleViewer
}
