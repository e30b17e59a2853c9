// Package engine applies user intents to a board snapshot optimistically.
//
// Every mutation follows the same path: validate, apply to the local snapshot
// and capture what is needed to undo it, release the snapshot while the store
// request is in flight, then either confirm (substituting store identities and
// values) or roll back the entities the mutation touched. Rollback is scoped
// to the smallest affected entity, except for reorders and moves which
// restore every list whose positions were rewritten.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/sirupsen/logrus"
)

// Remote is the store the engine confirms mutations against.
// *board.Client implements it.
type Remote interface {
	UpdateBoard(ctx context.Context, boardID string, patch board.BoardPatch) (*board.Board, error)

	CreateList(ctx context.Context, boardID, title string) (*board.List, error)
	UpdateList(ctx context.Context, boardID, listID string, patch board.ListPatch) (*board.List, error)
	DeleteList(ctx context.Context, boardID, listID string) error
	SetListsOrder(ctx context.Context, boardID string, order []board.ListOrder) error

	CreateCard(ctx context.Context, boardID, listID, title string) (*board.Card, error)
	UpdateCard(ctx context.Context, boardID, cardID string, patch board.CardPatch) (*board.Card, error)
	DeleteCard(ctx context.Context, boardID, cardID string) error
	SetCards(ctx context.Context, boardID string, placements []board.CardPlacement) error

	DetailRemote

	Publish(ctx context.Context, boardID string, ev board.Event) error
}

// DetailRemote covers card details and board membership, which are applied
// after confirmation rather than optimistically.
type DetailRemote interface {
	Comments(ctx context.Context, boardID, cardID string) ([]board.Comment, error)
	AddComment(ctx context.Context, boardID, cardID, body string) (*board.Comment, error)

	CreateLabel(ctx context.Context, boardID, name, color string) (*board.Label, error)
	CardLabels(ctx context.Context, boardID, cardID string) ([]board.Label, error)
	AddCardLabel(ctx context.Context, boardID, cardID, labelID string) error
	RemoveCardLabel(ctx context.Context, boardID, cardID, labelID string) error

	CardAssignees(ctx context.Context, boardID, cardID string) ([]board.Member, error)
	AddCardAssignee(ctx context.Context, boardID, cardID, userID string) error
	RemoveCardAssignee(ctx context.Context, boardID, cardID, userID string) error

	Members(ctx context.Context, boardID string) ([]board.Member, error)
	InviteMember(ctx context.Context, boardID, email string, role board.Role) (*board.Member, error)
	RemoveMember(ctx context.Context, boardID, userID string) error
}

// Op names an engine operation in errors, logs and observer callbacks.
type Op string

const (
	OpUpdateBoard  Op = "update_board"
	OpCreateList   Op = "create_list"
	OpUpdateList   Op = "update_list"
	OpDeleteList   Op = "delete_list"
	OpReorderList  Op = "reorder_list"
	OpCreateCard   Op = "create_card"
	OpUpdateCard   Op = "update_card"
	OpDeleteCard   Op = "delete_card"
	OpArchiveCard  Op = "archive_card"
	OpReorderCard  Op = "reorder_card"
	OpMoveCard     Op = "move_card"
	OpAddComment   Op = "add_comment"
	OpCreateLabel  Op = "create_label"
	OpCardLabel    Op = "card_label"
	OpCardAssignee Op = "card_assignee"
	OpMembers      Op = "members"
	OpRefreshCard  Op = "refresh_card"
)

// Phase is a step of a mutation's lifecycle.
type Phase string

const (
	PhaseApplying       Phase = "applying"
	PhaseAwaitingRemote Phase = "awaiting_remote"
	PhaseConfirmed      Phase = "confirmed"
	PhaseRolledBack     Phase = "rolled_back"
)

// Observer is told about every phase change. It is called without the
// snapshot lock held and must not block.
type Observer func(op Op, phase Phase)

// Engine owns a board snapshot and mutates it on behalf of the user.
// All methods are safe for concurrent use.
type Engine struct {
	mu      sync.Mutex
	snap    *snapshot.Snapshot
	boardID string

	remote   Remote
	origin   string
	log      logrus.FieldLogger
	observer Observer
	timeout  time.Duration
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithObserver registers a phase observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithOrigin tags broadcast events so the session can recognise its own echoes.
func WithOrigin(origin string) Option {
	return func(e *Engine) { e.origin = origin }
}

// WithRequestTimeout bounds every store request. Zero means no bound.
func WithRequestTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithClock overrides the time source used for local timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over snap, which it takes ownership of.
func New(remote Remote, snap *snapshot.Snapshot, opts ...Option) *Engine {
	e := &Engine{
		snap:    snap,
		boardID: snap.Board.ID,
		remote:  remote,
		log:     logrus.StandardLogger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("board", e.boardID)
	return e
}

// BoardID returns the ID of the board the engine edits.
func (e *Engine) BoardID() string {
	return e.boardID
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() *snapshot.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Clone()
}

// Replace swaps in a freshly loaded snapshot of the same board, keeping the
// current selection.
func (e *Engine) Replace(snap *snapshot.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap.Selection = e.snap.Selection
	e.snap = snap
}

// Merge runs apply against the live snapshot under the engine lock. It is
// the only way for code outside the engine to write the snapshot.
func (e *Engine) Merge(apply func(s *snapshot.Snapshot) bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return apply(e.snap)
}

// Select sets the currently open list and card.
func (e *Engine) Select(sel snapshot.Selection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap.Selection = sel
}

// Selection returns the currently open list and card.
func (e *Engine) Selection() snapshot.Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Selection
}

func (e *Engine) notify(op Op, phase Phase) {
	if e.observer != nil {
		e.observer(op, phase)
	}
}

// requestCtx derives the context of one store request.
func (e *Engine) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

// notFound logs and returns a NotFoundError.
func (e *Engine) notFound(op Op, kind, id string) error {
	e.log.WithFields(logrus.Fields{"op": op, kind: id}).Debug("Target not in snapshot, ignoring")
	return &NotFoundError{Kind: kind, ID: id}
}

// pending logs and returns ErrPendingIdentity.
func (e *Engine) pending(op Op, id string) error {
	e.log.WithFields(logrus.Fields{"op": op, "id": id}).Debug("Target awaits store confirmation, ignoring")
	return ErrPendingIdentity
}

// rolledBack logs the failure and wraps it for the caller.
func (e *Engine) rolledBack(op Op, err error, fields logrus.Fields) error {
	e.log.WithFields(fields).WithField("op", op).WithError(err).Warn("Store request failed, local change rolled back")
	e.notify(op, PhaseRolledBack)
	return &RemoteRequestError{Op: op, Err: err}
}

// broadcast publishes a live update. Failures are logged and never
// surfaced: the mutation itself has already been confirmed.
func (e *Engine) broadcast(ctx context.Context, ev board.Event) {
	ev.Origin = e.origin

	reqCtx, cancel := e.requestCtx(context.WithoutCancel(ctx))
	defer cancel()

	if err := e.remote.Publish(reqCtx, e.boardID, ev); err != nil {
		e.log.WithField("event", ev.Type).WithError(err).Error("Failed to broadcast live update")
	}
}
