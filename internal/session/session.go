// Package session mounts one board for one user: it loads the board,
// hands the snapshot to a mutation engine, and merges live updates from
// other sessions into it until closed.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dyluth/pinboard/internal/engine"
	"github.com/dyluth/pinboard/internal/loader"
	"github.com/dyluth/pinboard/internal/merge"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Store is everything a session needs from the store. *board.Client
// implements it.
type Store interface {
	engine.Remote
	loader.Remote
	SubscribeBoardEvents(ctx context.Context, boardID string) (*board.Subscription, error)
}

var _ Store = (*board.Client)(nil)

// Options configures a session.
type Options struct {
	// CallerID is the acting user; their role is derived from it
	CallerID string

	// Origin tags this session's broadcasts. Generated when empty.
	Origin string

	// ActivityLimit caps the activity feed kept in the snapshot
	ActivityLimit int

	// RequestTimeout bounds each store request made by the engine
	RequestTimeout time.Duration

	Logger   logrus.FieldLogger
	Observer engine.Observer
	Listener merge.Listener
}

// Session is a mounted board.
type Session struct {
	boardID string
	origin  string
	store   Store
	loader  *loader.Loader
	engine  *engine.Engine
	sub     *board.Subscription
	log     logrus.FieldLogger

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// Open subscribes to boardID's live updates, loads the board and starts
// merging. The subscription is established before the load so that no
// update published in between is missed; replaying such an update against
// the fresh snapshot is harmless.
func Open(ctx context.Context, store Store, boardID string, opts Options) (*Session, error) {
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("board", boardID)

	origin := opts.Origin
	if origin == "" {
		origin = uuid.NewString()
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := store.SubscribeBoardEvents(runCtx, boardID)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to live updates: %w", err)
	}

	ld := loader.New(store, opts.CallerID, loader.WithActivityLimit(opts.ActivityLimit), loader.WithLogger(log))
	snap, err := ld.Load(ctx, boardID)
	if err != nil {
		sub.Close()
		cancel()
		return nil, err
	}

	engineOpts := []engine.Option{
		engine.WithLogger(log),
		engine.WithOrigin(origin),
		engine.WithRequestTimeout(opts.RequestTimeout),
	}
	if opts.Observer != nil {
		engineOpts = append(engineOpts, engine.WithObserver(opts.Observer))
	}
	eng := engine.New(store, snap, engineOpts...)

	mergeOpts := []merge.Option{merge.WithLogger(log), merge.WithOrigin(origin)}
	if opts.Listener != nil {
		mergeOpts = append(mergeOpts, merge.WithListener(opts.Listener))
	}
	merger := merge.New(eng, mergeOpts...)

	s := &Session{
		boardID: boardID,
		origin:  origin,
		store:   store,
		loader:  ld,
		engine:  eng,
		sub:     sub,
		log:     log,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		if err := merger.Run(runCtx, sub.Events()); err != nil {
			log.WithError(err).Error("Live update merging stopped")
		}
	}()

	log.WithField("origin", origin).Info("Board session opened")
	return s, nil
}

// Engine returns the session's mutation engine.
func (s *Session) Engine() *engine.Engine {
	return s.engine
}

// BoardID returns the mounted board's ID.
func (s *Session) BoardID() string {
	return s.boardID
}

// Origin returns the tag carried by this session's broadcasts.
func (s *Session) Origin() string {
	return s.origin
}

// Reload fetches the board again and replaces the engine's snapshot,
// keeping the selection. Mutations in flight confirm or roll back against
// the new snapshot.
func (s *Session) Reload(ctx context.Context) error {
	snap, err := s.loader.Load(ctx, s.boardID)
	if err != nil {
		return err
	}
	s.engine.Replace(snap)
	return nil
}

// Close stops merging, unsubscribes and cancels any load in flight.
// Safe to call multiple times.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.loader.Close()
		s.cancel()
		s.sub.Close()
		<-s.done
		s.log.Info("Board session closed")
	})
	return nil
}
