package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var errStore = errors.New("store unavailable")

// fakeRemote records requests and can fail or hold any method by name
type fakeRemote struct {
	mu     sync.Mutex
	fail   map[string]error
	gates  map[string]chan struct{}
	calls  []string
	orders [][]board.ListOrder
	cards  [][]board.CardPlacement
	events []board.Event
	known  map[string]board.Card

	createdListPosition int
	createdCardPosition int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		fail:                map[string]error{},
		gates:               map[string]chan struct{}{},
		known:               map[string]board.Card{},
		createdListPosition: 9000,
		createdCardPosition: 7000,
	}
}

// failOn makes method return err
func (f *fakeRemote) failOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[method] = err
}

// hold makes method block until the returned function is called
func (f *fakeRemote) hold(method string) (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gates[method] = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (f *fakeRemote) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	gate := f.gates[method]
	err := f.fail[method]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeRemote) called(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *fakeRemote) lastCards() []board.CardPlacement {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cards) == 0 {
		return nil
	}
	return f.cards[len(f.cards)-1]
}

func (f *fakeRemote) publishedEvents() []board.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]board.Event(nil), f.events...)
}

func (f *fakeRemote) UpdateBoard(ctx context.Context, boardID string, patch board.BoardPatch) (*board.Board, error) {
	if err := f.enter(ctx, "UpdateBoard"); err != nil {
		return nil, err
	}
	b := board.Board{ID: boardID, Title: "Board", Visibility: board.VisibilityPrivate}
	patch.ApplyTo(&b)
	return &b, nil
}

func (f *fakeRemote) CreateList(ctx context.Context, boardID, title string) (*board.List, error) {
	if err := f.enter(ctx, "CreateList"); err != nil {
		return nil, err
	}
	return &board.List{ID: uuid.NewString(), BoardID: boardID, Title: title, Position: f.createdListPosition}, nil
}

func (f *fakeRemote) UpdateList(ctx context.Context, boardID, listID string, patch board.ListPatch) (*board.List, error) {
	if err := f.enter(ctx, "UpdateList"); err != nil {
		return nil, err
	}
	l := board.List{ID: listID, BoardID: boardID, Position: 123456, UpdatedAt: time.Unix(1700000000, 0).UTC()}
	patch.ApplyTo(&l)
	return &l, nil
}

func (f *fakeRemote) DeleteList(ctx context.Context, boardID, listID string) error {
	return f.enter(ctx, "DeleteList")
}

func (f *fakeRemote) SetListsOrder(ctx context.Context, boardID string, order []board.ListOrder) error {
	f.mu.Lock()
	f.orders = append(f.orders, append([]board.ListOrder(nil), order...))
	f.mu.Unlock()
	return f.enter(ctx, "SetListsOrder")
}

func (f *fakeRemote) CreateCard(ctx context.Context, boardID, listID, title string) (*board.Card, error) {
	if err := f.enter(ctx, "CreateCard"); err != nil {
		return nil, err
	}
	return &board.Card{ID: uuid.NewString(), BoardID: boardID, ListID: listID, Title: title, Position: f.createdCardPosition}, nil
}

func (f *fakeRemote) UpdateCard(ctx context.Context, boardID, cardID string, patch board.CardPatch) (*board.Card, error) {
	if err := f.enter(ctx, "UpdateCard"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	c, ok := f.known[cardID]
	f.mu.Unlock()
	if !ok {
		c = board.Card{ID: cardID, BoardID: boardID}
	}
	patch.ApplyTo(&c)
	return &c, nil
}

func (f *fakeRemote) DeleteCard(ctx context.Context, boardID, cardID string) error {
	return f.enter(ctx, "DeleteCard")
}

func (f *fakeRemote) SetCards(ctx context.Context, boardID string, placements []board.CardPlacement) error {
	f.mu.Lock()
	f.cards = append(f.cards, append([]board.CardPlacement(nil), placements...))
	f.mu.Unlock()
	return f.enter(ctx, "SetCards")
}

func (f *fakeRemote) Comments(ctx context.Context, boardID, cardID string) ([]board.Comment, error) {
	if err := f.enter(ctx, "Comments"); err != nil {
		return nil, err
	}
	return []board.Comment{{ID: "cm1", CardID: cardID, Body: "from store"}}, nil
}

func (f *fakeRemote) AddComment(ctx context.Context, boardID, cardID, body string) (*board.Comment, error) {
	if err := f.enter(ctx, "AddComment"); err != nil {
		return nil, err
	}
	return &board.Comment{ID: uuid.NewString(), CardID: cardID, Body: body}, nil
}

func (f *fakeRemote) CreateLabel(ctx context.Context, boardID, name, color string) (*board.Label, error) {
	if err := f.enter(ctx, "CreateLabel"); err != nil {
		return nil, err
	}
	return &board.Label{ID: uuid.NewString(), BoardID: boardID, Name: name, Color: color}, nil
}

func (f *fakeRemote) CardLabels(ctx context.Context, boardID, cardID string) ([]board.Label, error) {
	if err := f.enter(ctx, "CardLabels"); err != nil {
		return nil, err
	}
	return []board.Label{{ID: "bug", Name: "bug", Color: "#eb5a46"}}, nil
}

func (f *fakeRemote) AddCardLabel(ctx context.Context, boardID, cardID, labelID string) error {
	return f.enter(ctx, "AddCardLabel")
}

func (f *fakeRemote) RemoveCardLabel(ctx context.Context, boardID, cardID, labelID string) error {
	return f.enter(ctx, "RemoveCardLabel")
}

func (f *fakeRemote) CardAssignees(ctx context.Context, boardID, cardID string) ([]board.Member, error) {
	if err := f.enter(ctx, "CardAssignees"); err != nil {
		return nil, err
	}
	return []board.Member{{UserID: "u2", DisplayName: "Bob"}}, nil
}

func (f *fakeRemote) AddCardAssignee(ctx context.Context, boardID, cardID, userID string) error {
	return f.enter(ctx, "AddCardAssignee")
}

func (f *fakeRemote) RemoveCardAssignee(ctx context.Context, boardID, cardID, userID string) error {
	return f.enter(ctx, "RemoveCardAssignee")
}

func (f *fakeRemote) Members(ctx context.Context, boardID string) ([]board.Member, error) {
	if err := f.enter(ctx, "Members"); err != nil {
		return nil, err
	}
	return []board.Member{{UserID: "u1", Role: board.RoleOwner}}, nil
}

func (f *fakeRemote) InviteMember(ctx context.Context, boardID, email string, role board.Role) (*board.Member, error) {
	if err := f.enter(ctx, "InviteMember"); err != nil {
		return nil, err
	}
	return &board.Member{UserID: "u9", Email: email, Role: role}, nil
}

func (f *fakeRemote) RemoveMember(ctx context.Context, boardID, userID string) error {
	return f.enter(ctx, "RemoveMember")
}

func (f *fakeRemote) Publish(ctx context.Context, boardID string, ev board.Event) error {
	if err := f.enter(ctx, "Publish"); err != nil {
		return err
	}
	f.mu.Lock()
	f.events = append(f.events, ev)
	f.mu.Unlock()
	return nil
}

// fixtureSnapshot returns lists L1, L2, L3 where L1 holds c1, c2
func fixtureSnapshot() *snapshot.Snapshot {
	due := "2025-10-29"
	return &snapshot.Snapshot{
		Board: board.Board{ID: "b1", Title: "Board"},
		Lists: []board.List{
			{ID: "L1", BoardID: "b1", Title: "To do", Position: 1000, Cards: []board.Card{
				{ID: "c1", ListID: "L1", Title: "First", Description: "one", DueDate: &due, Position: 1000},
				{ID: "c2", ListID: "L1", Title: "Second", Description: "two", Position: 2000},
			}},
			{ID: "L2", BoardID: "b1", Title: "Doing", Position: 2000, Cards: []board.Card{}},
			{ID: "L3", BoardID: "b1", Title: "Done", Position: 3000, Cards: []board.Card{}},
		},
		Labels:  []board.Label{{ID: "bug", Name: "bug", Color: "#eb5a46"}},
		Members: []board.Member{{UserID: "u1", DisplayName: "Alice", Role: board.RoleOwner}},
		Role:    board.RoleOwner,
	}
}

// newTestEngine builds an engine over the fixture with a silent logger
func newTestEngine(opts ...Option) (*Engine, *fakeRemote, *test.Hook) {
	remote := newFakeRemote()
	snap := fixtureSnapshot()
	for _, l := range snap.Lists {
		for _, c := range l.Cards {
			remote.known[c.ID] = c
		}
	}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	opts = append([]Option{WithLogger(logger), WithOrigin("session-1")}, opts...)
	return New(remote, snap, opts...), remote, hook
}

func listIDs(s *snapshot.Snapshot) []string {
	ids := make([]string, len(s.Lists))
	for i, l := range s.Lists {
		ids[i] = l.ID
	}
	return ids
}

func cardIDs(l *board.List) []string {
	ids := make([]string, len(l.Cards))
	for i, c := range l.Cards {
		ids[i] = c.ID
	}
	return ids
}

func positionsOf(l *board.List) []int {
	out := make([]int, len(l.Cards))
	for i, c := range l.Cards {
		out[i] = c.Position
	}
	return out
}

// waitFor polls cond until it holds or a second passes
func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}
