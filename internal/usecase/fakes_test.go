package usecase

import (
	"context"
	"errors"
	"sort"
	"sync"

	"habridge/internal/domain/models"
)

// fakeTradeStore is an in-memory TradeStore with controllable failures.
type fakeTradeStore struct {
	mu         sync.Mutex
	nextID     int64
	commands   map[int64]*models.TradeCommand
	failInsert bool
	failUpdate int // fail the next N UpdateStatus calls
}

func newFakeTradeStore() *fakeTradeStore {
	return &fakeTradeStore{commands: make(map[int64]*models.TradeCommand)}
}

func (f *fakeTradeStore) Insert(_ context.Context, cmd *models.TradeCommand) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsert {
		return 0, errors.New("store down")
	}
	f.nextID++
	cp := *cmd
	cp.ID = f.nextID
	f.commands[cp.ID] = &cp
	return cp.ID, nil
}

func (f *fakeTradeStore) ListPending(_ context.Context, newestFirst bool) ([]*models.TradeCommand, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TradeCommand
	for _, c := range f.commands {
		if c.Status == models.StatusPending {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeTradeStore) UpdateStatus(_ context.Context, id int64, status string, ticket int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failUpdate > 0 {
		f.failUpdate--
		return errors.New("store down")
	}
	c, ok := f.commands[id]
	if !ok {
		return errors.New("no such command")
	}
	c.Status = status
	if ticket != 0 {
		c.Ticket = ticket
	}
	return nil
}

func (f *fakeTradeStore) CancelPending(_ context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commands[id]
	if !ok || c.Status != models.StatusPending {
		return false, nil
	}
	c.Status = models.StatusCancelled
	return true, nil
}

func (f *fakeTradeStore) CancelAllPending(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.commands {
		if c.Status == models.StatusPending {
			c.Status = models.StatusCancelled
			n++
		}
	}
	return n, nil
}

func (f *fakeTradeStore) get(id int64) *models.TradeCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.commands[id]
	if !ok {
		return nil
	}
	cp := *c
	return &cp
}

// fakePositionStore mirrors the transactional replace semantics in memory.
type fakePositionStore struct {
	mu        sync.Mutex
	positions map[int64]*models.Position
	fail      bool
}

func newFakePositionStore() *fakePositionStore {
	return &fakePositionStore{positions: make(map[int64]*models.Position)}
}

func (f *fakePositionStore) ReplaceOpenSet(_ context.Context, snapshot []*models.Position) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	for _, p := range f.positions {
		if p.Status == models.PositionOpen {
			p.Status = models.PositionClosed
		}
	}
	for _, p := range snapshot {
		if p == nil || p.Ticket == 0 {
			continue
		}
		cp := *p
		cp.Status = models.PositionOpen
		f.positions[cp.Ticket] = &cp
	}
	return nil
}

func (f *fakePositionStore) ListOpen(_ context.Context) ([]*models.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Position
	for _, p := range f.positions {
		if p.Status == models.PositionOpen {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticket < out[j].Ticket })
	return out, nil
}

func (f *fakePositionStore) get(ticket int64) *models.Position {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.positions[ticket]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// recordingRelay captures published events in order.
type recordingRelay struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	event   string
	symbol  string
	payload any
}

func (r *recordingRelay) Publish(event, symbol string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{event: event, symbol: symbol, payload: payload})
}

func (r *recordingRelay) all() []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]publishedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// nopMetrics satisfies repository.Metrics.
type nopMetrics struct{}

func (nopMetrics) RecordSignal(string, string)   {}
func (nopMetrics) RecordCommand(string, string)  {}
func (nopMetrics) RecordBroadcast(string)        {}
func (nopMetrics) RecordError(string)            {}
func (nopMetrics) RecordLatency(string, float64) {}
