package game

import (
	"context"
	"sync"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/catalog"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
	"github.com/aaronzipp/escape-room-live/internal/store"
)

type recordedEvent struct {
	gameID string
	ev     realtime.Event
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Broadcast(_ context.Context, gameID string, ev realtime.Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{gameID: gameID, ev: ev})
	return 1
}

func (r *recorder) ofType(t realtime.EventType) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, e := range r.events {
		if e.ev.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type finishRecord struct {
	chatID  int64
	outcome string
}

type fakeBoard struct {
	mu       sync.Mutex
	starts   []int64
	finishes []finishRecord
}

func (b *fakeBoard) RecordStart(_ context.Context, chatID int64, _ time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.starts = append(b.starts, chatID)
	return nil
}

func (b *fakeBoard) RecordFinish(_ context.Context, chatID int64, _ time.Time, outcome string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finishes = append(b.finishes, finishRecord{chatID: chatID, outcome: outcome})
	return nil
}

type fixture struct {
	store   *store.Memory
	events  *recorder
	board   *fakeBoard
	manager *Manager
	engine  *Engine
}

func newFixture() *fixture {
	st := store.NewMemory()
	events := &recorder{}
	board := &fakeBoard{}
	cat := catalog.Demo()
	return &fixture{
		store:   st,
		events:  events,
		board:   board,
		manager: NewManager(st, cat, events, board, time.Hour),
		engine:  NewEngine(st, cat, events, time.Hour),
	}
}
