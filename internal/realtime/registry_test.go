package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSubscriber struct {
	id         string
	failErr    error
	failOnDone bool

	mu     sync.Mutex
	events []Event
	closed int
}

func (f *fakeSubscriber) ID() string { return f.id }

func (f *fakeSubscriber) Send(ctx context.Context, ev Event) error {
	if f.failErr != nil {
		return f.failErr
	}
	if f.failOnDone {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeSubscriber) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeSubscriber) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func TestBroadcastReachesOnlyThatGame(t *testing.T) {
	r := NewRegistry()
	a := &fakeSubscriber{id: "a"}
	b := &fakeSubscriber{id: "b"}
	other := &fakeSubscriber{id: "other"}
	r.Register("g1", a)
	r.Register("g1", b)
	r.Register("g2", other)

	n := r.Broadcast(context.Background(), "g1", DoorOpened())
	if n != 2 {
		t.Fatalf("expected 2 deliveries, got %d", n)
	}
	if len(a.received()) != 1 || len(b.received()) != 1 {
		t.Fatal("expected both g1 subscribers to receive the event")
	}
	if len(other.received()) != 0 {
		t.Fatal("expected g2 subscriber to receive nothing")
	}
}

func TestBroadcastPrunesFailedSubscribers(t *testing.T) {
	r := NewRegistry()
	healthy := &fakeSubscriber{id: "healthy"}
	broken := &fakeSubscriber{id: "broken", failErr: errors.New("write: broken pipe")}
	r.Register("g1", healthy)
	r.Register("g1", broken)

	n := r.Broadcast(context.Background(), "g1", GameOver("timeout"))
	if n != 1 {
		t.Fatalf("expected 1 delivery, got %d", n)
	}
	if r.Count("g1") != 1 {
		t.Fatalf("expected broken subscriber to be pruned, count=%d", r.Count("g1"))
	}
	if broken.closed != 1 {
		t.Fatalf("expected pruned subscriber to be closed once, got %d", broken.closed)
	}

	r.Broadcast(context.Background(), "g1", DoorOpened())
	if got := len(healthy.received()); got != 2 {
		t.Fatalf("expected healthy subscriber to keep receiving, got %d events", got)
	}
}

func TestBroadcastWithCancelledContextKeepsSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 50; i++ {
		r := NewRegistry()
		q := NewQueue(4, 50*time.Millisecond)
		ctxAware := &fakeSubscriber{id: "ctx-aware", failOnDone: true}
		r.Register("g1", q)
		r.Register("g1", ctxAware)

		if n := r.Broadcast(ctx, "g1", DoorOpened()); n != 2 {
			t.Fatalf("run %d: expected 2 deliveries, got %d", i, n)
		}
		if r.Count("g1") != 2 {
			t.Fatalf("run %d: expected subscribers to stay registered, count=%d", i, r.Count("g1"))
		}
		select {
		case <-q.Done():
			t.Fatalf("run %d: expected queue to stay open", i)
		default:
		}
		if ev := <-q.Events(); ev.Type != EventDoorOpened {
			t.Fatalf("run %d: unexpected event %s", i, ev.Type)
		}
		if ctxAware.closed != 0 {
			t.Fatalf("run %d: expected subscriber not to be closed", i)
		}
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry()
	s := &fakeSubscriber{id: "s"}
	r.Register("g1", s)
	if !r.Unregister("g1", s) {
		t.Fatal("expected first unregister to report removal")
	}
	if r.Unregister("g1", s) {
		t.Fatal("expected second unregister to be a no-op")
	}
	if r.Unregister("missing", s) {
		t.Fatal("expected unregister on unknown game to be a no-op")
	}
	if r.Count("g1") != 0 {
		t.Fatal("expected no subscribers left")
	}
}

func TestBroadcastWithoutSubscribers(t *testing.T) {
	r := NewRegistry()
	if n := r.Broadcast(context.Background(), "nobody", DoorOpened()); n != 0 {
		t.Fatalf("expected 0 deliveries, got %d", n)
	}
}

func TestConcurrentRegisterAndBroadcast(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		s := &fakeSubscriber{id: "s"}
		go func() {
			defer wg.Done()
			r.Register("g1", s)
			r.Unregister("g1", s)
		}()
		go func() {
			defer wg.Done()
			r.Broadcast(context.Background(), "g1", DoorOpened())
		}()
	}
	wg.Wait()
	if r.Count("g1") != 0 {
		t.Fatalf("expected all subscribers removed, got %d", r.Count("g1"))
	}
}
