package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned when sending to a closed subscriber.
	ErrClosed = errors.New("subscriber closed")
	// ErrSlow is returned when a subscriber's queue stays full past the send timeout.
	ErrSlow = errors.New("subscriber queue full")
)

// Queue is a push-only subscriber backed by a buffered channel. The
// streaming handler drains it and writes frames to the client.
type Queue struct {
	id          string
	events      chan Event
	done        chan struct{}
	closeOnce   sync.Once
	sendTimeout time.Duration
}

// NewQueue creates a queue subscriber.
func NewQueue(buffer int, sendTimeout time.Duration) *Queue {
	return &Queue{
		id:          "sse-" + uuid.NewString(),
		events:      make(chan Event, buffer),
		done:        make(chan struct{}),
		sendTimeout: sendTimeout,
	}
}

// ID implements Subscriber.
func (q *Queue) ID() string { return q.id }

// Send implements Subscriber. Only the queue's own state decides the outcome;
// the send timeout bounds how long a full queue may block.
func (q *Queue) Send(_ context.Context, ev Event) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	timer := time.NewTimer(q.sendTimeout)
	defer timer.Stop()
	select {
	case q.events <- ev:
		return nil
	case <-q.done:
		return ErrClosed
	case <-timer.C:
		return ErrSlow
	}
}

// Close implements Subscriber.
func (q *Queue) Close() error {
	q.closeOnce.Do(func() { close(q.done) })
	return nil
}

// Events returns the channel the streaming handler reads from.
func (q *Queue) Events() <-chan Event { return q.events }

// Done is closed once the queue has been closed.
func (q *Queue) Done() <-chan struct{} { return q.done }
