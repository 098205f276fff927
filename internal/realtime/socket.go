package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Socket is a subscriber writing JSON text frames to a websocket. Writes are
// serialized; the owning handler is the only reader.
type Socket struct {
	id           string
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
	closeOnce    sync.Once
}

// NewSocket wraps an upgraded connection.
func NewSocket(conn *websocket.Conn, writeTimeout time.Duration) *Socket {
	return &Socket{
		id:           "ws-" + uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// ID implements Subscriber.
func (s *Socket) ID() string { return s.id }

// Send implements Subscriber. The write deadline bounds a stalled peer.
func (s *Socket) Send(_ context.Context, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(ev)
}

// Ping sends a websocket ping so idle connections survive proxies.
func (s *Socket) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.writeTimeout))
}

// CloseWith sends a close frame with the given code before closing.
func (s *Socket) CloseWith(code int, reason string) error {
	s.mu.Lock()
	msg := websocket.FormatCloseMessage(code, reason)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.writeTimeout))
	s.mu.Unlock()
	return s.Close()
}

// Close implements Subscriber.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() { err = s.conn.Close() })
	return err
}
