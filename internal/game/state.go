package game

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
	"github.com/aaronzipp/escape-room-live/internal/catalog"
	"github.com/aaronzipp/escape-room-live/internal/leaderboard"
	"github.com/aaronzipp/escape-room-live/internal/models"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
	"github.com/aaronzipp/escape-room-live/internal/store"
)

// Broadcaster delivers an event to every live subscriber of a game.
type Broadcaster interface {
	Broadcast(ctx context.Context, gameID string, ev realtime.Event) int
}

// Manager drives the per-chat registration state machine and the
// session-wide lifecycle events (start, time up, door opened, end).
type Manager struct {
	store   store.Store
	catalog *catalog.Catalog
	events  Broadcaster
	board   leaderboard.Sink
	ttl     time.Duration
	now     func() time.Time
	newID   func() string

	mu    sync.Mutex
	chats map[int64]*models.Lobby
}

// NewManager creates a lifecycle manager. A nil board discards leaderboard
// writes; a non-positive ttl uses DefaultSessionTTL.
func NewManager(st store.Store, cat *catalog.Catalog, events Broadcaster, board leaderboard.Sink, ttl time.Duration) *Manager {
	if board == nil {
		board = leaderboard.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		store:   st,
		catalog: cat,
		events:  events,
		board:   board,
		ttl:     ttl,
		now:     time.Now,
		newID:   NewGameID,
		chats:   make(map[int64]*models.Lobby),
	}
}

// lobby returns the chat's lobby, creating it on first use.
func (m *Manager) lobby(chatID int64) *models.Lobby {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.chats[chatID]
	if !ok {
		l = models.NewLobby(chatID)
		m.chats[chatID] = l
	}
	return l
}

// StartRegistration clears the chat's roster and game id and opens a new
// registration round. A chat whose game is still stored is refused; a chat
// marked active whose session has vanished is reset first.
func (m *Manager) StartRegistration(ctx context.Context, chatID int64, hostID string) error {
	l := m.lobby(chatID)
	l.Lock()
	defer l.Unlock()

	if l.Phase == models.PhaseActive {
		if session, ok := m.store.Get(ctx, l.GameID); ok && session.GameActive {
			return apperr.New(apperr.CodeConflict, msgGameRunning)
		}
		log.Printf("lifecycle: chat_id=%d stale game_id=%s not in store, resetting", chatID, l.GameID)
	}
	l.Reset()
	l.HostID = hostID
	log.Printf("lifecycle: chat_id=%d registration opened host=%s", chatID, hostID)
	return nil
}

// AddPlayer adds a player to the open registration. It reports false when
// the player was already registered.
func (m *Manager) AddPlayer(chatID int64, playerID, name string) (bool, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return false, apperr.New(apperr.CodeBadRequest, "player_id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player"
	}

	l := m.lobby(chatID)
	l.Lock()
	defer l.Unlock()

	if l.Phase != models.PhaseRegistering {
		return false, apperr.New(apperr.CodeConflict, msgRegistrationClosed)
	}
	if l.Players.Has(playerID) {
		return false, nil
	}
	l.Players[playerID] = name
	log.Printf("lifecycle: chat_id=%d player joined id=%s name=%q players=%d", chatID, playerID, name, len(l.Players))
	return true, nil
}

// Players returns a copy of the chat's current roster.
func (m *Manager) Players(chatID int64) models.Roster {
	l := m.lobby(chatID)
	l.Lock()
	defer l.Unlock()
	return l.Players.Clone()
}

// Phase returns the chat's registration phase.
func (m *Manager) Phase(chatID int64) models.Phase {
	l := m.lobby(chatID)
	l.Lock()
	defer l.Unlock()
	return l.Phase
}

// FinishRegistration snapshots the roster into a new session with the room
// applied, persists it and marks the chat active. Calling it again while the
// chat is active mints another independent session from the same roster.
func (m *Manager) FinishRegistration(ctx context.Context, chatID int64) (*models.Session, error) {
	l := m.lobby(chatID)
	l.Lock()
	defer l.Unlock()

	if l.Phase == models.PhaseFinished {
		return nil, apperr.New(apperr.CodeConflict, msgRegistrationClosed)
	}
	if len(l.Players) == 0 {
		return nil, apperr.New(apperr.CodeBadRequest, msgNoPlayers)
	}

	session := &models.Session{
		ID:         m.newID(),
		ChatID:     chatID,
		Players:    l.Players.Clone(),
		GameActive: true,
		RoomSolved: make(map[string]models.SolveStatus),
	}
	m.catalog.ApplyRoom(session)
	if err := m.store.Put(ctx, session, m.ttl); err != nil {
		return nil, fmt.Errorf("finish registration chat_id=%d: %w", chatID, err)
	}

	l.GameID = session.ID
	l.Phase = models.PhaseActive
	log.Printf("lifecycle: game created game_id=%s chat_id=%d players=%d", session.ID, chatID, len(session.Players))
	return session, nil
}

// EnsureRoom applies the room to a session stored without one.
func (m *Manager) EnsureRoom(ctx context.Context, session *models.Session) error {
	if !m.catalog.NeedsRoom(session) {
		return nil
	}
	m.catalog.ApplyRoom(session)
	if err := m.store.Put(ctx, session, m.ttl); err != nil {
		return fmt.Errorf("apply room game_id=%s: %w", session.ID, err)
	}
	log.Printf("lifecycle: room applied game_id=%s room=%q", session.ID, session.RoomName)
	return nil
}

// RecordStart sets the start time once. It reports whether this call set it;
// only then is game_started broadcast and the leaderboard start written.
func (m *Manager) RecordStart(ctx context.Context, session *models.Session) (time.Time, bool, error) {
	if session.StartedAt != nil {
		return *session.StartedAt, false, nil
	}
	now := m.now().UTC()
	session.StartedAt = &now
	if err := m.store.Put(ctx, session, m.ttl); err != nil {
		return time.Time{}, false, fmt.Errorf("record start game_id=%s: %w", session.ID, err)
	}
	if err := m.board.RecordStart(ctx, session.ChatID, now); err != nil {
		log.Printf("lifecycle: leaderboard start failed chat_id=%d: %v", session.ChatID, err)
	}
	m.events.Broadcast(ctx, session.ID, realtime.GameStarted(now))
	log.Printf("lifecycle: game started game_id=%s at=%s", session.ID, now.Format(time.RFC3339))
	return now, true, nil
}

// EndByChat deletes the chat's current session, tells its subscribers the
// game is over and clears the chat's registration state. It returns the
// ended game id.
func (m *Manager) EndByChat(ctx context.Context, chatID int64) (string, error) {
	l := m.lobby(chatID)
	l.Lock()
	gameID := l.GameID
	if gameID == "" {
		l.Unlock()
		return "", apperr.New(apperr.CodeNotFound, msgNoChat)
	}
	m.store.Delete(ctx, gameID)
	l.Reset()
	l.Phase = models.PhaseFinished
	l.Unlock()

	m.events.Broadcast(ctx, gameID, realtime.GameOver(ReasonEnded))
	log.Printf("lifecycle: game ended by chat game_id=%s chat_id=%d", gameID, chatID)
	return gameID, nil
}

// EndByID delists a session. The owning chat keeps its active flag until the
// next StartRegistration notices the session is gone.
func (m *Manager) EndByID(ctx context.Context, gameID string) {
	m.store.Delete(ctx, gameID)
	log.Printf("lifecycle: game ended game_id=%s", gameID)
}

// TimeUp records the finish, ends the session and broadcasts game_over.
func (m *Manager) TimeUp(ctx context.Context, session *models.Session) {
	if err := m.board.RecordFinish(ctx, session.ChatID, m.now().UTC(), leaderboard.OutcomeTimeout); err != nil {
		log.Printf("lifecycle: leaderboard finish failed chat_id=%d: %v", session.ChatID, err)
	}
	m.EndByID(ctx, session.ID)
	m.events.Broadcast(ctx, session.ID, realtime.GameOver(ReasonTimeout))
}

// DoorOpened marks the room escaped once every unlock puzzle is solved and
// broadcasts door_opened.
func (m *Manager) DoorOpened(ctx context.Context, session *models.Session) error {
	if !session.AllUnlocksSolved() {
		return apperr.New(apperr.CodeBadRequest, msgDoorNotReady)
	}
	if !session.DoorOpened {
		session.DoorOpened = true
		if err := m.store.Put(ctx, session, m.ttl); err != nil {
			return fmt.Errorf("door opened game_id=%s: %w", session.ID, err)
		}
		if err := m.board.RecordFinish(ctx, session.ChatID, m.now().UTC(), leaderboard.OutcomeEscaped); err != nil {
			log.Printf("lifecycle: leaderboard finish failed chat_id=%d: %v", session.ChatID, err)
		}
		log.Printf("lifecycle: door opened game_id=%s", session.ID)
	}
	m.events.Broadcast(ctx, session.ID, realtime.DoorOpened())
	return nil
}
