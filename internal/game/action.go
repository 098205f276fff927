package game

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aaronzipp/escape-room-live/internal/apperr"
	"github.com/aaronzipp/escape-room-live/internal/catalog"
	"github.com/aaronzipp/escape-room-live/internal/models"
	"github.com/aaronzipp/escape-room-live/internal/realtime"
	"github.com/aaronzipp/escape-room-live/internal/store"
)

// Result is the outcome of one answer submission.
type Result struct {
	Correct bool   `json:"correct"`
	Message string `json:"message"`
}

// Engine validates puzzle answers and applies solves.
type Engine struct {
	store   store.Store
	catalog *catalog.Catalog
	events  Broadcaster
	ttl     time.Duration
}

// NewEngine creates an action engine.
func NewEngine(st store.Store, cat *catalog.Catalog, events Broadcaster, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Engine{store: st, catalog: cat, events: events, ttl: ttl}
}

// Submit checks rawAnswer for itemID. A correct answer whose prerequisites
// are all solved marks the item solved, persists the session and broadcasts
// puzzle_solved. A wrong answer changes nothing.
//
// The read-modify-write is not guarded: two correct submissions racing on
// the same item both report correct and both broadcast.
func (e *Engine) Submit(ctx context.Context, session *models.Session, itemID, rawAnswer, solverName string) (Result, error) {
	itemID = strings.TrimSpace(itemID)
	puzzle, ok := session.RoomPuzzles[itemID]
	if !ok {
		return Result{}, apperr.New(apperr.CodeBadRequest, msgUnknownItem)
	}
	if !puzzle.AcceptsAnswer() {
		return Result{}, apperr.New(apperr.CodeBadRequest, msgExamineOnly)
	}

	if !catalog.MatchAnswer(puzzle, rawAnswer) {
		return Result{Correct: false, Message: e.catalog.WrongMessage()}, nil
	}

	for _, dep := range e.catalog.DependenciesOf(itemID) {
		if !session.IsSolved(dep) {
			log.Printf("action: blocked game_id=%s item=%s missing=%s", session.ID, itemID, dep)
			return Result{}, apperr.New(apperr.CodeBadRequest, e.catalog.BlockMessage(itemID))
		}
	}

	if err := session.MarkSolved(itemID); err != nil {
		return Result{}, apperr.Wrap(apperr.CodeBadRequest, msgUnknownItem, err)
	}
	if err := e.store.Put(ctx, session, e.ttl); err != nil {
		return Result{}, fmt.Errorf("save solve game_id=%s item=%s: %w", session.ID, itemID, err)
	}

	solverName = strings.TrimSpace(solverName)
	e.events.Broadcast(ctx, session.ID, realtime.PuzzleSolved(itemID, session.ItemLabel(itemID), puzzle.CorrectAnswer, solverName))
	log.Printf("action: solved game_id=%s item=%s solver=%q", session.ID, itemID, solverName)

	return Result{Correct: true, Message: e.catalog.SuccessMessage(itemID)}, nil
}
