// Package leaderboard records game start and finish times per chat. It is a
// write-only sink; ranking queries live with the chat bot.
package leaderboard

import (
	"context"
	"time"
)

// Outcomes recorded with a finish time.
const (
	OutcomeEscaped = "escaped"
	OutcomeTimeout = "timeout"
)

// Sink receives lifecycle timestamps.
type Sink interface {
	RecordStart(ctx context.Context, chatID int64, at time.Time) error
	RecordFinish(ctx context.Context, chatID int64, at time.Time, outcome string) error
}

// Nop discards everything. Used when no leaderboard path is configured.
type Nop struct{}

func (Nop) RecordStart(context.Context, int64, time.Time) error          { return nil }
func (Nop) RecordFinish(context.Context, int64, time.Time, string) error { return nil }
