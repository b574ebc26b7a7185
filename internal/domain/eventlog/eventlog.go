package eventlog

import (
	"context"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Entry is one append-only audit record. Settlement writes here whenever a
// downstream sync fails, so manual reconciliation has enough context to act.
type Entry struct {
	Level     Level
	Source    string
	Message   string
	Metadata  map[string]string
	CreatedAt time.Time
}

// Sink records entries. Implementations are fire-and-forget: Log never
// returns an error and must never block the caller's control flow — a broken
// audit trail must not take the settlement path down with it.
type Sink interface {
	Log(ctx context.Context, level Level, source, message string, metadata map[string]string)
}

// Discard is a Sink that drops everything; handy as a test default.
type Discard struct{}

func (Discard) Log(context.Context, Level, string, string, map[string]string) {}
