package mongo

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"staybook/internal/domain/eventlog"
)

// EventLogSink appends operational entries to a capped-style audit collection.
// Log is fire and forget: it detaches from the request context, bounds its own
// write, and swallows failures after logging them. An unreachable audit store
// must never fail a settlement.
type EventLogSink struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewEventLogSink(db *mongo.Database, logger *slog.Logger) *EventLogSink {
	return &EventLogSink{col: db.Collection("event_log"), logger: logger}
}

type eventLogDocument struct {
	Level     string            `bson:"level"`
	Source    string            `bson:"source"`
	Message   string            `bson:"message"`
	Metadata  map[string]string `bson:"metadata,omitempty"`
	CreatedAt int64             `bson:"created_at"`
}

func (s *EventLogSink) Log(ctx context.Context, level eventlog.Level, source, message string, metadata map[string]string) {
	// Detach so a cancelled request context cannot abort the audit write.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	_, err := s.col.InsertOne(writeCtx, eventLogDocument{
		Level:     string(level),
		Source:    source,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC().UnixMilli(),
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("event log write failed", "source", source, "message", message, "error", err)
	}
}

var _ eventlog.Sink = (*EventLogSink)(nil)
