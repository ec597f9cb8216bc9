package session

import (
	"context"
	"time"

	"github.com/tailored-agentic-units/insight/core/protocol"
)

// Recorder persists sessions and messages as they are created. Store calls
// it synchronously after each mutation.
type Recorder interface {
	RecordSession(ctx context.Context, id string, createdAt time.Time) error
	RecordMessage(ctx context.Context, sessionID string, seq int, msg protocol.Message) error
}

// Snapshot is a persisted session as returned by a Loader.
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Messages  []protocol.Message
}

// Loader reads back what a Recorder persisted.
type Loader interface {
	LoadSessions(ctx context.Context) ([]Snapshot, error)
}
