// Package archive persists conversation transcripts in a DuckDB file so
// sessions survive process restarts.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id VARCHAR PRIMARY KEY,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	session_id VARCHAR NOT NULL,
	seq INTEGER NOT NULL,
	role VARCHAR NOT NULL,
	content VARCHAR,
	body VARCHAR NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`

// Config holds archive settings. An empty Path disables the archive.
type Config struct {
	Path string `json:"path,omitempty"`
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Path != "" {
		c.Path = source.Path
	}
}

// Archive wraps a DuckDB connection. It implements session.Recorder and
// session.Loader.
type Archive struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to the DuckDB file at path and creates the schema. An empty
// path opens an in-memory database.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init archive schema: %w", err)
	}
	return &Archive{db: db, now: time.Now}, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RecordSession stores a session header. Recording the same ID twice is a no-op.
func (a *Archive) RecordSession(ctx context.Context, id string, createdAt time.Time) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, created_at)
		VALUES (?, ?)
		ON CONFLICT (session_id) DO NOTHING
	`, id, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("record session %s: %w", id, err)
	}
	return nil
}

// RecordMessage stores the message at position seq of a session transcript.
func (a *Archive) RecordMessage(ctx context.Context, sessionID string, seq int, msg protocol.Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message %s/%d: %w", sessionID, seq, err)
	}

	_, err = a.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, seq, role, content, body, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, seq) DO NOTHING
	`, sessionID, seq, string(msg.Role), msg.Content, string(body), a.now().UTC())
	if err != nil {
		return fmt.Errorf("record message %s/%d: %w", sessionID, seq, err)
	}
	return nil
}

// LoadSessions returns every archived session with its transcript, oldest first.
func (a *Archive) LoadSessions(ctx context.Context) ([]session.Snapshot, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT session_id, created_at FROM sessions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	var snaps []session.Snapshot
	pos := make(map[string]int)
	for rows.Next() {
		var snap session.Snapshot
		if err := rows.Scan(&snap.ID, &snap.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session: %w", err)
		}
		pos[snap.ID] = len(snaps)
		snaps = append(snaps, snap)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	msgRows, err := a.db.QueryContext(ctx, `SELECT session_id, body FROM messages ORDER BY session_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var id, body string
		if err := msgRows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		i, ok := pos[id]
		if !ok {
			continue
		}
		var msg protocol.Message
		if err := json.Unmarshal([]byte(body), &msg); err != nil {
			return nil, fmt.Errorf("decode message of %s: %w", id, err)
		}
		snaps[i].Messages = append(snaps[i].Messages, msg)
	}
	return snaps, msgRows.Err()
}
