package session

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/index"
	"github.com/tailored-agentic-units/insight/observability"
)

// Event types emitted by the Store.
const (
	EventCreate observability.EventType = "session.create"
	EventRecord observability.EventType = "session.record"
)

// Store holds every session of the process and tracks the current one.
// It is safe for concurrent use.
type Store struct {
	cfg      Config
	observer observability.Observer
	recorder Recorder
	newID    func() string
	now      func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	current  string
}

// Option configures a Store.
type Option func(*Store)

// WithObserver sets the observer that receives session events.
func WithObserver(o observability.Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithRecorder persists every created session and appended message.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// NewStore creates an empty Store. Zero fields of cfg take their defaults.
func NewStore(cfg Config, opts ...Option) *Store {
	merged := DefaultConfig()
	merged.Merge(&cfg)

	s := &Store{
		cfg:      merged,
		observer: observability.NoOpObserver{},
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new session holding only the welcome message and makes it
// current. An identifier that is already taken is regenerated, never reused.
func (s *Store) Create() *Session {
	return s.create([]protocol.Message{protocol.NewAssistantMessage(s.cfg.Welcome)})
}

func (s *Store) create(msgs []protocol.Message) *Session {
	s.mu.Lock()
	id := s.newID()
	for s.sessions[id] != nil {
		id = s.newID()
	}
	sess := newSession(id, s.now())
	for _, msg := range msgs {
		sess.append(msg)
	}
	s.sessions[id] = sess
	s.current = id
	s.mu.Unlock()

	ctx := context.Background()
	observability.Emit(ctx, s.observer, EventCreate, observability.LevelInfo, "session.store", map[string]any{
		"session":  id,
		"messages": len(msgs),
	})
	if s.recorder != nil {
		s.record(ctx, id, s.recorder.RecordSession(ctx, id, sess.createdAt))
		for i, msg := range msgs {
			s.record(ctx, id, s.recorder.RecordMessage(ctx, id, i, msg))
		}
	}
	return sess
}

// Select makes the session with the given ID current.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sessions[id] == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.current = id
	return nil
}

// List returns all session IDs, newest first.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int { return strings.Compare(b, a) })
	return ids
}

// Current returns the current session, or nil when the store is empty.
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[s.current]
}

// Get returns the session with the given ID.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess := s.sessions[id]
	if sess == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess, nil
}

// Append validates msg and adds it to the session's transcript.
func (s *Store) Append(id string, msg protocol.Message) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	seq := sess.append(msg)

	if s.recorder != nil {
		ctx := context.Background()
		s.record(ctx, id, s.recorder.RecordMessage(ctx, id, seq, msg))
	}
	return nil
}

// RecordUpload registers an uploaded file name and queues it for the next
// user message. It reports whether the name was new to the session.
func (s *Store) RecordUpload(id, name string) (bool, error) {
	sess, err := s.Get(id)
	if err != nil {
		return false, err
	}
	return sess.recordUpload(name), nil
}

// ConsumePending returns the queued file names and clears the queue.
func (s *Store) ConsumePending(id string) ([]string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.consumePending(), nil
}

// SetIndex replaces the session's document index.
func (s *Store) SetIndex(id string, idx *index.Index) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.setIndex(idx)
	return nil
}

// Index returns the session's document index, or nil if none was built.
func (s *Store) Index(id string) (*index.Index, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return sess.Index(), nil
}

// ClearKnowledge drops the session's index and forgets its uploaded files.
// The transcript is kept.
func (s *Store) ClearKnowledge(id string) error {
	sess, err := s.Get(id)
	if err != nil {
		return err
	}
	sess.clearKnowledge()
	return nil
}

// Restore adds the sessions a Loader returns. Sessions already in the store
// are left untouched. The newest restored session becomes current when the
// store had none.
func (s *Store) Restore(ctx context.Context, l Loader) (int, error) {
	snaps, err := l.LoadSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("restore sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restored, newest := 0, ""
	for _, snap := range snaps {
		if snap.ID == "" || s.sessions[snap.ID] != nil {
			continue
		}
		sess := newSession(snap.ID, snap.CreatedAt)
		for _, msg := range snap.Messages {
			sess.append(msg)
		}
		s.sessions[snap.ID] = sess
		if snap.ID > newest {
			newest = snap.ID
		}
		restored++
	}
	if s.current == "" {
		s.current = newest
	}
	return restored, nil
}

func (s *Store) record(ctx context.Context, id string, err error) {
	if err == nil {
		return
	}
	observability.Emit(ctx, s.observer, EventRecord, observability.LevelWarning, "session.store", map[string]any{
		"session": id,
		"error":   err.Error(),
	})
}
