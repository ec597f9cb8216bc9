// Package session keeps the conversations of one user: each Session owns its
// transcript, its document index and the bookkeeping for uploaded files.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/index"
)

// Session is one conversation. It is safe for concurrent use; all mutation
// goes through the owning Store.
type Session struct {
	id        string
	createdAt time.Time

	mu       sync.RWMutex
	messages []protocol.Message
	index    *index.Index
	uploaded []string
	pending  []string
}

func newSession(id string, createdAt time.Time) *Session {
	return &Session{id: id, createdAt: createdAt}
}

// ID returns the unique session identifier.
func (s *Session) ID() string {
	return s.id
}

// CreatedAt returns the creation time.
func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []protocol.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]protocol.Message, len(s.messages))
	for i, msg := range s.messages {
		copied[i] = msg.Clone()
	}
	return copied
}

// Len returns the number of transcript messages.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Index returns the session's document index, or nil before the first upload.
func (s *Session) Index() *index.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Files returns the names of every document uploaded into the session.
func (s *Session) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.uploaded)
}

// Pending returns the uploaded file names not yet attached to a user message.
func (s *Session) Pending() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.pending)
}

func (s *Session) append(msg protocol.Message) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg.Clone())
	return len(s.messages) - 1
}

func (s *Session) recordUpload(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.uploaded, name) {
		return false
	}
	s.uploaded = append(s.uploaded, name)
	s.pending = append(s.pending, name)
	return true
}

func (s *Session) consumePending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending
	s.pending = nil
	return pending
}

func (s *Session) setIndex(idx *index.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = idx
}

func (s *Session) clearKnowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = nil
	s.uploaded = nil
	s.pending = nil
}
