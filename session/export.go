package session

import (
	"encoding/json"
	"fmt"

	"github.com/tailored-agentic-units/insight/core/protocol"
)

// Export serializes the session's transcript as a JSON array of messages.
func (s *Store) Export(id string) ([]byte, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(sess.Messages(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export session %s: %w", id, err)
	}
	return data, nil
}

// ImportTranscript parses an exported transcript. Every message must be a
// valid variant and every tool result must follow the call it answers.
func ImportTranscript(data []byte) ([]protocol.Message, error) {
	var msgs []protocol.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTranscript, err)
	}

	for i, msg := range msgs {
		if err := msg.Validate(); err != nil {
			return nil, fmt.Errorf("%w: message %d: %v", ErrInvalidTranscript, i, err)
		}
	}
	if err := protocol.CheckPairing(msgs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTranscript, err)
	}
	return msgs, nil
}

// Import creates a new current session holding an exported transcript in
// place of the welcome message.
func (s *Store) Import(data []byte) (*Session, error) {
	msgs, err := ImportTranscript(data)
	if err != nil {
		return nil, err
	}

	return s.create(msgs), nil
}
