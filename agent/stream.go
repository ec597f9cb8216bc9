package agent

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/tailored-agentic-units/insight/core/response"
)

const maxLineSize = 1024 * 1024

// Stream iterates the text fragments of a server-sent-events completion.
// It is finite and cannot be restarted.
//
//	for s.Next() {
//		fmt.Print(s.Fragment())
//	}
//	if err := s.Err(); err != nil { ... }
type Stream struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	fragment string
	err      error
	done     bool
}

// NewStream wraps an event-stream body.
func NewStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Stream{body: body, scanner: scanner}
}

// Next advances to the next non-empty fragment. It returns false at the end
// of the stream or on a read error; check Err afterwards. Blank lines,
// comment lines, and chunks that are not valid JSON are skipped. A "[DONE]"
// event ends the stream.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 || line[0] == ':' {
			continue
		}

		data := line
		if rest, ok := bytes.CutPrefix(line, []byte("data:")); ok {
			data = bytes.TrimSpace(rest)
		} else if strings.HasPrefix(string(line), "event:") {
			continue
		}

		if string(data) == "[DONE]" {
			s.finish()
			return false
		}

		chunk, err := response.ParseStreamingChunk(data)
		if err != nil {
			continue
		}
		if content := chunk.Content(); content != "" {
			s.fragment = content
			return true
		}
	}

	s.err = s.scanner.Err()
	s.finish()
	return false
}

// Fragment returns the fragment produced by the last successful Next.
func (s *Stream) Fragment() string {
	return s.fragment
}

// Err returns the read error that ended the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the underlying body. It is safe to call more than once.
func (s *Stream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	s.done = true
	return err
}

func (s *Stream) finish() {
	s.fragment = ""
	s.done = true
}
