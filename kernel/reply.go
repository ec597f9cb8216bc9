package kernel

import (
	"slices"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/insight/agent"
)

// Texts a Reply falls back to when streaming produces nothing usable.
const (
	NoAnswerText     = "The AI did not provide an answer. Please try rephrasing."
	StreamFailedText = "Sorry, something went wrong while generating the final response."
)

// ToolCallRecord describes the tool invocation made during a turn.
type ToolCallRecord struct {
	Name      string
	Arguments string
	Result    string
	Artifact  string
	IsError   bool
}

// Reply is the assistant's answer to one turn as a finite sequence of text
// fragments. It cannot be restarted. When the sequence is exhausted, or the
// Reply is closed early, the accumulated text is appended to the session as
// the assistant message.
//
//	r := k.Send(ctx, "What's new in Go?")
//	defer r.Close()
//	for r.Next() {
//		fmt.Print(r.Fragment())
//	}
type Reply struct {
	mu       sync.Mutex
	stream   *agent.Stream
	queue    []string
	fragment string
	text     strings.Builder
	err      error
	done     bool
	records  []ToolCallRecord
	artifact string
	finish   func(text string)
}

func newTextReply(text string) *Reply {
	return &Reply{queue: []string{text}}
}

func newStreamReply(s *agent.Stream) *Reply {
	return &Reply{stream: s}
}

func failedReply(err error) *Reply {
	return &Reply{err: err, done: true}
}

// Next advances to the next fragment. It returns false once the reply is
// exhausted.
func (r *Reply) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for !r.done {
		if len(r.queue) > 0 {
			r.fragment = r.queue[0]
			r.queue = r.queue[1:]
			r.text.WriteString(r.fragment)
			return true
		}

		if r.stream != nil {
			if r.stream.Next() {
				r.fragment = r.stream.Fragment()
				r.text.WriteString(r.fragment)
				return true
			}

			r.err = r.stream.Err()
			r.stream.Close()
			r.stream = nil

			switch {
			case r.err != nil && r.text.Len() > 0:
				r.queue = append(r.queue, "\n\n"+StreamFailedText)
			case r.err != nil:
				r.queue = append(r.queue, StreamFailedText)
			case r.text.Len() == 0:
				r.queue = append(r.queue, NoAnswerText)
			}
			continue
		}

		r.complete()
	}

	r.fragment = ""
	return false
}

// Fragment returns the fragment produced by the last successful Next.
func (r *Reply) Fragment() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fragment
}

// Text returns the text accumulated so far; after exhaustion it is the full
// assistant message.
func (r *Reply) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text.String()
}

// Err returns the error that interrupted the stream or prevented the turn
// from running. A Reply carrying an error may still have produced text.
func (r *Reply) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ToolCalls returns the tool invocations made during the turn.
func (r *Reply) ToolCalls() []ToolCallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.records)
}

// Artifact returns the path of a file produced during the turn, if any.
func (r *Reply) Artifact() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.artifact
}

// Close stops the reply, releasing any open stream. Text read so far is
// recorded. It is safe to call more than once.
func (r *Reply) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.stream != nil {
		err = r.stream.Close()
		r.stream = nil
	}
	r.queue = nil
	r.complete()
	return err
}

// Drain reads the remaining fragments and returns the full text.
func (r *Reply) Drain() string {
	for r.Next() {
	}
	return r.Text()
}

func (r *Reply) complete() {
	if r.done {
		return
	}
	r.done = true
	if r.finish != nil && r.text.Len() > 0 {
		r.finish(r.text.String())
	}
}
