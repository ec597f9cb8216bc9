// Package mock provides a scriptable Agent for tests.
package mock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/tailored-agentic-units/insight/agent"
	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/core/response"
)

// ErrNoScript is returned when a call arrives after every scripted reply
// has been consumed.
var ErrNoScript = errors.New("mock agent: no more scripted replies")

// Call records one request made to the MockAgent.
type Call struct {
	Protocol protocol.Protocol
	Messages []protocol.Message
	Tools    []protocol.Tool
	Options  map[string]any
}

// StreamScript describes one streamed reply: the fragments to emit, then an
// optional read error. Err set without fragments fails the Stream call itself.
type StreamScript struct {
	Fragments []string
	ReadErr   error
	Err       error
}

type toolsScript struct {
	resp *response.ToolsResponse
	err  error
}

// MockAgent replays scripted replies in order and records every call.
type MockAgent struct {
	mu      sync.Mutex
	id      string
	tools   []toolsScript
	streams []StreamScript
	calls   []Call
}

// Option configures a MockAgent.
type Option func(*MockAgent)

// WithID sets the agent ID.
func WithID(id string) Option {
	return func(a *MockAgent) { a.id = id }
}

// WithToolsResponse queues a reply for the next Tools call.
func WithToolsResponse(resp *response.ToolsResponse, err error) Option {
	return func(a *MockAgent) {
		a.tools = append(a.tools, toolsScript{resp: resp, err: err})
	}
}

// WithStream queues a reply for the next Stream call.
func WithStream(script StreamScript) Option {
	return func(a *MockAgent) {
		a.streams = append(a.streams, script)
	}
}

// WithFragments queues a successful streamed reply.
func WithFragments(fragments ...string) Option {
	return WithStream(StreamScript{Fragments: fragments})
}

// NewMockAgent creates a MockAgent.
func NewMockAgent(opts ...Option) *MockAgent {
	a := &MockAgent{id: "mock-agent"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *MockAgent) ID() string {
	return a.id
}

func (a *MockAgent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, opts ...map[string]any) (*response.ToolsResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(protocol.Tools, messages, tools, opts)

	if len(a.tools) == 0 {
		return nil, ErrNoScript
	}
	next := a.tools[0]
	a.tools = a.tools[1:]
	return next.resp, next.err
}

func (a *MockAgent) Stream(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*agent.Stream, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.record(protocol.Chat, messages, nil, opts)

	if len(a.streams) == 0 {
		return nil, ErrNoScript
	}
	next := a.streams[0]
	a.streams = a.streams[1:]

	if next.Err != nil {
		return nil, next.Err
	}
	return agent.NewStream(SSEBody(next.ReadErr, next.Fragments...)), nil
}

// Calls returns a copy of every recorded call.
func (a *MockAgent) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}

// CallCount returns the number of calls made for proto.
func (a *MockAgent) CallCount(proto protocol.Protocol) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, c := range a.calls {
		if c.Protocol == proto {
			n++
		}
	}
	return n
}

func (a *MockAgent) record(proto protocol.Protocol, messages []protocol.Message, tools []protocol.Tool, opts []map[string]any) {
	msgs := make([]protocol.Message, len(messages))
	for i, m := range messages {
		msgs[i] = m.Clone()
	}
	merged := make(map[string]any)
	for _, o := range opts {
		for k, v := range o {
			merged[k] = v
		}
	}
	a.calls = append(a.calls, Call{
		Protocol: proto,
		Messages: msgs,
		Tools:    tools,
		Options:  merged,
	})
}

// SSEBody renders fragments as an OpenAI-style event stream terminated by
// [DONE]. When readErr is non-nil the body fails with it instead of
// terminating.
func SSEBody(readErr error, fragments ...string) io.ReadCloser {
	var b strings.Builder
	for _, f := range fragments {
		chunk, _ := json.Marshal(map[string]any{
			"choices": []map[string]any{{
				"index": 0,
				"delta": map[string]string{"content": f},
			}},
		})
		fmt.Fprintf(&b, "data: %s\n\n", chunk)
	}

	if readErr != nil {
		return io.NopCloser(io.MultiReader(strings.NewReader(b.String()), errReader{readErr}))
	}
	b.WriteString("data: [DONE]\n\n")
	return io.NopCloser(strings.NewReader(b.String()))
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
