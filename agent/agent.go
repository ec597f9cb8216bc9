// Package agent is the client for OpenAI-compatible chat-completions APIs.
// It offers one non-streaming call that declares tools and one streaming call
// that yields text fragments.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tailored-agentic-units/insight/agent/providers"
	"github.com/tailored-agentic-units/insight/agent/request"
	"github.com/tailored-agentic-units/insight/core/config"
	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/core/response"
)

// Agent sends conversations to a model.
type Agent interface {
	// ID returns the configured agent name.
	ID() string

	// Tools performs a non-streaming completion that declares tools.
	Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, opts ...map[string]any) (*response.ToolsResponse, error)

	// Stream performs a streaming completion without tools. The caller must
	// Close the returned Stream.
	Stream(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*Stream, error)
}

type httpAgent struct {
	id       string
	provider providers.Provider
	model    *config.ModelConfig
	client   *http.Client
	timeout  time.Duration
}

// New creates an HTTP-backed Agent from cfg.
func New(cfg *config.AgentConfig) (Agent, error) {
	if cfg.Provider == nil {
		return nil, ErrNoProvider
	}
	if cfg.Model == nil || cfg.Model.Name == "" {
		return nil, ErrNoModel
	}

	p, err := providers.New(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}

	timeout := cfg.Timeout.Std()
	if timeout <= 0 {
		timeout = config.DefaultTimeout.Std()
	}

	// The timeout bounds the wait for response headers and each stream read,
	// not the whole streamed body.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	return &httpAgent{
		id:       cfg.Name,
		provider: p,
		model:    cfg.Model,
		client:   &http.Client{Transport: transport},
		timeout:  timeout,
	}, nil
}

func (a *httpAgent) ID() string {
	return a.id
}

func (a *httpAgent) Tools(ctx context.Context, messages []protocol.Message, tools []protocol.Tool, opts ...map[string]any) (*response.ToolsResponse, error) {
	req := request.NewTools(a.provider, a.model, messages, tools, mergeOpts(opts))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return response.ParseTools(body)
}

func (a *httpAgent) Stream(ctx context.Context, messages []protocol.Message, opts ...map[string]any) (*Stream, error) {
	req := request.NewChat(a.provider, a.model, messages, mergeOpts(opts))

	ctx, cancel := context.WithCancel(ctx)
	resp, err := a.execute(ctx, req)
	if err != nil {
		cancel()
		return nil, err
	}

	return NewStream(newIdleBody(resp.Body, a.timeout, cancel)), nil
}

// idleBody cancels the request when no read completes within timeout.
type idleBody struct {
	body    io.ReadCloser
	timer   *time.Timer
	timeout time.Duration
	cancel  context.CancelFunc
}

func newIdleBody(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleBody {
	return &idleBody{
		body:    body,
		timer:   time.AfterFunc(timeout, cancel),
		timeout: timeout,
		cancel:  cancel,
	}
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	b.timer.Reset(b.timeout)
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	b.cancel()
	return b.body.Close()
}

// execute sends req and returns the response when the status is 200. Any
// other status is drained into a *StatusError.
func (a *httpAgent) execute(ctx context.Context, req request.Request) (*http.Response, error) {
	body, err := req.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url, err := req.Provider().Endpoint(req.Protocol())
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Provider().SetHeaders(httpReq)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		msg, ok := response.ErrorMessage(raw)
		if !ok {
			msg = string(bytes.TrimSpace(raw))
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Message: msg}
	}

	return resp, nil
}

func mergeOpts(opts []map[string]any) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	out := make(map[string]any)
	for _, o := range opts {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}
