package tools_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/tools"
)

func testTool(name string) protocol.Tool {
	return protocol.Tool{
		Name:        name,
		Description: "test tool: " + name,
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"input": map[string]any{"type": "string"},
			},
		},
	}
}

func echoHandler(_ context.Context, args json.RawMessage) (tools.Result, error) {
	return tools.Result{Content: string(args)}, nil
}

func TestRegister(t *testing.T) {
	r := tools.NewRegistry()
	tests := []struct {
		name    string
		tool    protocol.Tool
		wantErr error
	}{
		{
			name: "valid tool",
			tool: testTool("register_valid"),
		},
		{
			name:    "empty name",
			tool:    protocol.Tool{Name: ""},
			wantErr: tools.ErrEmptyName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Register(tt.tool, echoHandler)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Errorf("Register() unexpected error: %v", err)
			}
		})
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := tools.NewRegistry()
	tool := testTool("register_duplicate")

	if err := r.Register(tool, echoHandler); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}

	err := r.Register(tool, echoHandler)
	if !errors.Is(err, tools.ErrAlreadyExists) {
		t.Errorf("second Register() error = %v, want %v", err, tools.ErrAlreadyExists)
	}
}

func TestList(t *testing.T) {
	r := tools.NewRegistry()
	for _, name := range []string{"list_b", "list_a", "list_c"} {
		if err := r.Register(testTool(name), echoHandler); err != nil {
			t.Fatalf("Register(%s) failed: %v", name, err)
		}
	}

	list := r.List()
	want := []string{"list_b", "list_a", "list_c"}
	if len(list) != len(want) {
		t.Fatalf("List() len = %d, want %d", len(list), len(want))
	}
	for i, tool := range list {
		if tool.Name != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, tool.Name, want[i])
		}
	}
}

func TestList_Empty(t *testing.T) {
	r := tools.NewRegistry()
	if list := r.List(); len(list) != 0 {
		t.Errorf("List() = %v, want empty", list)
	}
}

func TestExecute(t *testing.T) {
	r := tools.NewRegistry()
	tool := testTool("execute_valid")
	handler := func(_ context.Context, args json.RawMessage) (tools.Result, error) {
		var params struct {
			Input string `json:"input"`
		}
		if err := json.Unmarshal(args, &params); err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Content: "echo: " + params.Input}, nil
	}

	if err := r.Register(tool, handler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	result, err := r.Execute(
		context.Background(),
		"execute_valid",
		json.RawMessage(`{"input":"hello"}`),
	)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if result.Content != "echo: hello" {
		t.Errorf("Execute() content = %q, want %q", result.Content, "echo: hello")
	}
	if result.IsError {
		t.Error("Execute() IsError = true, want false")
	}
}

func TestExecute_NotFound(t *testing.T) {
	r := tools.NewRegistry()
	_, err := r.Execute(context.Background(), "execute_nonexistent", nil)
	if !errors.Is(err, tools.ErrNotFound) {
		t.Errorf("Execute() error = %v, want %v", err, tools.ErrNotFound)
	}
}

func TestExecute_HandlerError(t *testing.T) {
	r := tools.NewRegistry()
	tool := testTool("execute_error")
	handlerErr := errors.New("handler failed")
	handler := func(_ context.Context, _ json.RawMessage) (tools.Result, error) {
		return tools.Result{}, handlerErr
	}

	if err := r.Register(tool, handler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	_, err := r.Execute(context.Background(), "execute_error", nil)
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if !errors.Is(err, handlerErr) {
		t.Errorf("Execute() error chain does not contain handler error: %v", err)
	}
}

func TestExecute_RespectsContext(t *testing.T) {
	r := tools.NewRegistry()
	tool := testTool("execute_ctx")
	handler := func(ctx context.Context, _ json.RawMessage) (tools.Result, error) {
		if err := ctx.Err(); err != nil {
			return tools.Result{}, err
		}
		return tools.Result{Content: "ok"}, nil
	}

	if err := r.Register(tool, handler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Execute(ctx, "execute_ctx", nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestSessionContext(t *testing.T) {
	r := tools.NewRegistry()
	tool := testTool("session_ctx")
	handler := func(ctx context.Context, _ json.RawMessage) (tools.Result, error) {
		return tools.Result{Content: tools.SessionFromContext(ctx)}, nil
	}
	if err := r.Register(tool, handler); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	ctx := tools.WithSession(context.Background(), "s-1")
	result, err := r.Execute(ctx, "session_ctx", nil)
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if result.Content != "s-1" {
		t.Errorf("session = %q, want %q", result.Content, "s-1")
	}

	if got := tools.SessionFromContext(context.Background()); got != "" {
		t.Errorf("SessionFromContext(empty) = %q, want empty", got)
	}
}
