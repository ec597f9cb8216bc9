package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"connectrpc.com/connect"

	"github.com/tailored-agentic-units/insight/agent/mock"
	"github.com/tailored-agentic-units/insight/artifacts"
	"github.com/tailored-agentic-units/insight/core/protocol"
	"github.com/tailored-agentic-units/insight/core/response"
	"github.com/tailored-agentic-units/insight/embedding"
	"github.com/tailored-agentic-units/insight/kernel"
	"github.com/tailored-agentic-units/insight/observability"
	"github.com/tailored-agentic-units/insight/server"
	"github.com/tailored-agentic-units/insight/tools"
)

type stubSearcher struct{}

func (stubSearcher) Search(context.Context, string) string { return "" }

type stubImages struct{}

func (stubImages) Generate(context.Context, string) ([]byte, error) {
	return nil, errors.New("offline")
}

func newTestServer(t *testing.T, a *mock.MockAgent) (*kernel.Kernel, *server.Client) {
	t.Helper()

	store := artifacts.NewFileStore(t.TempDir())
	reg := tools.NewRegistry()
	if err := tools.RegisterBuiltins(reg, tools.Builtins{
		Search:    stubSearcher{},
		Images:    stubImages{},
		Artifacts: store,
	}); err != nil {
		t.Fatal(err)
	}

	cfg := kernel.DefaultConfig()
	k, err := kernel.New(&cfg,
		kernel.WithAgent(a),
		kernel.WithToolExecutor(reg),
		kernel.WithArtifacts(store),
		kernel.WithEmbedder(embedding.NewHashing(64)),
		kernel.WithObserver(observability.NoOpObserver{}),
	)
	if err != nil {
		t.Fatalf("kernel.New() failed: %v", err)
	}

	path, handler := server.New(k).Handler()
	if path != "/"+server.ServiceName+"/" {
		t.Errorf("Handler() path = %q", path)
	}

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return k, server.NewClient(srv.Client(), srv.URL)
}

func TestSend_StreamsFragments(t *testing.T) {
	a := mock.NewMockAgent(
		mock.WithToolsResponse(response.NewToolsResponse("Hello!"), nil),
		mock.WithFragments("Hi", " there!"),
	)
	k, client := newTestServer(t, a)

	var fragments []string
	final, err := client.Send(context.Background(), &server.SendRequest{Prompt: "Hello"}, func(f string) {
		fragments = append(fragments, f)
	})
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	if strings.Join(fragments, "") != "Hi there!" {
		t.Errorf("fragments = %q", fragments)
	}
	if !final.Done || final.Text != "Hi there!" {
		t.Errorf("final = %+v", final)
	}

	msgs := k.Current().Messages()
	if got := msgs[len(msgs)-1]; got.Role != protocol.RoleAssistant || got.Content != "Hi there!" {
		t.Errorf("last message = %+v", got)
	}
}

func TestSend_EmptyPrompt(t *testing.T) {
	_, client := newTestServer(t, mock.NewMockAgent())

	_, err := client.Send(context.Background(), &server.SendRequest{Prompt: "  "}, nil)
	if connect.CodeOf(err) != connect.CodeInvalidArgument {
		t.Errorf("Send() code = %v, want %v (err %v)", connect.CodeOf(err), connect.CodeInvalidArgument, err)
	}
}

func TestSend_UnknownSession(t *testing.T) {
	_, client := newTestServer(t, mock.NewMockAgent())

	_, err := client.Send(context.Background(), &server.SendRequest{SessionID: "missing", Prompt: "hi"}, nil)
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("Send() code = %v, want %v (err %v)", connect.CodeOf(err), connect.CodeNotFound, err)
	}
}

func TestSend_ModelUnavailable(t *testing.T) {
	a := mock.NewMockAgent(
		mock.WithToolsResponse(nil, errors.New("dial tcp: refused")),
	)
	_, client := newTestServer(t, a)

	final, err := client.Send(context.Background(), &server.SendRequest{Prompt: "hi"}, nil)
	if err != nil {
		t.Fatalf("Send() failed: %v", err)
	}
	if final.Text != kernel.ThinkingErrorText {
		t.Errorf("final text = %q, want %q", final.Text, kernel.ThinkingErrorText)
	}
}

func TestSessions(t *testing.T) {
	k, client := newTestServer(t, mock.NewMockAgent())
	ctx := context.Background()
	first := k.Current().ID()

	created, err := client.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession() failed: %v", err)
	}
	if created.Session.ID == first {
		t.Error("CreateSession() returned the existing session")
	}
	if created.Session.Messages != 1 {
		t.Errorf("new session messages = %d, want 1 (welcome)", created.Session.Messages)
	}

	list, err := client.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions() failed: %v", err)
	}
	if len(list.Sessions) != 2 {
		t.Fatalf("ListSessions() len = %d, want 2", len(list.Sessions))
	}
	if list.Current != created.Session.ID {
		t.Errorf("current = %q, want %q", list.Current, created.Session.ID)
	}

	if err := client.SelectSession(ctx, first); err != nil {
		t.Fatalf("SelectSession() failed: %v", err)
	}
	if k.Current().ID() != first {
		t.Errorf("current after select = %q, want %q", k.Current().ID(), first)
	}

	err = client.SelectSession(ctx, "missing")
	if connect.CodeOf(err) != connect.CodeNotFound {
		t.Errorf("SelectSession(missing) code = %v, want %v", connect.CodeOf(err), connect.CodeNotFound)
	}
}

func TestUpload(t *testing.T) {
	k, client := newTestServer(t, mock.NewMockAgent())
	ctx := context.Background()

	resp, err := client.Upload(ctx, &server.UploadRequest{
		Name: "notes.txt",
		Data: []byte("The launch window opens on March 3rd. The crew numbers four."),
	})
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if len(resp.Files) != 1 || resp.Files[0] != "notes.txt" {
		t.Errorf("files = %v", resp.Files)
	}
	if resp.Chunks == 0 {
		t.Error("chunks = 0, want indexed text")
	}

	if err := client.ClearKnowledge(ctx, ""); err != nil {
		t.Fatalf("ClearKnowledge() failed: %v", err)
	}
	if files := k.Current().Files(); len(files) != 0 {
		t.Errorf("files after clear = %v", files)
	}
}

func TestUpload_Rejected(t *testing.T) {
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{name: "unsupported format", file: "image.gif", data: []byte("GIF89a")},
		{name: "empty document", file: "blank.txt", data: []byte("   ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newTestServer(t, mock.NewMockAgent())
			_, err := client.Upload(context.Background(), &server.UploadRequest{Name: tt.file, Data: tt.data})
			if connect.CodeOf(err) != connect.CodeInvalidArgument {
				t.Errorf("Upload() code = %v, want %v (err %v)", connect.CodeOf(err), connect.CodeInvalidArgument, err)
			}
		})
	}
}

func TestExportTranscript(t *testing.T) {
	_, client := newTestServer(t, mock.NewMockAgent())

	resp, err := client.ExportTranscript(context.Background(), "")
	if err != nil {
		t.Fatalf("ExportTranscript() failed: %v", err)
	}

	var msgs []protocol.Message
	if err := json.Unmarshal(resp.Transcript, &msgs); err != nil {
		t.Fatalf("transcript is not JSON: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Role != protocol.RoleAssistant {
		t.Errorf("transcript = %+v, want welcome message", msgs)
	}
}
