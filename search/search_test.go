package search_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/insight/search"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("got method %s, want POST", r.Method)
		}
		if got := r.Header.Get("X-API-KEY"); got != "serper-key" {
			t.Errorf("got X-API-KEY %q", got)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["q"] != "golang release" {
			t.Errorf("got q %q", req["q"])
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Search_Digest(t *testing.T) {
	body := `{
		"answerBox": {"snippet": "Go 1.25 was released in August 2025."},
		"knowledgeGraph": {"title": "Go", "description": "Programming language"},
		"organic": [
			{"title": "Go Blog", "link": "https://go.dev/blog", "snippet": "Release notes"},
			{"title": "Wikipedia", "link": "https://en.wikipedia.org/wiki/Go", "snippet": "Go is..."},
			{"link": "https://example.com"}
		]
	}`
	srv := newServer(t, 200, body)

	c := search.New(search.Config{APIKey: "serper-key", Endpoint: srv.URL})
	got := c.Search(context.Background(), "golang release")

	sections := strings.Split(got, "\n\n---\n\n")
	if len(sections) != 4 {
		t.Fatalf("got %d sections, want 4:\n%s", len(sections), got)
	}

	want := []string{
		"DIRECT ANSWER: Go 1.25 was released in August 2025.",
		"KNOWLEDGE GRAPH: Go - Programming language",
		"🔍 REAL-TIME TRUTH from Go Blog\nLINK: https://go.dev/blog\nCONTENT: Release notes",
		"🔍 REAL-TIME TRUTH from Wikipedia\nLINK: https://en.wikipedia.org/wiki/Go\nCONTENT: Go is...",
	}
	for i := range want {
		if sections[i] != want[i] {
			t.Errorf("section %d:\ngot  %q\nwant %q", i, sections[i], want[i])
		}
	}
}

func TestClient_Search_AnswerPreferredOverSnippet(t *testing.T) {
	srv := newServer(t, 200, `{"answerBox": {"answer": "42", "snippet": "long text"}}`)

	got := search.New(search.Config{APIKey: "serper-key", Endpoint: srv.URL}).Search(context.Background(), "golang release")
	if got != "DIRECT ANSWER: 42" {
		t.Errorf("got %q", got)
	}
}

func TestClient_Search_OrganicDefaults(t *testing.T) {
	srv := newServer(t, 200, `{"organic": [{}]}`)

	got := search.New(search.Config{APIKey: "serper-key", Endpoint: srv.URL}).Search(context.Background(), "golang release")
	want := "🔍 REAL-TIME TRUTH from No Title\nLINK: No Link\nCONTENT: No Snippet"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestClient_Search_NoResults(t *testing.T) {
	srv := newServer(t, 200, `{"organic": [], "answerBox": {}}`)

	got := search.New(search.Config{APIKey: "serper-key", Endpoint: srv.URL}).Search(context.Background(), "golang release")
	if got != search.NoResults {
		t.Errorf("got %q, want %q", got, search.NoResults)
	}
}

func TestClient_Search_NotConfigured(t *testing.T) {
	for _, key := range []string{"", "your_serper_api_key_here"} {
		got := search.New(search.Config{APIKey: key}).Search(context.Background(), "anything")
		if got != search.NotConfigured {
			t.Errorf("key %q: got %q", key, got)
		}
	}
}

func TestClient_Search_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", 403, `{"message":"Unauthorized."}`},
		{"decode", 200, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.body)
			got := search.New(search.Config{APIKey: "serper-key", Endpoint: srv.URL}).Search(context.Background(), "golang release")
			if !strings.HasPrefix(got, "Error during search: ") {
				t.Errorf("got %q", got)
			}
		})
	}
}

func TestClient_Search_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	got := search.New(search.Config{APIKey: "serper-key", Endpoint: url}).Search(context.Background(), "q")
	if !strings.HasPrefix(got, "Error during search: ") {
		t.Errorf("got %q", got)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := search.DefaultConfig()
	cfg.Merge(&search.Config{APIKey: "k", MaxResults: 2})

	if cfg.Endpoint != search.DefaultEndpoint || cfg.APIKey != "k" || cfg.MaxResults != 2 {
		t.Errorf("got %+v", cfg)
	}
	if !cfg.Configured() {
		t.Error("expected configured")
	}
}
