package providers_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/tailored-agentic-units/insight/agent/providers"
	"github.com/tailored-agentic-units/insight/core/config"
	"github.com/tailored-agentic-units/insight/core/protocol"
)

func TestNewBaseProvider(t *testing.T) {
	provider := providers.NewBaseProvider("test-provider", "https://api.example.com/")

	if provider.Name() != "test-provider" {
		t.Errorf("got name %q, want %q", provider.Name(), "test-provider")
	}

	if provider.BaseURL() != "https://api.example.com" {
		t.Errorf("got baseURL %q, want %q", provider.BaseURL(), "https://api.example.com")
	}
}

func TestBaseProvider_Marshal_Chat(t *testing.T) {
	provider := providers.NewBaseProvider("test", "https://api.test.com")

	msgs := []protocol.Message{
		protocol.NewSystemMessage("be brief"),
		protocol.NewUserMessage("Hello", "notes.pdf"),
	}

	body, err := provider.Marshal(protocol.Chat, &providers.ChatData{
		Model:    "llama-3.1-8b-instant",
		Messages: msgs,
		Options:  map[string]any{"max_tokens": 500},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	if result["model"] != "llama-3.1-8b-instant" {
		t.Errorf("got model %v", result["model"])
	}
	if result["stream"] != true {
		t.Errorf("got stream %v, want true", result["stream"])
	}
	if result["max_tokens"] != float64(500) {
		t.Errorf("got max_tokens %v, want 500", result["max_tokens"])
	}
	if _, ok := result["tools"]; ok {
		t.Error("chat request must not declare tools")
	}

	messages, ok := result["messages"].([]any)
	if !ok || len(messages) != 2 {
		t.Fatalf("got messages %v", result["messages"])
	}
	user := messages[1].(map[string]any)
	if _, ok := user["files"]; ok {
		t.Error("files leaked into wire message")
	}
}

func TestBaseProvider_Marshal_Tools(t *testing.T) {
	provider := providers.NewBaseProvider("test", "https://api.test.com")

	body, err := provider.Marshal(protocol.Tools, &providers.ToolsData{
		Model:    "llama-3.1-8b-instant",
		Messages: protocol.InitMessages(protocol.RoleUser, "What's new in Go?"),
		Tools: []protocol.Tool{{
			Name:        "web_search",
			Description: "Search the web",
			Parameters:  protocol.StringParameters("query", "search terms"),
		}},
		Options: map[string]any{"tool_choice": "auto"},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to unmarshal result: %v", err)
	}

	if result["tool_choice"] != "auto" {
		t.Errorf("got tool_choice %v, want auto", result["tool_choice"])
	}
	if result["stream"] != false {
		t.Errorf("got stream %v, want false", result["stream"])
	}

	tools, ok := result["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("got tools %v", result["tools"])
	}
	tool := tools[0].(map[string]any)
	if tool["type"] != "function" {
		t.Errorf("got tool type %v, want function", tool["type"])
	}
	fn := tool["function"].(map[string]any)
	if fn["name"] != "web_search" {
		t.Errorf("got function name %v", fn["name"])
	}
}

func TestBaseProvider_Marshal_InvalidData(t *testing.T) {
	provider := providers.NewBaseProvider("test", "https://api.test.com")

	if _, err := provider.Marshal(protocol.Chat, "invalid-data"); err == nil {
		t.Error("expected error for invalid chat data")
	}
	if _, err := provider.Marshal(protocol.Tools, &providers.ChatData{}); err == nil {
		t.Error("expected error for invalid tools data")
	}
}

func TestBaseProvider_Marshal_UnsupportedProtocol(t *testing.T) {
	provider := providers.NewBaseProvider("test", "https://api.test.com")

	_, err := provider.Marshal(protocol.Protocol("unsupported"), nil)
	if err == nil {
		t.Error("expected error for unsupported protocol, got nil")
	}
}

func TestNewOpenAI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.ProviderConfig
		wantErr bool
	}{
		{"nil config", nil, true},
		{"missing base URL", &config.ProviderConfig{Name: "groq"}, true},
		{"valid", &config.ProviderConfig{Name: "groq", BaseURL: config.DefaultBaseURL}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := providers.NewOpenAI(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("got err %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAI_EndpointAndHeaders(t *testing.T) {
	p, err := providers.NewOpenAI(&config.ProviderConfig{
		Name:    "groq",
		BaseURL: "https://api.groq.com/openai/v1/",
		APIKey:  "gsk_test",
	})
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}

	url, err := p.Endpoint(protocol.Tools)
	if err != nil {
		t.Fatalf("Endpoint failed: %v", err)
	}
	if url != "https://api.groq.com/openai/v1/chat/completions" {
		t.Errorf("got endpoint %q", url)
	}

	if _, err := p.Endpoint(protocol.Protocol("audio")); err == nil {
		t.Error("expected error for unsupported protocol")
	}

	req := httptest.NewRequest("POST", url, nil)
	p.SetHeaders(req)
	if got := req.Header.Get("Authorization"); got != "Bearer gsk_test" {
		t.Errorf("got Authorization %q", got)
	}
	if got := req.Header.Get("Content-Type"); got != "application/json" {
		t.Errorf("got Content-Type %q", got)
	}
}
