package session_test

import (
	"testing"

	"github.com/tailored-agentic-units/insight/session"
)

func TestDefaultConfig(t *testing.T) {
	cfg := session.DefaultConfig()
	if cfg.Welcome != session.DefaultWelcome {
		t.Errorf("Welcome = %q, want %q", cfg.Welcome, session.DefaultWelcome)
	}
}

func TestConfig_Merge(t *testing.T) {
	tests := []struct {
		name   string
		source session.Config
		want   string
	}{
		{"empty keeps default", session.Config{}, session.DefaultWelcome},
		{"override", session.Config{Welcome: "Hi."}, "Hi."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := session.DefaultConfig()
			cfg.Merge(&tt.source)
			if cfg.Welcome != tt.want {
				t.Errorf("Welcome = %q, want %q", cfg.Welcome, tt.want)
			}
		})
	}
}

func TestNewStore_CustomWelcome(t *testing.T) {
	store := session.NewStore(session.Config{Welcome: "Hello there."})
	sess := store.Create()

	msgs := sess.Messages()
	if len(msgs) != 1 || msgs[0].Content != "Hello there." {
		t.Errorf("messages = %+v", msgs)
	}
}
