package di

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nhle/neuralmail/internal/app"
	"github.com/nhle/neuralmail/internal/bridge"
	"github.com/nhle/neuralmail/internal/inference"
	"github.com/nhle/neuralmail/internal/model"
	"github.com/nhle/neuralmail/internal/store"
)

func writeConfig(t *testing.T, provider string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "ai:\n  provider: " + provider + "\n" +
		"store:\n  path: " + filepath.Join(dir, "data", "mail.db") + "\n" +
		"logging:\n  file: " + filepath.Join(dir, "logs", "neuralmail.log") + "\n" +
		"mail:\n  source: mock\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestBuildContainerResolvesApp(t *testing.T) {
	container, err := BuildContainer(writeConfig(t, "ollama"))
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}

	err = container.Invoke(func(
		m app.Model,
		relay *bridge.Relay,
		b *bridge.Bridge,
		sess *bridge.Session,
		s store.Store,
		cfg *model.AppConfig,
	) {
		defer s.Close()
		defer sess.Close()

		if cfg.Mail.Source != model.MailSourceMock {
			t.Errorf("mail.source = %q, want mock", cfg.Mail.Source)
		}
		if m.Init() == nil {
			t.Error("root model Init returned no command")
		}
		if !sess.Live() {
			t.Error("session closed before use")
		}
	})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		provider string
		want     string
		wantErr  bool
	}{
		{provider: "", want: "*inference.OllamaTransport"},
		{provider: "ollama", want: "*inference.OllamaTransport"},
		{provider: "OpenAI", want: "*inference.OpenAITransport"},
		{provider: "bedrock", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &model.AppConfig{AI: model.AIConfig{Provider: tt.provider}}
			tr, err := NewTransport(cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewTransport(%q) succeeded", tt.provider)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewTransport: %v", err)
			}
			if got := fmt.Sprintf("%T", tr); got != tt.want {
				t.Errorf("transport = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestBuildContainerRejectsUnknownProvider(t *testing.T) {
	container, err := BuildContainer(writeConfig(t, "carrier-pigeon"))
	if err != nil {
		t.Fatalf("BuildContainer: %v", err)
	}
	err = container.Invoke(func(*inference.Gateway) {})
	if err == nil {
		t.Error("Invoke succeeded with unknown provider")
	}
}
