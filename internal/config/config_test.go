package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
  json: true
telegram:
  token: "123:abc"
  bot_username: "sample_bot"
polling:
  timeout: 10
  allowed_updates: [message, callback_query]
conversation:
  ttl: 2h
scheduler:
  tasks:
    sql_maintenance:
      enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Logger.Level != "debug" || !cfg.Logger.JSON {
		t.Errorf("Logger = %+v", cfg.Logger)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.BotUsername != "sample_bot" {
		t.Errorf("Telegram = %+v", cfg.Telegram)
	}
	if cfg.Telegram.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v, want default 30s", cfg.Telegram.RequestTimeout)
	}
	if cfg.Polling.Timeout != 10 || cfg.Polling.Limit != 100 {
		t.Errorf("Polling = %+v", cfg.Polling)
	}
	if got := strings.Join(cfg.Polling.AllowedUpdates, ","); got != "message,callback_query" {
		t.Errorf("AllowedUpdates = %q", got)
	}
	if cfg.Conversation.TTL != 2*time.Hour {
		t.Errorf("TTL = %v, want 2h", cfg.Conversation.TTL)
	}
	if cfg.Commands.Prefix != "/" {
		t.Errorf("Prefix = %q, want default /", cfg.Commands.Prefix)
	}
	if task := cfg.Scheduler.Tasks["sql_maintenance"]; task.Enabled {
		t.Errorf("sql_maintenance = %+v, want disabled", task)
	}
	if task := cfg.Scheduler.Tasks["conversation_expiry"]; !task.Enabled || task.Schedule == "" {
		t.Errorf("conversation_expiry = %+v, want default schedule", task)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "telegram:\n  token: from-file\n")
	t.Setenv("TGBOT_TELEGRAM_TOKEN", "from-env")
	t.Setenv("TGBOT_POLLING_LIMIT", "5")
	t.Setenv("TGBOT_COMMANDS_PREFIX", "!")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Errorf("Token = %q, want from-env", cfg.Telegram.Token)
	}
	if cfg.Polling.Limit != 5 {
		t.Errorf("Limit = %d, want 5", cfg.Polling.Limit)
	}
	if cfg.Commands.Prefix != "!" {
		t.Errorf("Prefix = %q, want !", cfg.Commands.Prefix)
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("TGBOT_TELEGRAM_TOKEN", "123:abc")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Database.Path != "storage.db" {
		t.Errorf("Database.Path = %q, want storage.db", cfg.Database.Path)
	}
	if r := cfg.Telegram.Resilience; r.MaxFailures != 5 || r.RetryAttempts != 3 || r.ResetTimeout != 30*time.Second {
		t.Errorf("Resilience = %+v", r)
	}
	if cfg.Messages.Format != "text" {
		t.Errorf("Messages.Format = %q, want text", cfg.Messages.Format)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing token", "log:\n  level: info\n"},
		{"bad level", "telegram:\n  token: x\nlog:\n  level: loud\n"},
		{"limit out of range", "telegram:\n  token: x\npolling:\n  limit: 500\n"},
		{"enabled task without schedule", "telegram:\n  token: x\nscheduler:\n  tasks:\n    nightly:\n      enabled: true\n"},
		{"malformed yaml", "telegram: [\n"},
		{"unknown message format", "telegram:\n  token: x\nmessages:\n  format: rtf\n"},
		{"no retry attempts", "telegram:\n  token: x\n  resilience:\n    retry_attempts: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("LoadConfig() error = nil")
			}
			if apperrors.Code(err) != apperrors.CodeConfiguration {
				t.Errorf("Code(%v) = %q, want %q", err, apperrors.Code(err), apperrors.CodeConfiguration)
			}
		})
	}
}
