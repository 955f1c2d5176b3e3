package config_test

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/hakimlabs/tashih/internal/config"
)

func TestLoadFromReader_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(`
server:
  log_level: debug
rules:
  path: /etc/tashih/rules.yaml
mapping:
  context_window: 40
  temporal_boost: 0.15
feedback:
  path: /var/lib/tashih/feedback.jsonl
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want %q", cfg.Server.LogLevel, config.LogDebug)
	}
	if cfg.Rules.Path != "/etc/tashih/rules.yaml" {
		t.Errorf("Rules.Path = %q, want the configured path", cfg.Rules.Path)
	}
	if cfg.Mapping.ContextWindow != 40 {
		t.Errorf("ContextWindow = %d, want 40", cfg.Mapping.ContextWindow)
	}
	if cfg.Feedback.Path != "/var/lib/tashih/feedback.jsonl" {
		t.Errorf("Feedback.Path = %q, want the configured path", cfg.Feedback.Path)
	}
}

func TestLoadFromReader_EmptyConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty default", cfg.Server.LogLevel)
	}
}

func TestLoadFromReader_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "bogus: true",
			wantErr: "decode yaml",
		},
		{
			name:    "invalid log level",
			yaml:    "server:\n  log_level: loud",
			wantErr: "server.log_level",
		},
		{
			name:    "negative context window",
			yaml:    "mapping:\n  context_window: -1",
			wantErr: "mapping.context_window",
		},
		{
			name:    "boost out of range",
			yaml:    "mapping:\n  temporal_boost: 2.0",
			wantErr: "mapping.temporal_boost",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.LoadFromReader(strings.NewReader(tc.yaml))
			if err == nil {
				t.Fatal("LoadFromReader: expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLogLevel_Slog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level config.LogLevel
		want  slog.Level
	}{
		{config.LogDebug, slog.LevelDebug},
		{config.LogInfo, slog.LevelInfo},
		{config.LogWarn, slog.LevelWarn},
		{config.LogError, slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, tc := range tests {
		if got := tc.level.Slog(); got != tc.want {
			t.Errorf("LogLevel(%q).Slog() = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := config.Load("does-not-exist.yaml"); err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}
