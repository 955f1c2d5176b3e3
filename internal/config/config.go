// Package config provides the configuration schema and loader for the Tashih
// transcription pipeline.
package config

import "log/slog"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog converts l to the corresponding [slog.Level]. Unset maps to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Rules    RulesConfig    `yaml:"rules"`
	Mapping  MappingConfig  `yaml:"mapping"`
	Feedback FeedbackConfig `yaml:"feedback"`
}

// ServerConfig holds logging settings.
type ServerConfig struct {
	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// RulesConfig selects the rule tables.
type RulesConfig struct {
	// Path points to a YAML rule-table file. Empty uses the embedded
	// default tables.
	Path string `yaml:"path"`
}

// MappingConfig overrides the terminology mapper's context-enhancement
// parameters. Zero values keep the mapper's defaults.
type MappingConfig struct {
	// ContextWindow is the number of runes inspected on each side of a
	// match when looking for temporal or severity markers.
	ContextWindow int `yaml:"context_window"`

	// TemporalBoost is added to a match's confidence when a temporal
	// marker appears in its context window.
	TemporalBoost float64 `yaml:"temporal_boost"`

	// SeverityBoost is added to a match's confidence when a severity
	// marker appears in its context window.
	SeverityBoost float64 `yaml:"severity_boost"`
}

// FeedbackConfig configures the clinician feedback store.
type FeedbackConfig struct {
	// Path is the JSON-lines file feedback records are appended to.
	// Empty disables feedback storage.
	Path string `yaml:"path"`
}
