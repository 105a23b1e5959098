package log

import (
	"errors"
	"fmt"
	"path/filepath"
)

// LogCfg configures the default logger. Field tags follow the mapstructure
// convention so the struct can be decoded straight from a config file section.
type LogCfg struct {
	// LogPath is the target file when FileAppender is enabled.
	LogPath string `mapstructure:"path"`

	// LogLevel is the minimum level written, by name ("debug", "info", ...).
	LogLevel string `mapstructure:"level"`

	// CallerSkip is the number of extra stack frames to skip when resolving caller info.
	CallerSkip int `mapstructure:"callerSkip"`

	// FileAppender enables writing to LogPath.
	FileAppender bool `mapstructure:"fileAppender"`

	// ConsoleAppender enables writing to stdout.
	ConsoleAppender bool `mapstructure:"consoleAppender"`

	EnabledCallerInfo bool `mapstructure:"enabledCallerInfo"`
}

// Validate checks the configuration and normalizes LogPath.
func (cfg *LogCfg) Validate() error {
	if cfg.CallerSkip < 0 {
		return fmt.Errorf("caller skip must be non-negative, got %d", cfg.CallerSkip)
	}
	if cfg.FileAppender {
		if cfg.LogPath == "" {
			return errors.New("log path cannot be empty when file appender is enabled")
		}
		cfg.LogPath = filepath.Clean(cfg.LogPath)
	}
	if !cfg.FileAppender && !cfg.ConsoleAppender {
		return errors.New("at least one appender (file or console) must be enabled")
	}
	return nil
}

// Level returns the parsed minimum level.
func (cfg *LogCfg) Level() Level {
	if cfg.LogLevel == "" {
		return InfoLevel
	}
	return ParseLevel(cfg.LogLevel)
}

func getDefaultCfg() *LogCfg {
	return &LogCfg{
		LogLevel:          "info",
		CallerSkip:        1,
		ConsoleAppender:   true,
		EnabledCallerInfo: true,
	}
}
