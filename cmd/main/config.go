package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// Config holds the settings that can be kept in a JSON config file. Command
// line flags override whatever the file says.
type Config struct {
	LogLevel     string  `json:"log_level"`
	Order        int     `json:"order"`
	Granularity  string  `json:"granularity"`
	Workers      int     `json:"workers"`
	MaxLength    int     `json:"max_length"`
	Temperature  float64 `json:"temperature"`
	TopK         int     `json:"top_k"`
	DatabasePath string  `json:"database_path"`
	ModelName    string  `json:"model_name"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "warn",
		Order:        1,
		Granularity:  granularityWord,
		Workers:      1,
		MaxLength:    0,
		Temperature:  1.0,
		TopK:         0,
		DatabasePath: "",
		ModelName:    "default",
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Defaults still work, so this is not fatal.
				logger.Warn("Failed to write default config file", "path", path, "error", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// Validate rejects settings the generator cannot work with.
func (c *Config) Validate() error {
	if c.Order < 1 {
		return fmt.Errorf("order must be at least 1, got %d", c.Order)
	}
	if c.Granularity != granularityWord && c.Granularity != granularityLine {
		return fmt.Errorf("unknown granularity %q (want %q or %q)", c.Granularity, granularityWord, granularityLine)
	}
	if c.MaxLength < 0 {
		return fmt.Errorf("max length cannot be negative, got %d", c.MaxLength)
	}
	if c.TopK < 0 {
		return fmt.Errorf("top-k cannot be negative, got %d", c.TopK)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger writes structured logs to w, which is stderr outside tests so
// that stdout only carries generated text.
func newLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLogLevel(level)}))
}
