package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name      string
		level     LogLevel
		logAt     zerolog.Level
		wantEntry bool
	}{
		{"info logs info", LevelInfo, zerolog.InfoLevel, true},
		{"info drops debug", LevelInfo, zerolog.DebugLevel, false},
		{"debug logs debug", LevelDebug, zerolog.DebugLevel, true},
		{"warn drops info", LevelWarn, zerolog.InfoLevel, false},
		{"error logs error", LevelError, zerolog.ErrorLevel, true},
		{"disabled drops error", LevelDisabled, zerolog.ErrorLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := Setup(Config{Level: tt.level, Output: &buf})

			logger.WithLevel(tt.logAt).Msg("test message")

			got := strings.Contains(buf.String(), "test message")
			if got != tt.wantEntry {
				t.Errorf("entry written = %v, want %v (output %q)", got, tt.wantEntry, buf.String())
			}
		})
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input LogLevel
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	Setup(Config{Level: LevelInfo, Output: &buf})

	logger := NewLogger("download")
	logger.Info().Msg("hello")

	if !strings.Contains(buf.String(), `"component":"download"`) {
		t.Errorf("component field missing: %q", buf.String())
	}
}
