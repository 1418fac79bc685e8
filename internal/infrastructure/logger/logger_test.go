package logger

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewSetsLevel(t *testing.T) {
	log := New(Config{Level: "error", Format: "json"})

	if log.GetLevel() != zerolog.ErrorLevel {
		t.Fatalf("expected error level, got %v", log.GetLevel())
	}
}

func TestNewJSONOutput(t *testing.T) {
	output := captureStdout(t, func() {
		log := New(Config{Level: "info", Format: "json"})
		log.Info().Msg("hello")
	})

	if !strings.Contains(output, `"message":"hello"`) {
		t.Fatalf("expected json output with message field, got %q", output)
	}
}

func TestNewConsoleOutput(t *testing.T) {
	output := captureStdout(t, func() {
		log := New(Config{Level: "info", Format: "console"})
		log.Info().Msg("hello")
	})

	if output == "" {
		t.Fatalf("expected console output, got empty string")
	}
	if strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Fatalf("expected console output, got json: %q", output)
	}
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
	}()

	fn()

	_ = w.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("failed to read stdout: %v", err)
	}

	return buf.String()
}
