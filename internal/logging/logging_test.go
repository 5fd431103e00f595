package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestNew_TextFormat tests the text handler
func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatText, Output: &buf})

	logger.Info("connection opened", "handle", 1)

	out := buf.String()
	if !strings.Contains(out, "connection opened") || !strings.Contains(out, "handle=1") {
		t.Errorf("Unexpected text output: %s", out)
	}
}

// TestNew_JSONFormat tests the JSON handler
func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Info("connection opened", "handle", 1)

	out := buf.String()
	if !strings.Contains(out, `"msg":"connection opened"`) {
		t.Errorf("Unexpected JSON output: %s", out)
	}
}

// TestNew_LevelFiltering tests that lower levels are dropped
func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Error("Expected info message to be filtered out")
	}
	if !strings.Contains(out, "kept") {
		t.Error("Expected warn message to pass")
	}
}

// TestParseLevel tests level parsing
func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q): expected error, got none", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseLevel(%q): expected no error, got: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

// TestNop tests the no-op logger
func TestNop(t *testing.T) {
	logger := Nop()
	if logger == nil {
		t.Fatal("Expected a logger, got nil")
	}
	logger.Error("goes nowhere")
}
