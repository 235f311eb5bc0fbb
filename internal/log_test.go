package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"ERROR": LogLevelError,
		"warn":  LogLevelWarn,
		"":      LogLevelInfo,
		"DEBUG": LogLevelDebug,
		"trace": LogLevelTrace,
		"bogus": LogLevelInfo,
	}
	for input, expected := range tests {
		if got := ParseLogLevel(input); got != expected {
			t.Errorf("ParseLogLevel(%q) = %d, expected %d", input, got, expected)
		}
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(LogLevelWarn, &buf).With("Ledger")

	logger.Info("hidden %d", 1)
	logger.Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO line leaked at WARN level: %q", out)
	}
	if !strings.Contains(out, "[WARN] [Ledger] shown 2") {
		t.Errorf("Expected tagged WARN line, got %q", out)
	}
}
