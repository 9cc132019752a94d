package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"INFO":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestLoggerWritesConsoleAndFile(t *testing.T) {
	var buf bytes.Buffer
	logFile := filepath.Join(t.TempDir(), "genefit.log")

	l := NewLogger(Options{Console: &buf, LogFile: logFile})
	l.Component("tracker").Info().Str("jobId", "r1").Msg("polling started")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !strings.Contains(buf.String(), "polling started") {
		t.Errorf("console output missing message: %q", buf.String())
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"component":"tracker"`) || !strings.Contains(string(data), `"jobId":"r1"`) {
		t.Errorf("log file missing structured fields: %s", data)
	}
}

func TestSetOutputRedirects(t *testing.T) {
	var first, second bytes.Buffer
	l := NewLogger(Options{Console: &first})
	l.SetOutput(&second)
	l.Warnf("retrying %d", 2)

	if first.Len() != 0 {
		t.Errorf("old writer should not receive logs, got %q", first.String())
	}
	if !strings.Contains(second.String(), "retrying 2") {
		t.Errorf("new writer missing message: %q", second.String())
	}
	if l.Output() != &second {
		t.Error("Output() should return the new writer")
	}
}
