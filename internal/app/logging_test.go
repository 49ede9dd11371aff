package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dshills/gridstorm/internal/grid/core"
)

var _ core.Logger = (*Logger)(nil)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"warning", LogLevelWarn},
		{"ERROR", LogLevelError},
		{"chatty", LogLevelInfo},
		{"", LogLevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLogLevel(tt.input); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestLoggerLevelsAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelWarn, Output: &buf, Prefix: "gridstorm"})

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("cache %d/%d", 10, 20)
	logger.Error("render failed")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("output contains filtered messages: %s", out)
	}
	if !strings.Contains(out, "[WARN] gridstorm: cache 10/20") {
		t.Errorf("output missing formatted warning: %s", out)
	}
	if !strings.Contains(out, "[ERROR] gridstorm: render failed") {
		t.Errorf("output missing error: %s", out)
	}
}

func TestLoggerComponentField(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf})
	grid := base.WithComponent("grid")

	grid.Info("frame")
	if !strings.Contains(buf.String(), "{component=grid}") {
		t.Errorf("output = %q, want component field", buf.String())
	}

	buf.Reset()
	base.Info("frame")
	if strings.Contains(buf.String(), "component") {
		t.Errorf("WithComponent modified the parent logger: %q", buf.String())
	}
}

func TestLookupLogLevel(t *testing.T) {
	if l, ok := LookupLogLevel(" Warning "); !ok || l != LogLevelWarn {
		t.Errorf("LookupLogLevel(Warning) = %s, %v, want WARN, true", l, ok)
	}
	if _, ok := LookupLogLevel("verbose"); ok {
		t.Error("LookupLogLevel(verbose) ok = true, want false")
	}
}

func TestLoggerFieldsSorted(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf}).
		WithField("row", 4).
		WithFields(map[string]any{"col": 2, "component": "draw"}).
		WithField("row", 5)

	logger.Warn("panic")
	if !strings.Contains(buf.String(), "{col=2, component=draw, row=5}") {
		t.Errorf("output = %q, want sorted fields with replaced row", buf.String())
	}
}

func TestDerivedLoggersShareLevel(t *testing.T) {
	var buf bytes.Buffer
	root := NewLogger(LoggerConfig{Level: LogLevelInfo, Output: &buf})
	child := root.WithComponent("grid")

	child.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("child wrote %q below its level", buf.String())
	}
	root.SetLevel(LogLevelDebug)
	child.Debug("fetch")
	if !strings.Contains(buf.String(), "fetch") {
		t.Errorf("SetLevel on root did not reach child: %q", buf.String())
	}
	if child.Level() != LogLevelDebug {
		t.Errorf("child.Level() = %s, want DEBUG", child.Level())
	}
}

func TestLoggerSuppressesRepeats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf, RepeatWindow: time.Second})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	logger.sink.now = func() time.Time { return now }

	for range 5 {
		logger.Error("cell (1,2) draw panic: boom\nstack %d", 1)
	}
	logger.Error("other")
	if got := strings.Count(buf.String(), "draw panic"); got != 1 {
		t.Fatalf("draw panic lines = %d, want 1: %q", got, buf.String())
	}

	now = now.Add(2 * time.Second)
	buf.Reset()
	logger.Error("cell (1,2) draw panic: boom\nstack %d", 2)
	if !strings.Contains(buf.String(), "(repeated 4 times)") {
		t.Errorf("output = %q, want repeat count", buf.String())
	}
}

func TestLoggerDisable(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{Level: LogLevelDebug, Output: &buf})
	logger.Disable()
	logger.Error("dropped")
	if buf.Len() != 0 {
		t.Errorf("disabled logger wrote %q", buf.String())
	}
	logger.Enable()
	logger.Error("kept")
	if buf.Len() == 0 {
		t.Error("enabled logger wrote nothing")
	}

	NullLogger.Error("never panics")
}

func TestOpenLogger(t *testing.T) {
	logger, closeFn, err := OpenLogger("debug", "")
	if err != nil || logger == nil || closeFn == nil {
		t.Fatalf("OpenLogger(stderr) = %v, %v", logger, err)
	}
	if err := closeFn(); err != nil {
		t.Errorf("close() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "grid.log")
	logger, closeFn, err = OpenLogger("warn", path)
	if err != nil {
		t.Fatalf("OpenLogger(file) error = %v", err)
	}
	logger.Info("skipped")
	logger.Warn("written")
	if err := closeFn(); err != nil {
		t.Fatalf("close() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "skipped") || !strings.Contains(string(data), "written") {
		t.Errorf("log file = %q", data)
	}

	if _, _, err := OpenLogger("info", filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("OpenLogger(bad path) error = nil")
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig()
	if cfg.Level != LogLevelInfo {
		t.Errorf("Level = %s, want INFO", cfg.Level)
	}
	if cfg.Prefix != "gridstorm" {
		t.Errorf("Prefix = %q, want gridstorm", cfg.Prefix)
	}
}
