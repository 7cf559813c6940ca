package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"DEBUG":   LevelDebug,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"info":    LevelInfo,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestLoggerFiltersBelowMinLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	log, err := New("warn", "text", path)
	if err != nil {
		t.Fatal(err)
	}

	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("this one should appear")

	content := readFile(t, path)
	if strings.Contains(content, "should not appear") {
		t.Errorf("log contains filtered-out lines: %q", content)
	}
	if !strings.Contains(content, "this one should appear") {
		t.Errorf("log missing expected line: %q", content)
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.json")
	log, err := New("info", "json", path)
	if err != nil {
		t.Fatal(err)
	}
	log.Error("disk %s", "full")

	content := readFile(t, path)
	if !strings.Contains(content, `"level":"ERROR"`) {
		t.Errorf("expected JSON level field, got %q", content)
	}
	if !strings.Contains(content, `"message":"disk full"`) {
		t.Errorf("expected formatted message field, got %q", content)
	}
}

func TestNopLoggerDiscardsEverything(t *testing.T) {
	log := Nop()
	log.Debug("x")
	log.Info("x")
	log.Warn("x")
	log.Error("x")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	log.Info("calling a method on a nil logger must not panic")
}
