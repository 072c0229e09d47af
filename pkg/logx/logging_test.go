package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCriticalRendersWithoutExit(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "debug").With(String("comp", "test"))

	log.Critical("token missing", String("name", "API_TOKEN"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if m["level"] != "critical" {
		t.Fatalf("level = %v, want critical", m["level"])
	}
	if m["name"] != "API_TOKEN" || m["comp"] != "test" {
		t.Fatalf("unexpected fields: %v", m)
	}
	if c, _ := m["caller"].(string); !strings.HasPrefix(c, "logging_test.go:") {
		t.Fatalf("caller = %q, want logging_test.go:<line>", c)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, "warn")

	log.Info("hidden")
	log.Error("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info line leaked at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("error line missing: %s", buf.String())
	}
	if log.Enabled(LevelDebug) {
		t.Fatal("debug should be disabled at warn level")
	}
}

func TestServiceWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	svc, log := New(Config{Level: "debug", File: FileConfig{Enabled: true, Path: path, MaxSizeMB: 1}})

	log.Info("poll ok", Int64("cursor", 1700000000))
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), `"cursor":1700000000`) {
		t.Fatalf("log file missing structured field: %s", b)
	}
}

func TestServiceUnwritableFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	svc, log := New(Config{Level: "info", File: FileConfig{Enabled: true, Path: filepath.Join(blocker, "bot.log")}})
	defer svc.Close()

	// Must not panic.
	log.Error("still alive")
	if svc.file != nil {
		t.Fatal("expected file sink to be disabled")
	}
}

func TestZeroLoggerIsNop(t *testing.T) {
	var log Logger
	if !log.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	log.Critical("ignored")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":    LevelDebug,
		" INFO ":   LevelInfo,
		"warning":  LevelWarn,
		"critical": LevelCritical,
		"bogus":    LevelError,
	}
	for in, want := range cases {
		if got := parseLevel(in, LevelError); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
