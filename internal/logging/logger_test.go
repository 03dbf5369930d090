package logging_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/tagdeck/internal/config"
	"github.com/five82/tagdeck/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerFormatsLine(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "console.log")

	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.With("component", "workflow").Info("phase changed",
		"phase", "editing",
		"session_id", "s1",
		"error", errors.New("boom here"),
	)
	logger.Debug("hidden")

	content := readLog(t, logPath)
	for _, want := range []string{" INFO workflow: phase changed", "phase=editing", "session_id=s1", `error="boom here"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("log %q missing %q", content, want)
		}
	}
	if strings.Contains(content, "hidden") {
		t.Fatalf("debug record written at info level: %q", content)
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")

	logger, err := logging.New(logging.Options{Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.WithGroup("backend").Debug("request", "path", "/extract")

	content := readLog(t, logPath)
	if !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
	if !strings.Contains(content, "backend.path=/extract") {
		t.Fatalf("expected grouped key, got %q", content)
	}
}

func TestJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("upload failed", "status", 413)

	var record map[string]any
	if err := json.Unmarshal([]byte(readLog(t, logPath)), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" || record["msg"] != "upload failed" {
		t.Fatalf("record = %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("record missing ts: %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.LogFile = filepath.Join(t.TempDir(), "tagdeck.log")

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")
	if !strings.Contains(readLog(t, cfg.LogFile), "hello") {
		t.Fatal("expected record in configured log file")
	}

	cfg.LogFile = ""
	if _, err := logging.NewFromConfig(cfg); err != nil {
		t.Fatalf("NewFromConfig without file returned error: %v", err)
	}
}
