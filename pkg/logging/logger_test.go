package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/offlinefirst/keylog/pkg/config"
)

func TestNewJSONLoggerWritesRFC3339(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer closer.Close()

	logger.Info("hello", "session_id", "abc")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record %q: %v", buf.String(), err)
	}
	if record["msg"] != "hello" || record["session_id"] != "abc" {
		t.Fatalf("unexpected record: %v", record)
	}
	ts, _ := record["time"].(string)
	if !strings.HasSuffix(ts, "Z") {
		t.Fatalf("expected UTC RFC3339 time, got %q", ts)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer closer.Close()

	logger.Info("quiet")
	logger.Warn("loud")

	if strings.Contains(buf.String(), "quiet") {
		t.Fatalf("info record should be filtered at warn level")
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Fatalf("expected warn record, got %q", buf.String())
	}
}

func TestNewRejectsUnknownOptions(t *testing.T) {
	if _, _, err := New(Options{Level: "trace"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if _, _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestNewMirrorsToRotatingFile(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default().Logging
	cfg.File = filepath.Join(dir, "diag.log")

	var buf bytes.Buffer
	logger, closer, err := New(FromConfig(cfg, &buf))
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Info("mirrored")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		t.Fatalf("read diagnostic log: %v", err)
	}
	if !strings.Contains(string(data), "mirrored") || !strings.Contains(buf.String(), "mirrored") {
		t.Fatalf("expected record in both outputs, file=%q stderr=%q", data, buf.String())
	}
}
