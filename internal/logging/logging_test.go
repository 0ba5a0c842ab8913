package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "warn"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("hidden message")
	logger.Warn("overlay resource not found", "identifier", "Server/World/Default/x.json")

	out := buf.String()
	if strings.Contains(out, "hidden message") {
		t.Errorf("info message should be filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "overlay resource not found") || !strings.Contains(out, "Server/World/Default/x.json") {
		t.Errorf("warn message missing from output:\n%s", out)
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Format: "json"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("overlay applied", "merged", 3)

	out := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"merged":3`) {
		t.Errorf("unexpected JSON output: %s", out)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, Options{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
		t.Error("expected error for invalid format")
	}
}
