package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_LevelGating(t *testing.T) {
	var buf bytes.Buffer
	logger := New(false, &buf)
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug line to be suppressed at info level, got %q", buf.String())
	}

	logger.Info("shown")
	if buf.Len() == 0 {
		t.Fatalf("expected info line to be written")
	}
}

func TestNew_DebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := New(true, &buf)
	logger.Debug("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected debug line to be written, got %q", buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got error: %v", err)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(true, &buf)
	scoped := Component(base, "discovery")
	scoped.Info("starting")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got error: %v", err)
	}
	if entry["component"] != "discovery" {
		t.Fatalf("expected component=discovery, got %v", entry["component"])
	}
}

func TestComponent_NilLogger(t *testing.T) {
	if Component(nil, "x") != nil {
		t.Fatalf("expected nil logger to pass through")
	}
}
