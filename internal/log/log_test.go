package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func captureLogs(t *testing.T, format string) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf, format)))
	t.Cleanup(func() {
		ReplaceLogger(original)
		_ = SetLevel("info")
	})
	return buf
}

func TestInfoProducesLogfmtWithTimestamp(t *testing.T) {
	buf := captureLogs(t, FormatText)

	Info(context.Background(), "hello", "user", "test")

	line := strings.TrimSpace(buf.String())
	for _, field := range []string{"ts=", "level=info", "msg=hello", "user=test"} {
		if !strings.Contains(line, field) {
			t.Fatalf("expected %q in log line, got %q", field, line)
		}
	}
}

func TestContextIDsAreAttached(t *testing.T) {
	buf := captureLogs(t, FormatText)

	ctx := WithUserID(WithRequestID(context.Background(), "req-123"), 42)
	Info(ctx, "scaled recipe", "recipe", 7)

	line := strings.TrimSpace(buf.String())
	for _, field := range []string{"request_id=req-123", "user_id=42", "recipe=7"} {
		if !strings.Contains(line, field) {
			t.Fatalf("expected %q in log line, got %q", field, line)
		}
	}
}

func TestZeroUserIDIsOmitted(t *testing.T) {
	buf := captureLogs(t, FormatText)

	Info(WithUserID(context.Background(), 0), "anonymous")

	if strings.Contains(buf.String(), "user_id") {
		t.Fatalf("expected no user id for anonymous request, got %q", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	buf := captureLogs(t, FormatJSON)

	Warn(WithRequestID(context.Background(), "req-9"), "sub-recipe missing", "recipe_id", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a JSON line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "warn" || entry["msg"] != "sub-recipe missing" || entry["request_id"] != "req-9" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
}

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() {
		_ = SetLevel("info")
	})

	for _, level := range []string{"debug", "INFO", " warn ", "error", ""} {
		if err := SetLevel(level); err != nil {
			t.Fatalf("SetLevel(%q) returned error: %v", level, err)
		}
	}
	if err := SetLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestSetFormat(t *testing.T) {
	original := Logger()
	t.Cleanup(func() {
		ReplaceLogger(original)
	})

	for _, format := range []string{"json", " TEXT ", ""} {
		if err := SetFormat(format); err != nil {
			t.Fatalf("SetFormat(%q) returned error: %v", format, err)
		}
	}
	if err := SetFormat("xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	buf := captureLogs(t, FormatText)

	if err := SetLevel("info"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	Debug(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected debug line to be suppressed, got %q", buf.String())
	}
}
