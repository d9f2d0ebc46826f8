package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestInfoProducesLogfmtWithTimestamp(t *testing.T) {
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)))
	t.Cleanup(func() {
		ReplaceLogger(original)
	})

	Info(context.Background(), "hello", "user", "test")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatalf("expected log output, got empty string")
	}
	if !strings.Contains(line, "ts=") {
		t.Fatalf("expected timestamp field in log line, got %q", line)
	}
	if !strings.Contains(line, "level=info") {
		t.Fatalf("expected level field in log line, got %q", line)
	}
	if !strings.Contains(line, "msg=hello") {
		t.Fatalf("expected message field in log line, got %q", line)
	}
	if !strings.Contains(line, "user=test") {
		t.Fatalf("expected structured field in log line, got %q", line)
	}
}

func TestSetLevelFiltersMessages(t *testing.T) {
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)))
	t.Cleanup(func() {
		ReplaceLogger(original)
		_ = SetLevel("info")
	})

	if err := SetLevel("WARN"); err != nil {
		t.Fatalf("SetLevel(WARN) error = %v", err)
	}

	Info(context.Background(), "recipe listed")
	Warn(context.Background(), "favorite conflict", "recipe", 3)

	output := buf.String()
	if strings.Contains(output, "recipe listed") {
		t.Fatalf("expected info message to be filtered, got %q", output)
	}
	if !strings.Contains(output, "level=warn") || !strings.Contains(output, "recipe=3") {
		t.Fatalf("expected warn line, got %q", output)
	}
}

func TestSetLevelRejectsUnknownLevel(t *testing.T) {
	if err := SetLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)).With("component", "api"))
	t.Cleanup(func() {
		ReplaceLogger(original)
	})

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "host/abc-000001")
	Info(ctx, "recipe created", "recipe", 7)
	Info(context.Background(), "startup")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two log lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "requestID=host/abc-000001") || !strings.Contains(lines[0], "component=api") {
		t.Fatalf("expected request id and logger attrs, got %q", lines[0])
	}
	if strings.Contains(lines[1], "requestID=") {
		t.Fatalf("expected no request id without request context, got %q", lines[1])
	}
}
