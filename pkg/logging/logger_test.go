package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

// newBufferLogger 输出到内存缓冲的 JSON 日志器
func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Logger{Logger: slog.New(handler), component: component}, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var m map[string]any
	if err := json.Unmarshal(lines[len(lines)-1], &m); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	return m
}

func TestWithError(t *testing.T) {
	l, buf := newBufferLogger("test")

	l.WithError(errors.New("boom")).Error("operation failed")
	entry := lastEntry(t, buf)
	if entry["error"] != "boom" {
		t.Errorf("error attr = %v, want boom", entry["error"])
	}

	// nil 错误不追加属性
	if got := l.WithError(nil); got != l {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestWithContext(t *testing.T) {
	l, buf := newBufferLogger("api-server")

	ctx := context.WithValue(context.Background(), UserIDKey, "usr-1")
	ctx = context.WithValue(ctx, TripIDKey, "TRIP-9")
	l.WithContext(ctx).Info("handling")

	entry := lastEntry(t, buf)
	if entry["component"] != "api-server" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["user_id"] != "usr-1" || entry["trip_id"] != "TRIP-9" {
		t.Errorf("context attrs missing: %v", entry)
	}
}

func TestHTTPRequestLog(t *testing.T) {
	l, buf := newBufferLogger("api-server")

	l.HTTPRequestLog("POST", "/api/v1/auth/login", 200, 42*time.Millisecond, "10.0.0.1")
	entry := lastEntry(t, buf)
	if entry["method"] != "POST" || entry["path"] != "/api/v1/auth/login" {
		t.Errorf("request attrs wrong: %v", entry)
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
}

func TestAuthLog(t *testing.T) {
	l, buf := newBufferLogger("auth")

	l.AuthLog("login", "usr-1", "admin", nil)
	entry := lastEntry(t, buf)
	if entry["action"] != "login" || entry["role"] != "admin" {
		t.Errorf("auth attrs wrong: %v", entry)
	}

	l.AuthLog("login", "usr-2", "commuter", errors.New("bad password"))
	entry = lastEntry(t, buf)
	if entry["error"] != "bad password" {
		t.Errorf("error attr = %v", entry["error"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", entry["level"])
	}
}
