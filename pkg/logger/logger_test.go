package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesServiceAndFields(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "monitor-worker", Output: &buf})

	ctx := logg.WithFields(context.Background(), map[string]any{
		"order_id": "abc",
		"job":      "order-monitoring",
	})
	logg.Info(ctx, "scan complete")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v (%s)", err, buf.String())
	}
	if entry["service"] != "monitor-worker" {
		t.Fatalf("missing service field: %v", entry)
	}
	if entry["order_id"] != "abc" || entry["job"] != "order-monitoring" {
		t.Fatalf("context fields not propagated: %v", entry)
	}
	if entry["message"] != "scan complete" {
		t.Fatalf("unexpected message: %v", entry["message"])
	}
}

func TestWithFieldDoesNotMutateParentContext(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "api", Output: &buf})

	parent := context.Background()
	_ = logg.WithField(parent, "vendor_id", "v1")
	logg.Info(parent, "no vendor")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	if _, ok := entry["vendor_id"]; ok {
		t.Fatal("parent context should not carry the child field")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"debug": zerolog.DebugLevel,
		"WARN":  zerolog.WarnLevel,
		"bogus": zerolog.InfoLevel,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
