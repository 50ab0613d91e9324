package telemetry

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestInfoWritesJSONLine(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("ingest.summary", map[string]any{"processed": 3})

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	for _, key := range []string{"ts", "level", "msg", "processed"} {
		if _, ok := payload[key]; !ok {
			t.Fatalf("missing log field: %s", key)
		}
	}
	if payload["level"] != "info" || payload["msg"] != "ingest.summary" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Error("http.error", nil)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["level"] != "error" {
		t.Fatalf("expected error level, got %v", payload["level"])
	}
}

func TestTimestampsAreUTC(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf)
	berlin := time.FixedZone("CEST", 2*60*60)

	l.WithTime(time.Date(2024, 6, 15, 14, 0, 0, 0, berlin)).Info("tick")

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode log json: %v", err)
	}
	if payload["ts"] != "2024-06-15T12:00:00Z" {
		t.Fatalf("expected UTC timestamp, got %v", payload["ts"])
	}
	if _, ok := l.Formatter.(utcFormatter); !ok {
		t.Fatalf("unexpected formatter %T", l.Formatter)
	}
}
