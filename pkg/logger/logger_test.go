package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithUserID(ctx, "user-9")
	ctx = logg.WithOrderID(ctx, "FL-20260901-ABCDE")
	logg.Info(ctx, "checkout.start")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v", err)
	}
	if entry["request_id"] != "req-123" || entry["user_id"] != "user-9" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if entry["order_id"] != "FL-20260901-ABCDE" {
		t.Fatalf("missing order id: %v", entry)
	}
	if entry["service"] != "test" {
		t.Fatalf("missing service field: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("warn") != zerolog.WarnLevel {
		t.Fatal("expected warn level")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty level should default to info")
	}
	if ParseLevel("nonsense") != zerolog.InfoLevel {
		t.Fatal("bad level should default to info")
	}
}
