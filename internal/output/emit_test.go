package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewEmitSink_Validation(t *testing.T) {
	if _, err := NewEmitSink(nil, "json"); err == nil {
		t.Fatalf("expected error for nil writer")
	}
	if _, err := NewEmitSink(&bytes.Buffer{}, "yaml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestEmitSink_NDJSONWrapsResults(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "ndjson")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}

	if err := s.Write(Event{Type: EventTargetStarted, RunID: "run-1", Target: "/a"}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Write(TargetResult{Status: StatusOK, Target: "/a", Path: "/a/ROADMAP.md", Bytes: 10}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}

	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 2 is not JSON: %v", err)
	}
	if second["type"] != EventTargetResult {
		t.Fatalf("type = %v, want %s", second["type"], EventTargetResult)
	}
	if second["status"] != "OK" || second["path"] != "/a/ROADMAP.md" {
		t.Fatalf("embedded result fields missing: %v", second)
	}
}

func TestEmitSink_JSONIgnoresEvents(t *testing.T) {
	var buf bytes.Buffer
	s, err := NewEmitSink(&buf, "json")
	if err != nil {
		t.Fatalf("NewEmitSink returned error: %v", err)
	}
	_ = s.Write(Event{Type: EventRunFinished, ExitCode: 1})
	_ = s.Write(TargetResult{Status: StatusError, Target: "/b", Message: "boom"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	var got []TargetResult
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 1 || got[0].Message != "boom" {
		t.Fatalf("unexpected results: %+v", got)
	}
}
