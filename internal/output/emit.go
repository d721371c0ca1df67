package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an additional structured stream.
//
// Formats:
//   - json: aggregates target results and writes a single JSON array on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer  io.Writer
	format  string // "json" | "ndjson"
	mu      sync.Mutex
	results []TargetResult
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeStructured(s.writer, s.format, v, &s.results)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.format == "json" {
		return writeJSONArray(s.writer, s.results)
	}
	return nil
}

// writeStructured handles the json/ndjson formats shared by the emit and
// console sinks. In json mode results are collected into acc.
func writeStructured(w io.Writer, format string, v any, acc *[]TargetResult) error {
	switch format {
	case "json":
		r, ok := v.(TargetResult)
		if !ok {
			// Ignore lifecycle events in JSON aggregate mode.
			return nil
		}
		*acc = append(*acc, r)
		return nil
	case "ndjson":
		var e Event
		switch t := v.(type) {
		case Event:
			e = t
		case TargetResult:
			e = eventFromResult(t)
		default:
			return nil
		}
		if err := json.NewEncoder(w).Encode(e); err != nil {
			return err
		}
		return flushIfPossible(w)
	default:
		return fmt.Errorf("unsupported structured format: %s", format)
	}
}

func writeJSONArray(w io.Writer, results []TargetResult) error {
	if results == nil {
		results = []TargetResult{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return err
	}
	return flushIfPossible(w)
}

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}
