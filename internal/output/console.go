package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	results         []TargetResult // For JSON array output
	allowedStatuses map[Status]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[Status]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[Status(strings.ToUpper(st))] = true
		}
	}

	return s
}

var statusColors = map[Status]*color.Color{
	StatusOK:     color.New(color.FgGreen, color.Bold),
	StatusError:  color.New(color.FgRed, color.Bold),
	StatusDryRun: color.New(color.FgYellow, color.Bold),
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.allowedStatuses) > 0 {
		if r, ok := v.(TargetResult); ok && !s.allowedStatuses[r.Status] {
			return nil
		}
	}

	if s.format != "text" {
		return writeStructured(s.writer, s.format, v, &s.results)
	}

	r, ok := v.(TargetResult)
	if !ok {
		// Ignore events in text mode.
		return nil
	}
	if err := s.writeText(r); err != nil {
		return err
	}
	return flushIfPossible(s.writer)
}

func (s *ConsoleSink) writeText(r TargetResult) error {
	label := "[" + string(r.Status) + "]"
	if c, ok := statusColors[r.Status]; ok {
		label = c.Sprint(label)
	}

	var err error
	switch r.Status {
	case StatusOK:
		_, err = fmt.Fprintf(s.writer, "%s %s -> %s (%d bytes)\n", label, r.Target, r.Path, r.Bytes)
	default:
		_, err = fmt.Fprintf(s.writer, "%s %s", label, r.Target)
		if err == nil && r.Message != "" {
			_, err = fmt.Fprintf(s.writer, " - %s", r.Message)
		}
		if err == nil {
			_, err = fmt.Fprintln(s.writer)
		}
	}
	return err
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.format {
	case "json":
		return writeJSONArray(s.writer, s.results)
	case "text", "ndjson":
		return nil
	default:
		return fmt.Errorf("unsupported console format: %s", s.format)
	}
}
