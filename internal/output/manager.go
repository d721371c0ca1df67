package output

import (
	"errors"
	"fmt"
	"sync"
)

// Sink defines a destination for run events and target results.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager fans writes out to multiple sinks. Targets run concurrently, so
// Write serializes calls: each sink sees one value at a time, in order.
type Manager struct {
	mu    sync.Mutex
	sinks []Sink
	runID string
}

func NewManager() *Manager {
	return &Manager{}
}

// SetRunID stamps id on every Event and TargetResult written afterwards.
func (m *Manager) SetRunID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runID = id
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
	return nil
}

func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	switch t := v.(type) {
	case Event:
		if t.RunID == "" {
			t.RunID = m.runID
		}
		v = t
	case TargetResult:
		if t.RunID == "" {
			t.RunID = m.runID
		}
		v = t
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...))
	}
	return nil
}

func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sinks: %w", errors.Join(errs...))
	}
	return nil
}
