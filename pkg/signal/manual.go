package signal

import (
	"sync"
	"time"
)

// Manual holds values set from the UI (sliders, pointer clicks). It always
// yields its most recent values once it has any.
type Manual struct {
	mu     sync.RWMutex
	sample Sample
	set    bool
}

// NewManual creates a source with initial values. With no values it yields
// nothing until the first Receive.
func NewManual(initial ...float64) *Manual {
	m := &Manual{}
	if len(initial) > 0 {
		m.sample = Sample{Values: append([]float64(nil), initial...)}
		m.set = true
	}
	return m
}

// Set replaces the values.
func (m *Manual) Set(values ...float64) {
	m.Receive(Sample{Values: values, At: time.Now()})
}

// Receive replaces the held sample.
func (m *Manual) Receive(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sample = s.Clone()
	m.set = true
}

// Sample returns the held values.
func (m *Manual) Sample(now time.Time) (Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return Sample{}, false
	}
	s := m.sample.Clone()
	if s.At.IsZero() {
		s.At = now
	}
	return s, true
}

var _ Receiver = (*Manual)(nil)
