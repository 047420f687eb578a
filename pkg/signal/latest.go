package signal

import (
	"sync"
	"time"
)

// Latest holds the most recent sample pushed from an asynchronous producer
// such as the pose feed. It yields nothing when empty, when the sample is
// older than MaxAge, or when its confidence does not exceed MinConfidence.
type Latest struct {
	mu     sync.RWMutex
	sample Sample
	set    bool

	maxAge        time.Duration
	minConfidence float64
}

// LatestOption configures a Latest source.
type LatestOption func(*Latest)

// WithMaxAge discards samples older than d. Zero keeps samples forever.
func WithMaxAge(d time.Duration) LatestOption {
	return func(l *Latest) { l.maxAge = d }
}

// WithMinConfidence discards samples whose Confidence is not above c.
func WithMinConfidence(c float64) LatestOption {
	return func(l *Latest) { l.minConfidence = c }
}

// NewLatest creates an empty Latest source.
func NewLatest(opts ...LatestOption) *Latest {
	l := &Latest{minConfidence: -1}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Receive stores s, stamping it with the current time when unset.
func (l *Latest) Receive(s Sample) {
	s = s.Clone()
	if s.At.IsZero() {
		s.At = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sample = s
	l.set = true
}

// SetMaxAge changes the staleness limit. Zero keeps samples forever.
func (l *Latest) SetMaxAge(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxAge = d
}

// Clear forgets the held sample.
func (l *Latest) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sample = Sample{}
	l.set = false
}

// Sample returns the held sample if still usable at now.
func (l *Latest) Sample(now time.Time) (Sample, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.set {
		return Sample{}, false
	}
	if l.maxAge > 0 && now.Sub(l.sample.At) > l.maxAge {
		return Sample{}, false
	}
	if !(l.sample.Confidence > l.minConfidence) {
		return Sample{}, false
	}
	return l.sample.Clone(), true
}

var _ Receiver = (*Latest)(nil)
