package signal

import (
	"slices"
	"time"
)

// Static always yields the same values.
type Static struct {
	values []float64
}

// NewStatic creates a source yielding values on every poll.
func NewStatic(values ...float64) *Static {
	return &Static{values: slices.Clone(values)}
}

// Sample returns the fixed values.
func (s *Static) Sample(now time.Time) (Sample, bool) {
	return Sample{Values: slices.Clone(s.values), At: now}, true
}
