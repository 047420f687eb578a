package signal

import (
	"math"
	"time"
)

// Wave oscillates sinusoidally between Min and Max with the given period,
// starting at the midpoint at Epoch.
type Wave struct {
	Period time.Duration
	Min    float64
	Max    float64
	Epoch  time.Time
}

// NewWave creates a wave starting at epoch.
func NewWave(period time.Duration, lo, hi float64, epoch time.Time) *Wave {
	return &Wave{Period: period, Min: lo, Max: hi, Epoch: epoch}
}

// Center returns the midpoint of the range.
func (w *Wave) Center() float64 {
	return (w.Min + w.Max) / 2
}

// At returns the wave value at now.
func (w *Wave) At(now time.Time) float64 {
	center := w.Center()
	if w.Period <= 0 {
		return center
	}
	amplitude := (w.Max - w.Min) / 2
	phase := float64(now.Sub(w.Epoch)) / float64(w.Period)
	return math.Sin(2*math.Pi*phase)*amplitude + center
}

// Sample returns the current wave value.
func (w *Wave) Sample(now time.Time) (Sample, bool) {
	return Sample{Values: []float64{w.At(now)}, At: now}, true
}
