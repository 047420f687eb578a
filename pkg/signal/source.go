package signal

import (
	"math"
	"slices"
	"time"
)

// Point is one detected keypoint in frame coordinates.
type Point struct {
	X          float64 `cbor:"1,keyasint" json:"x"`
	Y          float64 `cbor:"2,keyasint" json:"y"`
	Confidence float64 `cbor:"3,keyasint" json:"confidence"`
}

// Sample is one reading from a source.
type Sample struct {
	// Values are the scalar readings (slider values, pointer or window position).
	Values []float64 `json:"values,omitempty"`

	// Points are keypoints from a pose detector, indexed by keypoint number.
	Points []Point `json:"points,omitempty"`

	// Confidence is the detector's overall confidence, if applicable.
	Confidence float64 `json:"confidence,omitempty"`

	// Width and Height give the extent the values are measured in (canvas
	// size, video frame, free screen area). Zero means unspecified.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// At is when the sample was taken.
	At time.Time `json:"at"`
}

// Value returns Values[i], or 0 and false when out of range.
func (s Sample) Value(i int) (float64, bool) {
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// Point returns Points[i], or false when out of range.
func (s Sample) Point(i int) (Point, bool) {
	if i < 0 || i >= len(s.Points) {
		return Point{}, false
	}
	return s.Points[i], true
}

// Finite reports whether every number in the sample is finite. Samples
// carrying NaN or an infinity are rejected at the edges.
func (s Sample) Finite() bool {
	if !Finite(s.Confidence) || !Finite(s.Width) || !Finite(s.Height) {
		return false
	}
	for _, v := range s.Values {
		if !Finite(v) {
			return false
		}
	}
	for _, p := range s.Points {
		if !Finite(p.X) || !Finite(p.Y) || !Finite(p.Confidence) {
			return false
		}
	}
	return true
}

// Finite reports whether v is neither NaN nor an infinity.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clone returns a deep copy.
func (s Sample) Clone() Sample {
	s.Values = slices.Clone(s.Values)
	s.Points = slices.Clone(s.Points)
	return s
}

// Source yields samples. Implementations must not block.
type Source interface {
	Sample(now time.Time) (Sample, bool)
}

// Receiver is a Source that accepts samples from outside the loop
// (console, HTTP API, feed).
type Receiver interface {
	Source
	Receive(s Sample)
}
