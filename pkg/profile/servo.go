package profile

import (
	"math"
	"time"

	"github.com/servolink/servolink-go/pkg/interp"
	"github.com/servolink/servolink-go/pkg/signal"
	"github.com/servolink/servolink-go/pkg/wire"
)

const (
	servoMax    = 180
	servoCenter = 90

	// SmoothDuration is the time any servo-smooth move takes.
	SmoothDuration = time.Second

	wigglePeriod = 2 * time.Second
)

func init() {
	register("servo-angle", ServoAngle)
	register("servo-smooth", ServoSmooth)
	register("servo-wiggle", ServoWiggle)
	register("point-at-you", PointAtYou)
}

func servoChannel(name string, bounds interp.Bounds, initial float64) ChannelSpec {
	return ChannelSpec{
		Name:    name,
		Domain:  wire.DomainServo,
		Bounds:  bounds,
		Initial: initial,
	}
}

// ServoAngle maps the pointer straight to two servo angles.
func ServoAngle() *Profile {
	full := interp.Bounds{Min: 0, Max: servoMax}
	return &Profile{
		Name:        "servo-angle",
		Description: "pointer position sets two servo angles directly",
		Channels: []ChannelSpec{
			servoChannel("servo1", full, servoCenter),
			servoChannel("servo2", full, servoCenter),
		},
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourcePointer: signal.NewManual(pointerStart, pointerStart)}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			v, ok := mapXY(in.Samples, SourcePointer, 1, 1, 0, servoMax)
			if !ok {
				return nil, false
			}
			return []float64{
				signal.Constrain(v[0], 0, servoMax),
				signal.Constrain(v[1], 0, servoMax),
			}, true
		},
	}
}

// ServoSmooth glides two servos to the last clicked position. Every move
// takes SmoothDuration regardless of distance.
func ServoSmooth() *Profile {
	full := interp.Bounds{Min: 0, Max: servoMax}
	ch := func(name string) ChannelSpec {
		c := servoChannel(name, full, servoCenter)
		c.Interpolated = true
		c.Duration = SmoothDuration
		return c
	}
	return &Profile{
		Name:        "servo-smooth",
		Description: "servos glide to the clicked position",
		Channels:    []ChannelSpec{ch("servo1"), ch("servo2")},
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourcePointer: signal.NewManual(pointerStart, pointerStart)}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			return mapXY(in.Samples, SourcePointer, 1, 1, 0, servoMax)
		},
		// The clicked target is re-submitted every tick; only a new click
		// may restart the glide.
		Policy: interp.RebaseOnNewTarget,
	}
}

// ServoWiggle sweeps one servo through its range with a sine wave depending
// on the pointer's half of the canvas; the other servo rests at its center.
func ServoWiggle() *Profile {
	b1 := interp.Bounds{Min: 45, Max: 135}
	b2 := interp.Bounds{Min: 30, Max: 150}
	return &Profile{
		Name:        "servo-wiggle",
		Description: "pointer zone chooses which servo wiggles",
		Channels: []ChannelSpec{
			servoChannel("servo1", b1, b1.Center()),
			servoChannel("servo2", b2, b2.Center()),
		},
		Sources: func(start time.Time) map[string]signal.Source {
			return map[string]signal.Source{
				SourcePointer: signal.NewManual(0, pointerStart),
				SourceWave1:   signal.NewWave(wigglePeriod, b1.Min, b1.Max, start),
				SourceWave2:   signal.NewWave(wigglePeriod, b2.Min, b2.Max, start),
			}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			c1, c2 := b1.Center(), b2.Center()
			if len(in.Bounds) == 2 {
				c1, c2 = in.Bounds[0].Center(), in.Bounds[1].Center()
			}
			v, ok := zoneWave(in.Samples, c1, c2)
			if !ok {
				return nil, false
			}
			return []float64{math.Round(v[0]), math.Round(v[1])}, true
		},
	}
}

// PointAtYou turns a servo toward the selected keypoint. The servo range may
// be inverted to match how the servo is mounted; the second channel holds 90.
func PointAtYou() *Profile {
	return &Profile{
		Name:        "point-at-you",
		Description: "servo follows the selected body keypoint horizontally",
		Channels: []ChannelSpec{
			servoChannel("pan", interp.Bounds{Min: 0, Max: servoMax}, servoCenter),
			servoChannel("tilt", interp.Bounds{Min: 0, Max: servoMax}, servoCenter),
		},
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourcePose: signal.NewLatest()}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			p, w, _, ok := keypoint(in)
			if !ok {
				return nil, false
			}
			pan := interp.Bounds{Min: 0, Max: servoMax}
			if len(in.Bounds) > 0 {
				pan = in.Bounds[0]
			}
			v := signal.Map(p.X, 0, w, pan.Min, pan.Max)
			return []float64{signal.Constrain(v, pan.Min, pan.Max), servoCenter}, true
		},
		Selectable: Keypoints,
	}
}
