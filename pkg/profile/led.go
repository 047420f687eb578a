package profile

import (
	"time"

	"github.com/servolink/servolink-go/pkg/interp"
	"github.com/servolink/servolink-go/pkg/signal"
	"github.com/servolink/servolink-go/pkg/wire"
)

// Source names used by the built-in profiles.
const (
	SourceStatic  = "static"
	SourceSliders = "sliders"
	SourcePointer = "pointer"
	SourceWindow  = "window"
	SourcePose    = "pose"
	SourceWave1   = "wave1"
	SourceWave2   = "wave2"
)

// Keypoints is the number of body keypoints a pose detector reports.
const Keypoints = 17

// KeypointConfidence is the minimum confidence a keypoint must exceed.
const KeypointConfidence = 0.2

// Default frame size for pose samples that do not carry one.
const (
	DefaultFrameWidth  = 640
	DefaultFrameHeight = 480
)

const (
	ledMax       = 255
	blinkPeriod  = time.Second
	sliderStart  = 127
	pointerStart = 0.5
)

func init() {
	register("base", Base)
	register("sliders-led", SlidersLED)
	register("mouse-led", MouseLED)
	register("window-led", WindowLED)
	register("fade-led", FadeLED)
	register("bodypoint-led", BodyPointLED)
}

func ledChannels(initial ...float64) []ChannelSpec {
	names := []string{"led1", "led2"}
	specs := make([]ChannelSpec, len(names))
	for i, name := range names {
		specs[i] = ChannelSpec{
			Name:    name,
			Domain:  wire.DomainLED,
			Bounds:  interp.Bounds{Min: 0, Max: ledMax},
			Initial: initial[i],
		}
	}
	return specs
}

// Base sends the fixed pair 10,255.
func Base() *Profile {
	return &Profile{
		Name:        "base",
		Description: "two static LED values",
		Channels:    ledChannels(10, 255),
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourceStatic: signal.NewStatic(10, 255)}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			s, ok := in.Samples[SourceStatic]
			if !ok || len(s.Values) < 2 {
				return nil, false
			}
			return []float64{s.Values[0], s.Values[1]}, true
		},
	}
}

// SlidersLED passes two 0-255 slider values straight through.
func SlidersLED() *Profile {
	return &Profile{
		Name:        "sliders-led",
		Description: "two sliders set LED brightness",
		Channels:    ledChannels(sliderStart, sliderStart),
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourceSliders: signal.NewManual(sliderStart, sliderStart)}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			s, ok := in.Samples[SourceSliders]
			if !ok || len(s.Values) < 2 {
				return nil, false
			}
			return []float64{s.Values[0], s.Values[1]}, true
		},
	}
}

// MouseLED maps the pointer position across the canvas to brightness.
func MouseLED() *Profile {
	return &Profile{
		Name:        "mouse-led",
		Description: "pointer position sets LED brightness",
		Channels:    ledChannels(ledMax/2, ledMax/2),
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourcePointer: signal.NewManual(pointerStart, pointerStart)}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			return mapXY(in.Samples, SourcePointer, 1, 1, 0, ledMax)
		},
	}
}

// WindowLED maps the window's screen position to brightness. Samples carry
// the free screen area (screen size minus window size) as their extent.
func WindowLED() *Profile {
	return &Profile{
		Name:        "window-led",
		Description: "window position on screen sets LED brightness",
		Channels:    ledChannels(0, 0),
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourceWindow: signal.NewLatest()}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			return mapXY(in.Samples, SourceWindow, 0, 0, 0, ledMax)
		},
	}
}

// FadeLED blinks one LED with a sine wave depending on which half of the
// canvas the pointer is in; the other LED is off.
func FadeLED() *Profile {
	return &Profile{
		Name:        "fade-led",
		Description: "pointer zone chooses which LED pulses",
		Channels:    ledChannels(0, 0),
		Sources: func(start time.Time) map[string]signal.Source {
			return map[string]signal.Source{
				SourcePointer: signal.NewManual(0, pointerStart),
				SourceWave1:   signal.NewWave(blinkPeriod, 0, ledMax, start),
				SourceWave2:   signal.NewWave(blinkPeriod, 0, ledMax, start),
			}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			return zoneWave(in.Samples, 0, 0)
		},
	}
}

// BodyPointLED maps the selected keypoint's frame position to brightness.
func BodyPointLED() *Profile {
	return &Profile{
		Name:        "bodypoint-led",
		Description: "selected body keypoint position sets LED brightness",
		Channels:    ledChannels(0, 0),
		Sources: func(time.Time) map[string]signal.Source {
			return map[string]signal.Source{SourcePose: signal.NewLatest()}
		},
		Mapper: func(in Inputs) ([]float64, bool) {
			p, w, h, ok := keypoint(in)
			if !ok {
				return nil, false
			}
			return []float64{
				signal.Map(p.X, 0, w, 0, ledMax),
				signal.Map(p.Y, 0, h, 0, ledMax),
			}, true
		},
		Selectable: Keypoints,
	}
}

// mapXY maps the first two values of a source from its extent to [lo, hi].
// defW and defH are used when the sample carries no extent.
func mapXY(samples map[string]signal.Sample, name string, defW, defH, lo, hi float64) ([]float64, bool) {
	s, ok := samples[name]
	if !ok || len(s.Values) < 2 {
		return nil, false
	}
	w, h := s.Width, s.Height
	if w == 0 {
		w = defW
	}
	if h == 0 {
		h = defH
	}
	if w == 0 || h == 0 {
		return nil, false
	}
	return []float64{
		signal.Map(s.Values[0], 0, w, lo, hi),
		signal.Map(s.Values[1], 0, h, lo, hi),
	}, true
}

// zoneWave drives channel 0 from wave1 when the pointer is in the left half
// and channel 1 from wave2 otherwise. The idle channel holds its rest value.
func zoneWave(samples map[string]signal.Sample, rest0, rest1 float64) ([]float64, bool) {
	ptr, ok := samples[SourcePointer]
	if !ok || len(ptr.Values) < 1 {
		return nil, false
	}
	w := ptr.Width
	if w == 0 {
		w = 1
	}

	if ptr.Values[0] < w/2 {
		v, ok := first(samples, SourceWave1)
		if !ok {
			return nil, false
		}
		return []float64{v, rest1}, true
	}
	v, ok := first(samples, SourceWave2)
	if !ok {
		return nil, false
	}
	return []float64{rest0, v}, true
}

func first(samples map[string]signal.Sample, name string) (float64, bool) {
	s, ok := samples[name]
	if !ok {
		return 0, false
	}
	return s.Value(0)
}

// keypoint returns the selected keypoint of the first pose when confident
// enough, with the frame extent to map it from.
func keypoint(in Inputs) (signal.Point, float64, float64, bool) {
	s, ok := in.Samples[SourcePose]
	if !ok {
		return signal.Point{}, 0, 0, false
	}
	p, ok := s.Point(in.Selection)
	if !ok || !(p.Confidence > KeypointConfidence) || !signal.Finite(p.X) || !signal.Finite(p.Y) {
		return signal.Point{}, 0, 0, false
	}
	w, h := s.Width, s.Height
	if w == 0 {
		w = DefaultFrameWidth
	}
	if h == 0 {
		h = DefaultFrameHeight
	}
	return p, w, h, true
}
