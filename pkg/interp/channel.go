package interp

import (
	"math"
	"time"
)

// Clock returns the current time. Tests inject a fixed or stepped clock.
type Clock func() time.Time

// Bounds is the declared clamp range of a channel. Min may exceed Max.
type Bounds struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Effective returns the numerically sorted (lo, hi) pair.
func (b Bounds) Effective() (lo, hi float64) {
	if b.Min > b.Max {
		return b.Max, b.Min
	}
	return b.Min, b.Max
}

// Inverted reports whether the declared range runs high to low.
func (b Bounds) Inverted() bool {
	return b.Min > b.Max
}

// Clamp constrains v to the effective range. NaN maps to the low end.
func (b Bounds) Clamp(v float64) float64 {
	lo, hi := b.Effective()
	if v < lo || math.IsNaN(v) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Contains reports whether v lies within the effective range.
func (b Bounds) Contains(v float64) bool {
	lo, hi := b.Effective()
	return v >= lo && v <= hi
}

// Center returns the midpoint of the range.
func (b Bounds) Center() float64 {
	return (b.Min + b.Max) / 2
}

// RebasePolicy decides when SetTarget starts a new motion segment.
type RebasePolicy uint8

const (
	// RebaseOnCurrent starts a new segment whenever the clamped target
	// differs from the current instantaneous value. Repeating the same
	// destination while moving restarts the segment from the current value.
	RebaseOnCurrent RebasePolicy = iota

	// RebaseOnNewTarget starts a new segment only when the clamped target
	// differs from the previous target (or, when idle, from the current
	// value). Repeating the same destination while moving is a no-op.
	RebaseOnNewTarget
)

// String returns the policy name.
func (p RebasePolicy) String() string {
	switch p {
	case RebaseOnCurrent:
		return "current"
	case RebaseOnNewTarget:
		return "target"
	default:
		return "unknown"
	}
}

// ParseRebasePolicy parses "current" or "target". The empty string maps to
// RebaseOnCurrent.
func ParseRebasePolicy(s string) (RebasePolicy, bool) {
	switch s {
	case "", "current":
		return RebaseOnCurrent, true
	case "target":
		return RebaseOnNewTarget, true
	default:
		return 0, false
	}
}

// Option configures a Channel.
type Option func(*Channel)

// WithClock sets the time source used by SetTarget.
func WithClock(clock Clock) Option {
	return func(c *Channel) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithRebasePolicy sets the re-base policy.
func WithRebasePolicy(p RebasePolicy) Option {
	return func(c *Channel) {
		c.policy = p
	}
}

// Channel is one interpolated output value.
//
// A Channel is not safe for concurrent use; it is owned by the control loop.
type Channel struct {
	current float64
	target  float64

	start     float64
	moveStart time.Time

	duration time.Duration
	bounds   Bounds
	moving   bool

	policy RebasePolicy
	clock  Clock
}

// New creates a channel resting at initial (clamped to bounds). A negative
// duration is treated as zero.
func New(initial float64, duration time.Duration, bounds Bounds, opts ...Option) *Channel {
	if duration < 0 {
		duration = 0
	}
	v := bounds.Clamp(initial)
	c := &Channel{
		current:  v,
		target:   v,
		start:    v,
		duration: duration,
		bounds:   bounds,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetTarget sets a new destination using the channel clock.
func (c *Channel) SetTarget(v float64) {
	c.SetTargetAt(v, c.clock())
}

// SetTargetAt sets a new destination with an explicit start time.
// Out-of-range targets are clamped. NaN and infinities are ignored.
func (c *Channel) SetTargetAt(v float64, now time.Time) {
	if !finite(v) {
		return
	}
	v = c.bounds.Clamp(v)

	if v == c.current {
		return
	}
	if c.policy == RebaseOnNewTarget && c.moving && v == c.target {
		return
	}

	c.target = v
	c.start = c.current
	c.moveStart = now
	c.moving = true
}

// Advance recomputes the current value for time now. It is a no-op when the
// channel is idle.
func (c *Channel) Advance(now time.Time) {
	if !c.moving {
		return
	}

	progress := c.progress(now)
	if progress >= 1 {
		c.current = c.target
		c.moving = false
		return
	}

	c.current = c.bounds.Clamp(c.start + (c.target-c.start)*progress)
}

// SetDirect assigns v (clamped) to the current value, cancelling any
// motion. Direct deployments map signals straight onto the channel.
func (c *Channel) SetDirect(v float64) {
	if !finite(v) {
		return
	}
	v = c.bounds.Clamp(v)
	c.current = v
	c.target = v
	c.start = v
	c.moving = false
}

// Current returns the most recently computed value.
func (c *Channel) Current() float64 { return c.current }

// Target returns the destination value.
func (c *Channel) Target() float64 { return c.target }

// Rounded returns the current value rounded half away from zero.
func (c *Channel) Rounded() int { return int(math.Round(c.current)) }

// TargetRounded returns the target rounded half away from zero.
func (c *Channel) TargetRounded() int { return int(math.Round(c.target)) }

// Moving reports whether a motion segment is in progress.
func (c *Channel) Moving() bool { return c.moving }

// Bounds returns the declared bounds.
func (c *Channel) Bounds() Bounds { return c.bounds }

// Duration returns the time budget for a single movement.
func (c *Channel) Duration() time.Duration { return c.duration }

// SetDuration changes the movement budget. An in-flight segment keeps its
// start point but is timed against the new duration from the next Advance.
func (c *Channel) SetDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	c.duration = d
}

// Policy returns the re-base policy.
func (c *Channel) Policy() RebasePolicy { return c.policy }

// Progress returns the fraction of the current segment completed at now,
// or 1 when idle.
func (c *Channel) Progress(now time.Time) float64 {
	if !c.moving {
		return 1
	}
	return c.progress(now)
}

// progress is clamp((now-moveStart)/duration, 0, 1). A zero duration jumps
// at or after moveStart.
func (c *Channel) progress(now time.Time) float64 {
	if c.duration <= 0 {
		if now.Before(c.moveStart) {
			return 0
		}
		return 1
	}
	p := float64(now.Sub(c.moveStart)) / float64(c.duration)
	return math.Max(0, math.Min(1, p))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
