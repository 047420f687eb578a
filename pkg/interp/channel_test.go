package interp

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func TestBoundsEffective(t *testing.T) {
	tests := []struct {
		name   string
		bounds Bounds
		lo, hi float64
	}{
		{"ordered", Bounds{Min: 45, Max: 135}, 45, 135},
		{"inverted", Bounds{Min: 180, Max: 0}, 0, 180},
		{"degenerate", Bounds{Min: 90, Max: 90}, 90, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := tt.bounds.Effective()
			assert.Equal(t, tt.lo, lo)
			assert.Equal(t, tt.hi, hi)
		})
	}
}

func TestSetTargetClamps(t *testing.T) {
	bounds := []Bounds{
		{Min: 0, Max: 180},
		{Min: 180, Max: 0},
		{Min: 45, Max: 135},
		{Min: 150, Max: 30},
		{Min: 0, Max: 255},
	}
	targets := []float64{-1000, -1, 0, 29.5, 45, 90, 134.9, 135, 181, 255, 256, 1e6}

	for _, b := range bounds {
		lo, hi := b.Effective()
		for _, target := range targets {
			c := New(b.Center(), time.Second, b, WithClock(fixedClock(epoch)))
			c.SetTarget(target)

			want := target
			if want < lo {
				want = lo
			}
			if want > hi {
				want = hi
			}
			assert.Equal(t, want, c.Target(), "bounds=%v target=%v", b, target)
		}
	}
}

func TestNewClampsInitial(t *testing.T) {
	c := New(500, time.Second, Bounds{Min: 0, Max: 180})
	assert.Equal(t, 180.0, c.Current())
	assert.Equal(t, 180.0, c.Target())
	assert.False(t, c.Moving())
}

func TestAdvanceArrivesExactly(t *testing.T) {
	durations := []time.Duration{time.Millisecond, 333 * time.Millisecond, time.Second, 7 * time.Second}
	pairs := [][2]float64{{0, 180}, {90, 12.25}, {180, 0}, {45.5, 46}}

	for _, d := range durations {
		for _, p := range pairs {
			c := New(p[0], d, Bounds{Min: 0, Max: 180}, WithClock(fixedClock(epoch)))
			c.SetTarget(p[1])
			require.True(t, c.Moving())

			c.Advance(epoch.Add(d))
			assert.Equal(t, p[1], c.Current(), "d=%v pair=%v", d, p)
			assert.False(t, c.Moving())
		}
	}
}

func TestAdvanceIdleIsNoop(t *testing.T) {
	c := New(90, time.Second, Bounds{Min: 0, Max: 180}, WithClock(fixedClock(epoch)))
	c.SetTarget(120)
	c.Advance(epoch.Add(2 * time.Second))
	require.False(t, c.Moving())

	for i := 3; i < 10; i++ {
		c.Advance(epoch.Add(time.Duration(i) * time.Second))
		assert.Equal(t, 120.0, c.Current())
	}

	// Time going backwards must not matter either.
	c.Advance(epoch)
	assert.Equal(t, 120.0, c.Current())
}

func TestClampedHalfwayScenario(t *testing.T) {
	c := New(90, time.Second, Bounds{Min: 45, Max: 135}, WithClock(fixedClock(epoch)))

	c.SetTarget(200)
	assert.Equal(t, 135.0, c.Target())

	c.Advance(epoch.Add(500 * time.Millisecond))
	assert.InDelta(t, 112.5, c.Current(), 1e-9)
	assert.Equal(t, 113, c.Rounded(), "math.Round rounds half away from zero")
	assert.True(t, c.Moving())
}

func TestInvertedBoundsScenario(t *testing.T) {
	c := New(0, time.Second, Bounds{Min: 180, Max: 0}, WithClock(fixedClock(epoch)))
	c.SetTarget(90)
	assert.Equal(t, 90.0, c.Target())
	assert.True(t, c.Bounds().Inverted())
}

func TestZeroDurationJumps(t *testing.T) {
	c := New(90, 0, Bounds{Min: 0, Max: 180}, WithClock(fixedClock(epoch)))
	c.SetTarget(45)
	c.Advance(epoch)

	assert.Equal(t, 45.0, c.Current())
	assert.False(t, c.Moving())
}

func TestZeroDurationBeforeStart(t *testing.T) {
	c := New(90, 0, Bounds{Min: 0, Max: 180})
	c.SetTargetAt(45, epoch)
	c.Advance(epoch.Add(-time.Millisecond))

	assert.Equal(t, 90.0, c.Current())
	assert.True(t, c.Moving())
}

func TestSetTargetEqualCurrentIsNoop(t *testing.T) {
	c := New(90, time.Second, Bounds{Min: 0, Max: 180}, WithClock(fixedClock(epoch)))
	c.SetTarget(90)
	assert.False(t, c.Moving())

	// Clamping to the current value is also a no-op.
	c = New(180, time.Second, Bounds{Min: 0, Max: 180}, WithClock(fixedClock(epoch)))
	c.SetTarget(400)
	assert.False(t, c.Moving())
}

func TestRebaseFromCurrentMidMotion(t *testing.T) {
	c := New(0, time.Second, Bounds{Min: 0, Max: 180})
	c.SetTargetAt(100, epoch)
	c.Advance(epoch.Add(500 * time.Millisecond))
	require.InDelta(t, 50.0, c.Current(), 1e-9)

	// New destination mid-motion starts from 50, not 0.
	mid := epoch.Add(500 * time.Millisecond)
	c.SetTargetAt(150, mid)
	c.Advance(mid.Add(500 * time.Millisecond))
	assert.InDelta(t, 100.0, c.Current(), 1e-9)

	c.Advance(mid.Add(time.Second))
	assert.Equal(t, 150.0, c.Current())
}

func TestRebasePolicies(t *testing.T) {
	t.Run("RebaseOnCurrentRestartsSegment", func(t *testing.T) {
		c := New(0, time.Second, Bounds{Min: 0, Max: 100})
		c.SetTargetAt(100, epoch)
		c.Advance(epoch.Add(500 * time.Millisecond))

		// Same destination again: restarts from 50 with the full budget.
		c.SetTargetAt(100, epoch.Add(500*time.Millisecond))
		c.Advance(epoch.Add(time.Second))
		assert.InDelta(t, 75.0, c.Current(), 1e-9)
		assert.True(t, c.Moving())
	})

	t.Run("RebaseOnNewTargetKeepsSegment", func(t *testing.T) {
		c := New(0, time.Second, Bounds{Min: 0, Max: 100}, WithRebasePolicy(RebaseOnNewTarget))
		c.SetTargetAt(100, epoch)
		c.Advance(epoch.Add(500 * time.Millisecond))

		c.SetTargetAt(100, epoch.Add(500*time.Millisecond))
		c.Advance(epoch.Add(time.Second))
		assert.Equal(t, 100.0, c.Current())
		assert.False(t, c.Moving())
	})

	t.Run("RebaseOnNewTargetStillMovesWhenIdle", func(t *testing.T) {
		c := New(0, time.Second, Bounds{Min: 0, Max: 100}, WithRebasePolicy(RebaseOnNewTarget))
		c.SetTargetAt(100, epoch)
		c.Advance(epoch.Add(time.Second))
		c.SetTargetAt(20, epoch.Add(time.Second))
		assert.True(t, c.Moving())
	})
}

func TestSetDirect(t *testing.T) {
	c := New(0, time.Second, Bounds{Min: 0, Max: 255})
	c.SetTargetAt(200, epoch)
	c.SetDirect(300)

	assert.Equal(t, 255.0, c.Current())
	assert.Equal(t, 255.0, c.Target())
	assert.False(t, c.Moving())
}

func TestNonFiniteInputIgnored(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		c := New(90, time.Second, Bounds{Min: 0, Max: 180})

		c.SetTargetAt(v, epoch)
		assert.False(t, c.Moving(), "SetTargetAt(%v)", v)
		assert.Equal(t, 90.0, c.Target())

		c.SetDirect(v)
		assert.Equal(t, 90.0, c.Current(), "SetDirect(%v)", v)
		assert.Equal(t, 90, c.Rounded())
	}
}

func TestClampNaN(t *testing.T) {
	assert.Equal(t, 0.0, Bounds{Min: 0, Max: 180}.Clamp(math.NaN()))
	assert.Equal(t, 0.0, Bounds{Min: 180, Max: 0}.Clamp(math.NaN()))
	assert.Equal(t, 180.0, Bounds{Min: 0, Max: 180}.Clamp(math.Inf(1)))

	c := New(math.NaN(), 0, Bounds{Min: 10, Max: 20})
	assert.Equal(t, 10.0, c.Current())
}

func TestProgress(t *testing.T) {
	c := New(0, time.Second, Bounds{Min: 0, Max: 100})
	assert.Equal(t, 1.0, c.Progress(epoch))

	c.SetTargetAt(100, epoch)
	assert.InDelta(t, 0.25, c.Progress(epoch.Add(250*time.Millisecond)), 1e-9)
	assert.Equal(t, 0.0, c.Progress(epoch.Add(-time.Second)))
	assert.Equal(t, 1.0, c.Progress(epoch.Add(5*time.Second)))
}

func TestParseRebasePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want RebasePolicy
		ok   bool
	}{
		{"", RebaseOnCurrent, true},
		{"current", RebaseOnCurrent, true},
		{"target", RebaseOnNewTarget, true},
		{"bogus", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseRebasePolicy(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
