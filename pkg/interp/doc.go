// Package interp provides time-based linear interpolation of output channels.
//
// A Channel moves from its current value toward a target over a fixed
// duration, independent of the distance travelled. Every movement takes the
// same time budget, so a 1° correction and a 180° sweep both arrive after
// Duration has elapsed.
//
// # Bounds
//
// Each channel is clamped to a Bounds range. Min may be greater than Max to
// describe an inverted mechanical mount; the effective clamp range is always
// the numerically sorted pair:
//
//	b := interp.Bounds{Min: 180, Max: 0}
//	lo, hi := b.Effective() // 0, 180
//
// # Re-basing
//
// SetTarget re-bases the movement from the instantaneous current value, so a
// new target requested mid-motion starts a fresh segment from wherever the
// channel is now. Which requests start a new segment is controlled by the
// RebasePolicy (see RebaseOnCurrent and RebaseOnNewTarget).
//
// # Rounding
//
// Rounded uses math.Round (round half away from zero) for every channel.
package interp
