// Package session runs the per-tick control loop.
//
// Each tick drains pending commands, polls the profile's sources, maps the
// samples to channel targets, advances interpolation and, when the link is
// open, writes one protocol line. A single goroutine owns all channel and
// selection state; other goroutines talk to it through Submit and read
// Status.
package session
