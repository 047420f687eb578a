package session

import (
	"slices"
	"time"
)

// Button labels derived from the link state.
const (
	LabelConnect    = "Connect"
	LabelDisconnect = "Disconnect"
)

// ChannelStatus is the published view of one channel.
type ChannelStatus struct {
	Name   string  `json:"name"`
	Value  int     `json:"value"`
	Target int     `json:"target"`
	Moving bool    `json:"moving"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Status is a snapshot of the session for the UI.
type Status struct {
	Open      bool            `json:"open"`
	Label     string          `json:"label"`
	Port      string          `json:"port,omitempty"`
	Profile   string          `json:"profile"`
	Channels  []ChannelStatus `json:"channels"`
	Selection int             `json:"selection"`
	Overlay   bool            `json:"overlay"`

	// HasValue is false when the last tick produced no value.
	HasValue bool `json:"has_value"`

	// LastLine is the most recent line written to the device.
	LastLine  string    `json:"last_line,omitempty"`
	Ticks     uint64    `json:"ticks"`
	Writes    uint64    `json:"writes"`
	Dropped   uint64    `json:"dropped"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Values returns the rounded channel values.
func (s Status) Values() []int {
	out := make([]int, len(s.Channels))
	for i, c := range s.Channels {
		out[i] = c.Value
	}
	return out
}

// LabelFor returns the button label for an open flag.
func LabelFor(open bool) string {
	if open {
		return LabelDisconnect
	}
	return LabelConnect
}

func (s Status) clone() Status {
	s.Channels = slices.Clone(s.Channels)
	return s
}
