package log

import "time"

// Event is a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID identifies one open period of the link (UUID).
	// Empty while the link is closed.
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates data flow relative to the host.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event.
	Category Category `cbor:"5,keyasint"`

	// Port is the serial port identifier, when known.
	Port string `cbor:"6,keyasint,omitempty"`

	// Profile is the active deployment profile name.
	Profile string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these is set).
	Line        *LineEvent        `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Command     *CommandEvent     `cbor:"12,keyasint,omitempty"`
	Sample      *SampleEvent      `cbor:"13,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates data flow relative to the host.
type Direction uint8

const (
	// DirectionIn is data arriving at the host (feed samples, UI commands).
	DirectionIn Direction = 0
	// DirectionOut is data leaving the host toward the device.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which part of the bridge captured the event.
type Layer uint8

const (
	// LayerLink is the serial port layer.
	LayerLink Layer = 0
	// LayerWire is the line protocol layer.
	LayerWire Layer = 1
	// LayerSession is the control loop layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerLink:
		return "LINK"
	case LayerWire:
		return "WIRE"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryLine is a protocol line sent to the device.
	CategoryLine Category = 0
	// CategoryCommand is a session command.
	CategoryCommand Category = 1
	// CategoryState is a state change.
	CategoryState Category = 2
	// CategoryError is an error event.
	CategoryError Category = 3
	// CategorySample is a signal sample received from the feed.
	CategorySample Category = 4
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLine:
		return "LINE"
	case CategoryCommand:
		return "COMMAND"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategorySample:
		return "SAMPLE"
	default:
		return "UNKNOWN"
	}
}

// LineEvent captures one encoded protocol line.
type LineEvent struct {
	// Values are the channel values in wire order.
	Values []int `cbor:"1,keyasint"`

	// Size is the encoded length in bytes, terminator included.
	Size int `cbor:"2,keyasint"`

	// Dropped is set when the link refused the line (closed or queue full).
	Dropped bool `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures link and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	// StateEntityLink is the serial link.
	StateEntityLink StateEntity = 0
	// StateEntitySession is the control loop.
	StateEntitySession StateEntity = 1
	// StateEntityFeed is a feed client connection.
	StateEntityFeed StateEntity = 2
)

// String returns the entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityLink:
		return "LINK"
	case StateEntitySession:
		return "SESSION"
	case StateEntityFeed:
		return "FEED"
	default:
		return "UNKNOWN"
	}
}

// CommandEvent captures a command consumed by the session.
type CommandEvent struct {
	// Name is the command kind ("connect", "cycle-up", ...).
	Name string `cbor:"1,keyasint"`

	// Origin is where the command came from ("console", "api", ...).
	Origin string `cbor:"2,keyasint,omitempty"`

	// Argument is the optional command argument (port name, source name).
	Argument string `cbor:"3,keyasint,omitempty"`
}

// SampleEvent captures a signal sample pushed by the feed.
type SampleEvent struct {
	// Source is the name of the signal source that received the sample.
	Source string `cbor:"1,keyasint"`

	// Values are the raw sample values.
	Values []float64 `cbor:"2,keyasint,omitempty"`

	// Confidence is the detector confidence (0 when not applicable).
	Confidence float64 `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Reason is a short machine-readable cause, if known.
	Reason string `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
