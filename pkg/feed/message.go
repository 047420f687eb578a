package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/servolink/servolink-go/pkg/signal"
)

var (
	// ErrNoSource is returned for messages that do not name a source.
	ErrNoSource = errors.New("message has no source")

	// ErrNotFinite is returned for messages carrying NaN or an infinity.
	ErrNotFinite = errors.New("message carries a non-finite number")
)

// Message carries one sample for a named source.
type Message struct {
	// Source is the session source to deliver to ("pose", "window", ...).
	Source string `cbor:"1,keyasint"`

	Values     []float64      `cbor:"2,keyasint,omitempty"`
	Confidence float64        `cbor:"3,keyasint,omitempty"`
	Keypoints  []signal.Point `cbor:"4,keyasint,omitempty"`

	// Width and Height are the extent the values are measured in.
	Width  float64 `cbor:"5,keyasint,omitempty"`
	Height float64 `cbor:"6,keyasint,omitempty"`

	// Timestamp is the capture time in Unix milliseconds; zero means now.
	Timestamp int64 `cbor:"7,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create feed CBOR encoder mode: %v", err))
	}

	decMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxArrayElements: 4096,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create feed CBOR decoder mode: %v", err))
	}
}

// Encode encodes a message.
func Encode(m Message) ([]byte, error) {
	if m.Source == "" {
		return nil, ErrNoSource
	}
	return encMode.Marshal(m)
}

// Decode decodes and validates a message.
func Decode(data []byte) (Message, error) {
	var m Message
	if err := decMode.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if m.Source == "" {
		return Message{}, ErrNoSource
	}
	if !m.Sample(time.Time{}).Finite() {
		return Message{}, ErrNotFinite
	}
	return m, nil
}

// Sample converts the message to a signal sample. received stamps messages
// without a timestamp.
func (m Message) Sample(received time.Time) signal.Sample {
	at := received
	if m.Timestamp != 0 {
		at = time.UnixMilli(m.Timestamp)
	}
	return signal.Sample{
		Values:     m.Values,
		Points:     m.Keypoints,
		Confidence: m.Confidence,
		Width:      m.Width,
		Height:     m.Height,
		At:         at,
	}
}
