package log

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// HeaderMagic identifies a servolink protocol log.
const HeaderMagic = "servolink-llog"

// FormatVersion is the .llog layout written by this package. Readers accept
// files up to this version.
const FormatVersion = 1

var (
	// ErrNotLogFile is returned when a file does not start with a header.
	ErrNotLogFile = errors.New("not a servolink protocol log")

	// ErrUnsupportedFormat is returned for files written by a newer format.
	ErrUnsupportedFormat = errors.New("unsupported protocol log format")
)

// Header is the first record of every .llog file. It uses key 0 for the
// magic so it can never be mistaken for an Event.
type Header struct {
	Magic   string    `cbor:"0,keyasint"`
	Format  uint8     `cbor:"1,keyasint"`
	Created time.Time `cbor:"2,keyasint"`

	// Build is the bridge build that wrote the file.
	Build string `cbor:"3,keyasint,omitempty"`

	// Profile and Baud describe the session the capture started in.
	Profile string `cbor:"4,keyasint,omitempty"`
	Baud    int    `cbor:"5,keyasint,omitempty"`
}

// logEncMode encodes records with nanosecond timestamps and canonical key order.
var logEncMode cbor.EncMode

var logDecMode cbor.DecMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	logEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR encoder mode: %v", err))
	}

	// Unknown keys are ignored so older tools can read newer events.
	decOpts := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}
	logDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR bytes.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes CBOR bytes into an Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// readHeader decodes the first record of a log stream and checks it.
func readHeader(dec *cbor.Decoder) (Header, error) {
	var raw cbor.RawMessage
	if err := dec.Decode(&raw); err != nil {
		if err == io.EOF {
			return Header{}, fmt.Errorf("%w: empty file", ErrNotLogFile)
		}
		return Header{}, fmt.Errorf("%w: %v", ErrNotLogFile, err)
	}
	var h Header
	if err := logDecMode.Unmarshal(raw, &h); err != nil || h.Magic != HeaderMagic {
		return Header{}, ErrNotLogFile
	}
	if h.Format > FormatVersion {
		return Header{}, fmt.Errorf("%w: format %d, this build reads up to %d", ErrUnsupportedFormat, h.Format, FormatVersion)
	}
	return h, nil
}

// NewEncoder creates a record encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

// NewDecoder creates a record decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}
