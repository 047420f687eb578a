package link

import (
	"context"
	"errors"
	"fmt"

	"go.bug.st/serial"
)

// Link errors.
var (
	ErrAlreadyOpen        = errors.New("link already open")
	ErrOpenInFlight       = errors.New("open already in progress")
	ErrNoPicker           = errors.New("port not authorized and no picker configured")
	ErrClosedWhileOpening = errors.New("link closed while opening")
)

// Reason classifies why an open failed or an open link was lost.
type Reason uint8

const (
	// ReasonUnavailable means the port does not exist or could not be found.
	ReasonUnavailable Reason = iota

	// ReasonBusy means another process holds the port.
	ReasonBusy

	// ReasonDenied means the OS refused access to the port.
	ReasonDenied

	// ReasonVanished means the device disappeared while open.
	ReasonVanished

	// ReasonCancelled means the user dismissed the picker or the context ended.
	ReasonCancelled
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonUnavailable:
		return "unavailable"
	case ReasonBusy:
		return "busy"
	case ReasonDenied:
		return "denied"
	case ReasonVanished:
		return "vanished"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ConnectionError reports a failed open or a lost port.
type ConnectionError struct {
	// Op is the operation that failed ("open", "pick", "write").
	Op string

	// Port is the port identifier involved, if known.
	Port string

	Reason Reason
	Err    error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("link %s", e.Op)
	if e.Port != "" {
		msg += " " + e.Port
	}
	msg += ": " + e.Reason.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsReason reports whether err is a ConnectionError with the given reason.
func IsReason(err error, reason Reason) bool {
	var ce *ConnectionError
	return errors.As(err, &ce) && ce.Reason == reason
}

// classify maps driver errors to a Reason.
func classify(err error) Reason {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrPickCancelled) {
		return ReasonCancelled
	}

	code, ok := portErrorCode(err)
	if !ok {
		return ReasonUnavailable
	}
	switch code {
	case serial.PortBusy:
		return ReasonBusy
	case serial.PermissionDenied:
		return ReasonDenied
	case serial.PortClosed:
		return ReasonVanished
	default:
		return ReasonUnavailable
	}
}

// portErrorCode extracts the serial driver error code. The driver returns
// PortError both by value and by pointer depending on platform.
func portErrorCode(err error) (serial.PortErrorCode, bool) {
	var pe serial.PortError
	if errors.As(err, &pe) {
		return pe.Code(), true
	}
	var ppe *serial.PortError
	if errors.As(err, &ppe) && ppe != nil {
		return ppe.Code(), true
	}
	return 0, false
}
