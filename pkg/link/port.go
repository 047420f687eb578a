package link

import (
	"io"

	"go.bug.st/serial"
)

// Port is an open serial port.
type Port interface {
	io.Writer
	Close() error
}

// Opener opens a named port at a baud rate.
type Opener interface {
	Open(name string, baud int) (Port, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(name string, baud int) (Port, error)

// Open calls f.
func (f OpenerFunc) Open(name string, baud int) (Port, error) {
	return f(name, baud)
}

// BugstOpener opens real serial ports with go.bug.st/serial using 8-N-1.
type BugstOpener struct{}

// Open opens the port.
func (BugstOpener) Open(name string, baud int) (Port, error) {
	p, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

var _ Opener = BugstOpener{}
