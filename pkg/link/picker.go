package link

import (
	"context"
	"errors"
	"strings"

	"go.bug.st/serial/enumerator"
)

// ErrPickCancelled is returned by a Picker when no port was chosen.
var ErrPickCancelled = errors.New("no port selected")

// Picker resolves a requested name to a concrete port. It stands in for the
// platform's port chooser and may block until the user decides.
type Picker interface {
	Pick(ctx context.Context, hint string) (string, error)
}

// PickerFunc adapts a function to the Picker interface.
type PickerFunc func(ctx context.Context, hint string) (string, error)

// Pick calls f.
func (f PickerFunc) Pick(ctx context.Context, hint string) (string, error) {
	return f(ctx, hint)
}

// USBPicker chooses among USB serial devices reported by the OS.
//
// A hint equal to a device path selects it directly. Otherwise the hint is
// matched case-insensitively against the USB product string; the generic
// name matches any USB device. The first match wins.
type USBPicker struct {
	// List enumerates ports. Defaults to enumerator.GetDetailedPortsList.
	List func() ([]*enumerator.PortDetails, error)
}

// NewUSBPicker creates a picker backed by the OS enumerator.
func NewUSBPicker() *USBPicker {
	return &USBPicker{List: enumerator.GetDetailedPortsList}
}

// Pick returns the first port matching hint.
func (p *USBPicker) Pick(ctx context.Context, hint string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	list := p.List
	if list == nil {
		list = enumerator.GetDetailedPortsList
	}
	ports, err := list()
	if err != nil {
		return "", err
	}

	for _, d := range ports {
		if d.Name == hint {
			return d.Name, nil
		}
	}

	needle := strings.ToLower(hint)
	for _, d := range ports {
		if !d.IsUSB {
			continue
		}
		if hint == GenericPortName || hint == "" || strings.Contains(strings.ToLower(d.Product), needle) {
			return d.Name, nil
		}
	}

	return "", ErrPickCancelled
}

var _ Picker = (*USBPicker)(nil)
