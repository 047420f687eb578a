package session

import (
	"github.com/servolink/servolink-go/pkg/signal"
)

// CommandKind identifies a session command.
type CommandKind uint8

const (
	// CmdConnect opens Port, or the generic device name when empty.
	CmdConnect CommandKind = iota

	// CmdDisconnect closes the link.
	CmdDisconnect

	// CmdCycleUp selects the next item (keypoint).
	CmdCycleUp

	// CmdCycleDown selects the previous item.
	CmdCycleDown

	// CmdToggleOverlay flips the overlay flag reported in Status.
	CmdToggleOverlay

	// CmdSetInput delivers Sample to the source named Source.
	CmdSetInput
)

// String returns the command name.
func (k CommandKind) String() string {
	switch k {
	case CmdConnect:
		return "connect"
	case CmdDisconnect:
		return "disconnect"
	case CmdCycleUp:
		return "cycle-up"
	case CmdCycleDown:
		return "cycle-down"
	case CmdToggleOverlay:
		return "toggle-overlay"
	case CmdSetInput:
		return "set-input"
	default:
		return "unknown"
	}
}

// Command is a discrete request applied at the start of the next tick.
type Command struct {
	Kind CommandKind

	// Port is the port to open for CmdConnect.
	Port string

	// Source and Sample are used by CmdSetInput.
	Source string
	Sample signal.Sample

	// Origin names the sender for logging ("console", "api", "feed").
	Origin string
}

// Connect returns a connect command.
func Connect(port string) Command { return Command{Kind: CmdConnect, Port: port} }

// Disconnect returns a disconnect command.
func Disconnect() Command { return Command{Kind: CmdDisconnect} }

// CycleUp returns a command selecting the next item.
func CycleUp() Command { return Command{Kind: CmdCycleUp} }

// CycleDown returns a command selecting the previous item.
func CycleDown() Command { return Command{Kind: CmdCycleDown} }

// ToggleOverlay returns an overlay toggle command.
func ToggleOverlay() Command { return Command{Kind: CmdToggleOverlay} }

// SetInput returns a command delivering s to the named source.
func SetInput(source string, s signal.Sample) Command {
	return Command{Kind: CmdSetInput, Source: source, Sample: s}
}

// From sets the command origin.
func (c Command) From(origin string) Command {
	c.Origin = origin
	return c
}
