package console

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.bug.st/serial/enumerator"

	"github.com/servolink/servolink-go/pkg/session"
)

type fakeController struct {
	commands []session.Command
	status   session.Status
}

func (f *fakeController) Submit(cmd session.Command) error {
	f.commands = append(f.commands, cmd)
	return nil
}

func (f *fakeController) Status() session.Status { return f.status }
func (f *fakeController) SourceNames() []string  { return []string{"pointer", "static"} }

func (f *fakeController) Accepts(source string) error {
	switch source {
	case "pointer":
		return nil
	case "static":
		return fmt.Errorf("%w: %q", session.ErrReadOnly, source)
	}
	return fmt.Errorf("%w: %q", session.ErrUnknownSource, source)
}

type fakePorts []string

func (p fakePorts) ListAuthorizedPorts() []string { return p }

func newTestConsole() (*Console, *fakeController, *bytes.Buffer) {
	ctl := &fakeController{}
	var buf bytes.Buffer
	c := &Console{
		ctl:   ctl,
		ports: fakePorts{"/dev/ttyACM0"},
		out:   &buf,
	}
	return c, ctl, &buf
}

func TestExecCommands(t *testing.T) {
	tests := []struct {
		line string
		want session.Command
	}{
		{"connect", session.Connect("")},
		{"connect COM4", session.Connect("COM4")},
		{"disconnect", session.Disconnect()},
		{"up", session.CycleUp()},
		{"DOWN", session.CycleDown()},
		{"overlay", session.ToggleOverlay()},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, ctl, _ := newTestConsole()

			if !c.Exec(tt.line) {
				t.Fatal("Exec returned false")
			}
			if len(ctl.commands) != 1 {
				t.Fatalf("got %d commands, want 1", len(ctl.commands))
			}
			got := ctl.commands[0]
			if got.Kind != tt.want.Kind || got.Port != tt.want.Port {
				t.Errorf("command = %+v, want %+v", got, tt.want)
			}
			if got.Origin != Origin {
				t.Errorf("origin = %q, want %q", got.Origin, Origin)
			}
		})
	}
}

func TestExecQuit(t *testing.T) {
	c, _, _ := newTestConsole()
	for _, line := range []string{"quit", "exit", "q"} {
		if c.Exec(line) {
			t.Errorf("Exec(%q) should stop the console", line)
		}
	}
	if !c.Exec("   ") {
		t.Error("blank line should keep the console running")
	}
}

func TestExecSet(t *testing.T) {
	c, ctl, _ := newTestConsole()

	c.Exec("set pointer 0.25 0.5")
	if len(ctl.commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(ctl.commands))
	}
	cmd := ctl.commands[0]
	if cmd.Kind != session.CmdSetInput || cmd.Source != "pointer" {
		t.Errorf("unexpected command %+v", cmd)
	}
	if len(cmd.Sample.Values) != 2 || cmd.Sample.Values[0] != 0.25 || cmd.Sample.Values[1] != 0.5 {
		t.Errorf("values = %v", cmd.Sample.Values)
	}
}

func TestExecSetErrors(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"set pointer", "Usage"},
		{"set static 1", "does not accept input"},
		{"set nope 1", "unknown source"},
		{"set pointer x", "invalid value"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			c, ctl, buf := newTestConsole()
			c.Exec(tt.line)

			if len(ctl.commands) != 0 {
				t.Errorf("no command expected, got %+v", ctl.commands)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output %q does not contain %q", buf.String(), tt.want)
			}
		})
	}
}

func TestExecUnknown(t *testing.T) {
	c, _, buf := newTestConsole()
	c.Exec("dance")
	if !strings.Contains(buf.String(), "Unknown command: dance") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestExecPorts(t *testing.T) {
	c, ctl, buf := newTestConsole()
	ctl.status.Port = "/dev/ttyACM0"
	c.Enumerate = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043", Product: "Arduino Uno"},
			{Name: "/dev/ttyS0"},
		}, nil
	}

	c.Exec("ports")
	out := buf.String()
	for _, want := range []string{"* /dev/ttyACM0", "USB 2341:0043 Arduino Uno", "/dev/ttyS0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExecPortsEnumerateError(t *testing.T) {
	c, _, buf := newTestConsole()
	c.Enumerate = func() ([]*enumerator.PortDetails, error) {
		return nil, errors.New("no permission")
	}

	c.Exec("ports")
	if !strings.Contains(buf.String(), "Error listing ports: no permission") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestExecStatus(t *testing.T) {
	c, ctl, buf := newTestConsole()
	ctl.status = session.Status{
		Open:    true,
		Label:   session.LabelDisconnect,
		Port:    "COM3",
		Profile: "servo-smooth",
		Channels: []session.ChannelStatus{
			{Name: "pan", Value: 68, Target: 45, Moving: true, Min: 0, Max: 180},
			{Name: "tilt", Value: 113, Target: 113, Min: 0, Max: 180},
		},
		HasValue: true,
		LastLine: "68,113\n",
		Ticks:    3,
		Writes:   3,
	}

	c.Exec("status")
	out := buf.String()
	for _, want := range []string{"open on COM3 [Disconnect]", "servo-smooth", "68 -> 45", "Last line: 68,113", "Writes: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
