// Package console provides the interactive command-line interface of the
// servolink bridge.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"go.bug.st/serial/enumerator"

	"github.com/servolink/servolink-go/pkg/session"
	"github.com/servolink/servolink-go/pkg/signal"
)

// Origin tags commands typed at the console.
const Origin = "console"

// Controller is the part of the session the console drives.
type Controller interface {
	Submit(cmd session.Command) error
	Status() session.Status
	Accepts(source string) error
	SourceNames() []string
}

// PortLister lists authorized serial ports.
type PortLister interface {
	ListAuthorizedPorts() []string
}

// Console handles interactive mode.
type Console struct {
	ctl   Controller
	ports PortLister
	rl    *readline.Instance
	out   io.Writer

	// Enumerate lists the serial ports present on the machine.
	Enumerate func() ([]*enumerator.PortDetails, error)
}

// New creates a console on the terminal. Attach must be called before Run.
func New() (*Console, error) {
	c := &Console{Enumerate: enumerator.GetDetailedPortsList}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "servolink> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    c.completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	c.rl = rl
	c.out = rl.Stdout()
	return c, nil
}

// Attach connects the console to the session and the port list.
func (c *Console) Attach(ctl Controller, ports PortLister) {
	c.ctl = ctl
	c.ports = ports
}

func (c *Console) completer() *readline.PrefixCompleter {
	sources := func(string) []string {
		if c.ctl == nil {
			return nil
		}
		return c.ctl.SourceNames()
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("connect"),
		readline.PcItem("disconnect"),
		readline.PcItem("ports"),
		readline.PcItem("set", readline.PcItemDynamic(sources)),
		readline.PcItem("up"),
		readline.PcItem("down"),
		readline.PcItem("overlay"),
		readline.PcItem("status"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline prompt.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Close releases the terminal.
func (c *Console) Close() error {
	return c.rl.Close()
}

// Run starts the interactive command loop. It calls cancel when the user
// quits or closes input.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Exec(line) {
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
	}
}

// Exec runs one command line and reports whether the console should keep
// running.
func (c *Console) Exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	out := c.out

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "connect", "c":
		port := ""
		if len(args) > 0 {
			port = args[0]
		}
		c.submit(session.Connect(port))

	case "disconnect", "d":
		c.submit(session.Disconnect())

	case "ports", "p":
		c.cmdPorts()

	case "set", "s":
		c.cmdSet(args)

	case "up", "+":
		c.submit(session.CycleUp())

	case "down", "-":
		c.submit(session.CycleDown())

	case "overlay", "o":
		c.submit(session.ToggleOverlay())

	case "status", "st":
		c.cmdStatus()

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

func (c *Console) submit(cmd session.Command) {
	if err := c.ctl.Submit(cmd.From(Origin)); err != nil {
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}

func (c *Console) cmdSet(args []string) {
	out := c.out
	if len(args) < 2 {
		fmt.Fprintln(out, "Usage: set <source> <value> [value...]")
		fmt.Fprintf(out, "Sources: %s\n", strings.Join(c.ctl.SourceNames(), ", "))
		return
	}

	source := args[0]
	if err := c.ctl.Accepts(source); err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return
	}

	values := make([]float64, 0, len(args)-1)
	for _, a := range args[1:] {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			fmt.Fprintf(out, "Error: invalid value %q\n", a)
			return
		}
		values = append(values, v)
	}

	c.submit(session.SetInput(source, signal.Sample{Values: values}))
}

func (c *Console) cmdPorts() {
	out := c.out

	authorized := c.ports.ListAuthorizedPorts()
	fmt.Fprintln(out, "Authorized ports:")
	if len(authorized) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	current := c.ctl.Status().Port
	for _, p := range authorized {
		marker := " "
		if p == current {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s\n", marker, p)
	}

	if c.Enumerate == nil {
		return
	}
	details, err := c.Enumerate()
	if err != nil {
		fmt.Fprintf(out, "Error listing ports: %v\n", err)
		return
	}
	fmt.Fprintln(out, "Present ports:")
	if len(details) == 0 {
		fmt.Fprintln(out, "  (none)")
	}
	for _, d := range details {
		if d.IsUSB {
			fmt.Fprintf(out, "    %s  USB %s:%s %s\n", d.Name, d.VID, d.PID, d.Product)
		} else {
			fmt.Fprintf(out, "    %s\n", d.Name)
		}
	}
}

func (c *Console) cmdStatus() {
	out := c.out
	st := c.ctl.Status()

	state := "closed"
	if st.Open {
		state = "open on " + st.Port
	}
	fmt.Fprintf(out, "Link:      %s [%s]\n", state, st.Label)
	fmt.Fprintf(out, "Profile:   %s\n", st.Profile)
	fmt.Fprintf(out, "Selection: %d\n", st.Selection)
	fmt.Fprintf(out, "Overlay:   %v\n", st.Overlay)
	for _, ch := range st.Channels {
		moving := ""
		if ch.Moving {
			moving = fmt.Sprintf(" -> %d", ch.Target)
		}
		fmt.Fprintf(out, "  %-6s %4d%s  [%g..%g]\n", ch.Name, ch.Value, moving, ch.Min, ch.Max)
	}
	if !st.HasValue {
		fmt.Fprintln(out, "  (no value this tick)")
	}
	if st.LastLine != "" {
		fmt.Fprintf(out, "Last line: %s\n", strings.TrimRight(st.LastLine, "\n"))
	}
	fmt.Fprintf(out, "Ticks: %d  Writes: %d  Dropped: %d\n", st.Ticks, st.Writes, st.Dropped)
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, `
servolink commands:
  Link:
    connect [port]      - Open a serial port (default: pick the Arduino)
    disconnect          - Close the serial port
    ports               - List authorized and present ports

  Control:
    set <source> <v...> - Push values into an input source
    up / down           - Cycle the selected keypoint
    overlay             - Toggle the overlay flag
    status              - Show channels and link state

    help                - Show this help
    quit                - Exit`)
}
