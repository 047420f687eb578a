// Command servolink-sim stands in for the Arduino on the other end of the
// link. It reads protocol lines from a serial port (or stdin), decodes
// them the way the sketch does and prints the resulting channel values.
//
// Usage:
//
//	servolink-sim [flags]
//
// Flags:
//
//	-port string    Serial port to read (default: stdin)
//	-baud int       Baud rate (default 57600)
//	-domain string  Value domain: led or servo (default "led")
//	-channels int   Expected values per line (default 2)
//	-quiet          Only print the summary
//
// Examples:
//
//	# Read from the second end of a virtual serial pair
//	servolink-sim -port /dev/pts/4 -domain servo
//
//	# Check a captured stream
//	servolink-log export -format lines bridge.llog | servolink-sim
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.bug.st/serial"

	"github.com/servolink/servolink-go/pkg/link"
	"github.com/servolink/servolink-go/pkg/wire"
)

func main() {
	port := flag.String("port", "", "Serial port to read (default: stdin)")
	baud := flag.Int("baud", link.DefaultBaud, "Baud rate")
	domainName := flag.String("domain", wire.DomainLED.Name, "Value domain: led or servo")
	channels := flag.Int("channels", 2, "Expected values per line")
	quiet := flag.Bool("quiet", false, "Only print the summary")
	flag.Parse()

	domain, ok := wire.DomainByName(*domainName)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown domain %q\n", *domainName)
		os.Exit(1)
	}

	var in io.ReadCloser = os.Stdin
	if *port != "" {
		p, err := serial.Open(*port, &serial.Mode{BaudRate: *baud})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: open %s: %v\n", *port, err)
			os.Exit(1)
		}
		in = p
		fmt.Fprintf(os.Stderr, "Listening on %s at %d baud\n", *port, *baud)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		in.Close()
	}()

	dev := NewDevice(domain, *channels)
	out := io.Writer(os.Stdout)
	if *quiet {
		out = io.Discard
	}

	err := dev.Run(in, out)
	fmt.Fprintln(os.Stderr, dev.Summary())
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
