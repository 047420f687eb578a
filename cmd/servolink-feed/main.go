// Command servolink-feed publishes samples to a running servolink bridge.
// Each input line becomes one feed message. A line is either a list of
// numbers for the default source or a JSON object:
//
//	0.25 0.75
//	{"source":"pose","points":[{"x":320,"y":200,"confidence":0.9}],"width":640,"height":480}
//
// Usage:
//
//	servolink-feed [flags]
//
// Flags:
//
//	-addr string       Bridge feed address (default "127.0.0.1:7400")
//	-discover          Locate the bridge over mDNS instead of -addr
//	-profile string    With -discover, only accept a bridge running this profile
//	-iface string      With -discover, browse on this interface only
//	-timeout duration  With -discover, how long to browse (default 5s)
//	-source string     Source for plain number lines (default "sliders")
//	-retries int       Connection attempts, 0 retries forever (default 5)
//
// Examples:
//
//	# Drive the sliders of a local bridge
//	echo "0 255" | servolink-feed
//
//	# Find a point-at-you bridge on the network and stream pose JSON to it
//	pose-detector --json | servolink-feed -discover -profile point-at-you
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/servolink/servolink-go/pkg/discovery"
	"github.com/servolink/servolink-go/pkg/feed"
)

func main() {
	addr := flag.String("addr", net.JoinHostPort("127.0.0.1", strconv.Itoa(feed.DefaultPort)), "Bridge feed address")
	discover := flag.Bool("discover", false, "Locate the bridge over mDNS instead of -addr")
	profile := flag.String("profile", "", "With -discover, only accept a bridge running this profile")
	iface := flag.String("iface", "", "With -discover, browse on this interface only")
	timeout := flag.Duration("timeout", 5*time.Second, "With -discover, how long to browse")
	source := flag.String("source", "sliders", "Source for plain number lines")
	retries := flag.Int("retries", 5, "Connection attempts, 0 retries forever")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	target := *addr
	if *discover {
		browser := discovery.NewMDNSBrowser(discovery.BrowserConfig{Interface: *iface})
		svc, err := locate(ctx, browser, *profile, *timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		target = svc.Addr()
		fmt.Fprintf(os.Stderr, "Found %q (profile %s, channels %v) at %s\n",
			svc.Instance, svc.Profile, svc.Channels, target)
	}

	client, err := feed.DialWithRetry(ctx, target, feed.NewBackoff(), *retries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	go func() {
		<-ctx.Done()
		os.Stdin.Close()
	}()

	sent, err := pump(os.Stdin, client, *source, os.Stderr)
	fmt.Fprintf(os.Stderr, "%d messages sent\n", sent)
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Finder locates a bridge feed.
type Finder interface {
	FindFirst(ctx context.Context, profile string) (*discovery.FeedService, error)
}

// locate browses for at most timeout and returns the first matching feed.
func locate(ctx context.Context, f Finder, profile string, timeout time.Duration) (*discovery.FeedService, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	svc, err := f.FindFirst(ctx, profile)
	if err != nil || svc == nil {
		if profile != "" {
			return nil, fmt.Errorf("no bridge running %q found within %v", profile, timeout)
		}
		return nil, fmt.Errorf("no bridge found within %v", timeout)
	}
	return svc, nil
}

// Sender delivers one feed message.
type Sender interface {
	Send(m feed.Message) error
}

// pump reads lines from r and sends each parsed message. Lines that do not
// parse are reported to errs and skipped. A send failure stops the pump.
func pump(r io.Reader, s Sender, source string, errs io.Writer) (int, error) {
	scanner := bufio.NewScanner(r)
	sent := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		m, ok, err := ParseLine(scanner.Text(), source)
		if err != nil {
			fmt.Fprintf(errs, "line %d: %v\n", lineNo, err)
			continue
		}
		if !ok {
			continue
		}
		if err := s.Send(m); err != nil {
			return sent, fmt.Errorf("send: %w", err)
		}
		sent++
	}
	return sent, scanner.Err()
}

var (
	_ Finder = (*discovery.MDNSBrowser)(nil)
	_ Sender = (*feed.Client)(nil)
)
