// Command servolink bridges live input to an Arduino over a serial port.
//
// It runs one control loop at a fixed frame rate: each tick it reads the
// active profile's inputs, interpolates the channels and writes one CSV line
// ("v1,v2\n") to the device while the port is open.
//
// Usage:
//
//	servolink [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-profile string       Profile name (see -list-profiles)
//	-port string          Serial port for explicit connect
//	-baud int             Baud rate (default 57600)
//	-fps int              Loop rate (default 60)
//	-feed string          Sample feed listen address, e.g. :7400
//	-advertise            Announce the feed over mDNS
//	-http string          HTTP API listen address, e.g. :8080
//	-log-level string     Log level: debug, info, warn, error
//	-protocol-log string  Capture protocol events to this file
//	-no-auto-connect      Do not open the first authorized port at startup
//	-headless             Run without the interactive console
//	-list-profiles        Print the profile names and exit
//
// Examples:
//
//	# Drive two servos with smoothing and take pose input on :7400
//	servolink -profile point-at-you -feed :7400 -advertise
//
//	# LED fade, controlled from a browser
//	servolink -profile fade-led -http :8080
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/servolink/servolink-go/cmd/servolink/console"
	"github.com/servolink/servolink-go/pkg/api"
	"github.com/servolink/servolink-go/pkg/config"
	"github.com/servolink/servolink-go/pkg/discovery"
	"github.com/servolink/servolink-go/pkg/feed"
	"github.com/servolink/servolink-go/pkg/link"
	"github.com/servolink/servolink-go/pkg/log"
	"github.com/servolink/servolink-go/pkg/profile"
	sig "github.com/servolink/servolink-go/pkg/signal"
	"github.com/servolink/servolink-go/pkg/session"
	"github.com/servolink/servolink-go/pkg/version"
)

// Flags holds command-line overrides. Only flags the user set are applied
// on top of the configuration file.
type Flags struct {
	ConfigFile    string
	Profile       string
	Port          string
	Baud          int
	FPS           int
	Feed          string
	Advertise     bool
	HTTP          string
	LogLevel      string
	ProtocolLog   string
	NoAutoConnect bool
	Headless      bool
	ListProfiles  bool
}

var flags Flags

func init() {
	flag.StringVar(&flags.ConfigFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.Profile, "profile", "", "Profile name (see -list-profiles)")
	flag.StringVar(&flags.Port, "port", "", "Serial port for explicit connect")
	flag.IntVar(&flags.Baud, "baud", link.DefaultBaud, "Baud rate")
	flag.IntVar(&flags.FPS, "fps", session.DefaultFPS, "Loop rate in ticks per second")
	flag.StringVar(&flags.Feed, "feed", "", "Sample feed listen address, e.g. :7400")
	flag.BoolVar(&flags.Advertise, "advertise", false, "Announce the feed over mDNS")
	flag.StringVar(&flags.HTTP, "http", "", "HTTP API listen address, e.g. :8080")
	flag.StringVar(&flags.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.ProtocolLog, "protocol-log", "", "Capture protocol events to this file")
	flag.BoolVar(&flags.NoAutoConnect, "no-auto-connect", false, "Do not open the first authorized port at startup")
	flag.BoolVar(&flags.Headless, "headless", false, "Run without the interactive console")
	flag.BoolVar(&flags.ListProfiles, "list-profiles", false, "Print the profile names and exit")
}

func main() {
	flag.Parse()

	if flags.ListProfiles {
		printProfiles(os.Stdout)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "profile":
			cfg.Profile = flags.Profile
		case "port":
			cfg.Serial.Port = flags.Port
		case "baud":
			cfg.Serial.Baud = flags.Baud
		case "fps":
			cfg.Loop.FPS = flags.FPS
		case "feed":
			cfg.Feed.Listen = flags.Feed
		case "advertise":
			cfg.Feed.Advertise = flags.Advertise
		case "http":
			cfg.HTTP.Listen = flags.HTTP
		case "log-level":
			cfg.Log.Level = flags.LogLevel
		case "protocol-log":
			cfg.Log.ProtocolFile = flags.ProtocolLog
		case "no-auto-connect":
			cfg.Serial.AutoConnect = !flags.NoAutoConnect
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prof, err := cfg.BuildProfile()
	if err != nil {
		return err
	}

	store, err := authorizedStore(cfg.Serial.AuthorizedFile)
	if err != nil {
		return err
	}

	// Protocol capture: every event to the file (optional), lifecycle
	// events to slog at debug level.
	var fileLogger *log.FileLogger
	if cfg.Log.ProtocolFile != "" {
		fileLogger, err = log.NewFileLogger(cfg.Log.ProtocolFile,
			log.WithBuild(version.Build),
			log.WithProfile(prof.Name),
			log.WithBaud(cfg.Serial.Baud),
		)
		if err != nil {
			return fmt.Errorf("open protocol log: %w", err)
		}
		defer fileLogger.Close()
	}

	// The console owns the terminal; logs go through it so they do not
	// clobber the prompt.
	var con *console.Console
	logOut := io.Writer(os.Stderr)
	if !flags.Headless {
		con, err = console.New()
		if err != nil {
			return err
		}
		defer con.Close()
		logOut = con.Stderr()
	}

	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	protoLog := log.NewMultiLogger(
		fileLoggerOrNil(fileLogger),
		log.OnlyCategories(log.NewSlogAdapter(logger), log.CategoryState, log.CategoryCommand, log.CategoryError),
	)

	lnk := link.New(link.BugstOpener{},
		link.WithPicker(link.NewUSBPicker()),
		link.WithStore(store),
		link.WithLogger(protoLog),
		link.WithBaud(cfg.Serial.Baud),
	)

	sess, err := session.New(prof, lnk, session.Config{
		FPS:            cfg.Loop.FPS,
		QueueSize:      cfg.Loop.QueueSize,
		MaxSampleAge:   cfg.Feed.MaxAge,
		Logger:         logger,
		ProtocolLogger: protoLog,
	})
	if err != nil {
		return err
	}
	if con != nil {
		con.Attach(sess, lnk)
	}

	lnk.OnStateChange(func(oldState, newState link.State, err error) {
		if err != nil {
			logger.Warn("link state changed", "from", oldState, "to", newState, "error", err)
			return
		}
		logger.Info("link state changed", "from", oldState, "to", newState, "port", lnk.Port())
	})

	logger.Info("servolink starting",
		"version", version.Build,
		"profile", prof.Name,
		"channels", len(prof.Channels),
		"baud", cfg.Serial.Baud,
		"fps", cfg.Loop.FPS)

	if cfg.Serial.AutoConnect {
		if err := lnk.AutoConnect(ctx); err != nil {
			logger.Warn("auto-connect failed", "error", err)
		}
	}

	go func() {
		if err := sess.Run(ctx); err != nil {
			logger.Error("control loop stopped", "error", err)
			cancel()
		}
	}()

	if cfg.Feed.Listen != "" {
		srv, adv, err := startFeed(ctx, cfg, sess, prof, logger, protoLog)
		if err != nil {
			return err
		}
		defer srv.Stop()
		if adv != nil {
			defer adv.Stop()
		}
	}

	if cfg.HTTP.Listen != "" {
		httpSrv := startHTTP(cfg, sess, lnk, logger)
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigCh:
			logger.Info("received signal", "signal", s)
			cancel()
		case <-ctx.Done():
		}
	}()

	if con != nil {
		go con.Run(ctx, cancel)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	if err := lnk.Close(); err != nil {
		logger.Warn("closing link", "error", err)
	}
	return nil
}

func authorizedStore(path string) (link.AuthorizedStore, error) {
	if path == "" {
		return link.NewMemoryStore(), nil
	}
	return link.NewFileStore(path)
}

// fileLoggerOrNil avoids handing a typed nil to the multi logger.
func fileLoggerOrNil(f *log.FileLogger) log.Logger {
	if f == nil {
		return nil
	}
	return f
}

func startFeed(ctx context.Context, cfg *config.Config, sess *session.Session, prof *profile.Profile,
	logger *slog.Logger, protoLog log.Logger) (*feed.Server, *discovery.MDNSAdvertiser, error) {
	srv, err := feed.NewServer(feed.ServerConfig{
		Address: cfg.Feed.Listen,
		Sink: func(source string, s sig.Sample) error {
			if err := sess.Accepts(source); err != nil {
				return err
			}
			return sess.Submit(session.SetInput(source, s).From("feed"))
		},
		Logger:         logger,
		ProtocolLogger: protoLog,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := srv.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("start feed: %w", err)
	}
	logger.Info("feed listening", "addr", srv.Addr().String(), "sources", sess.SourceNames())

	if !cfg.Feed.Advertise {
		return srv, nil, nil
	}

	adv := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	names := make([]string, len(prof.Channels))
	for i, ch := range prof.Channels {
		names[i] = ch.Name
	}
	err = adv.Advertise(ctx, &discovery.FeedInfo{
		Instance: cfg.Feed.Instance,
		Port:     uint16(srv.Port()),
		Profile:  prof.Name,
		Channels: names,
		Baud:     cfg.Serial.Baud,
	})
	if err != nil {
		logger.Warn("mDNS advertisement failed", "error", err)
		return srv, nil, nil
	}
	logger.Info("feed advertised", "service", discovery.ServiceType, "instance", cfg.Feed.Instance)
	return srv, adv, nil
}

func startHTTP(cfg *config.Config, sess *session.Session, lnk *link.Link, logger *slog.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	engine := api.NewEngine(api.NewServer(sess, lnk, version.Build, logger), cfg.HTTP.AllowOrigins)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()
	logger.Info("HTTP API listening", "addr", cfg.HTTP.Listen)
	return httpSrv
}

func printProfiles(w io.Writer) {
	for _, name := range profile.Names() {
		p, err := profile.Lookup(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "%-14s %s\n", name, p.Description)
	}
}
