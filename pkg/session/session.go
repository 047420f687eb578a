package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/servolink/servolink-go/pkg/interp"
	"github.com/servolink/servolink-go/pkg/link"
	"github.com/servolink/servolink-go/pkg/log"
	"github.com/servolink/servolink-go/pkg/profile"
	"github.com/servolink/servolink-go/pkg/signal"
	"github.com/servolink/servolink-go/pkg/wire"
)

const (
	// DefaultFPS is the tick rate used when Config.FPS is zero.
	DefaultFPS = 60

	// DefaultQueueSize is the command buffer size used when Config.QueueSize is zero.
	DefaultQueueSize = 64
)

// Session errors.
var (
	ErrQueueFull     = errors.New("command queue full")
	ErrUnknownSource = errors.New("unknown source")
	ErrReadOnly      = errors.New("source does not accept input")
)

// Link is the part of the serial link the loop needs.
type Link interface {
	IsOpen() bool
	Port() string
	ConnectionID() string
	Baud() int
	Write(p []byte) bool
	OpenAsync(ctx context.Context, portID string, baud int) <-chan error
	Close() error
}

// Config configures a Session.
type Config struct {
	// FPS is the tick rate for Run.
	FPS int

	// QueueSize is the command buffer size.
	QueueSize int

	// Clock supplies the time for Run and for source start times.
	Clock interp.Clock

	// MaxSampleAge, when set, limits how long pushed samples stay usable.
	MaxSampleAge time.Duration

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures lines, commands and samples.
	ProtocolLogger log.Logger
}

// Session is the control loop for one profile and one link.
type Session struct {
	profile  *profile.Profile
	link     Link
	channels []*interp.Channel
	bounds   []interp.Bounds
	sources  map[string]signal.Source
	commands chan Command

	// Loop-owned state.
	ctx       context.Context
	selection int
	overlay   bool
	ticks     uint64
	writes    uint64
	dropped   uint64
	lastLine  string

	statusMu sync.RWMutex
	status   Status

	fps      int
	clock    interp.Clock
	logger   *slog.Logger
	protoLog log.Logger
}

// New creates a session running p against l.
func New(p *profile.Profile, l Link, cfg Config) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("session: link is required")
	}

	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Session{
		profile:  p,
		link:     l,
		sources:  p.Sources(cfg.Clock()),
		commands: make(chan Command, cfg.QueueSize),
		ctx:      context.Background(),
		fps:      cfg.FPS,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		protoLog: log.OrNoop(cfg.ProtocolLogger),
	}

	if cfg.MaxSampleAge > 0 {
		for _, src := range s.sources {
			if l, ok := src.(*signal.Latest); ok {
				l.SetMaxAge(cfg.MaxSampleAge)
			}
		}
	}

	for _, spec := range p.Channels {
		ch := interp.New(spec.Initial, spec.Duration, spec.Bounds,
			interp.WithClock(cfg.Clock),
			interp.WithRebasePolicy(p.Policy),
		)
		s.channels = append(s.channels, ch)
		s.bounds = append(s.bounds, spec.Bounds)
	}

	s.publish(cfg.Clock(), false)
	return s, nil
}

// Profile returns the profile name.
func (s *Session) Profile() string {
	return s.profile.Name
}

// SourceNames returns the names of the profile's sources, sorted.
func (s *Session) SourceNames() []string {
	names := make([]string, 0, len(s.sources))
	for name := range s.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Submit queues a command for the next tick. It never blocks.
func (s *Session) Submit(cmd Command) error {
	select {
	case s.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// Status returns the latest published snapshot.
func (s *Session) Status() Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status.clone()
}

// Run ticks at the configured rate until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	s.ctx = ctx

	ticker := time.NewTicker(time.Second / time.Duration(s.fps))
	defer ticker.Stop()

	s.logger.Info("session started", "profile", s.profile.Name, "fps", s.fps)
	s.Tick(s.clock())
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session stopped", "ticks", s.ticks)
			return nil
		case <-ticker.C:
			s.Tick(s.clock())
		}
	}
}

// Tick runs one iteration of the loop at now.
func (s *Session) Tick(now time.Time) {
	s.drain(now)

	samples := make(map[string]signal.Sample, len(s.sources))
	for name, src := range s.sources {
		if sample, ok := src.Sample(now); ok {
			samples[name] = sample
		}
	}

	targets, ok := s.profile.Mapper(profile.Inputs{
		Now:       now,
		Samples:   samples,
		Selection: s.selection,
		Bounds:    s.bounds,
	})
	if ok && len(targets) != len(s.channels) {
		s.logger.Error("mapper returned wrong number of targets",
			"profile", s.profile.Name, "got", len(targets), "want", len(s.channels))
		ok = false
	}
	if ok && !finiteAll(targets) {
		s.logger.Debug("mapper returned a non-finite target", "profile", s.profile.Name, "targets", targets)
		ok = false
	}

	for i, ch := range s.channels {
		spec := s.profile.Channels[i]
		if spec.Interpolated {
			if ok {
				ch.SetTargetAt(targets[i], now)
			}
			ch.Advance(now)
		} else if ok {
			ch.SetDirect(targets[i])
		}
	}

	s.ticks++
	if ok && s.link.IsOpen() {
		s.write(now)
	}
	s.publish(now, ok)
}

func (s *Session) write(now time.Time) {
	values := make([]int, len(s.channels))
	for i, ch := range s.channels {
		values[i] = ch.Rounded()
	}
	line := wire.Encode(values)

	queued := s.link.Write(line.Bytes())
	if queued {
		s.writes++
		s.lastLine = line.String()
	} else {
		s.dropped++
	}

	s.protoLog.Log(log.Event{
		Timestamp:    now,
		ConnectionID: s.link.ConnectionID(),
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryLine,
		Port:         s.link.Port(),
		Profile:      s.profile.Name,
		Line: &log.LineEvent{
			Values:  values,
			Size:    len(line),
			Dropped: !queued,
		},
	})
}

func (s *Session) drain(now time.Time) {
	for {
		select {
		case cmd := <-s.commands:
			s.apply(cmd, now)
		default:
			return
		}
	}
}

func (s *Session) apply(cmd Command, now time.Time) {
	event := log.Event{
		Timestamp: now,
		Direction: log.DirectionIn,
		Layer:     log.LayerSession,
		Category:  log.CategoryCommand,
		Profile:   s.profile.Name,
		Command: &log.CommandEvent{
			Name:     cmd.Kind.String(),
			Origin:   cmd.Origin,
			Argument: cmd.Port,
		},
	}

	switch cmd.Kind {
	case CmdConnect:
		s.protoLog.Log(event)
		s.connect(cmd.Port)

	case CmdDisconnect:
		s.protoLog.Log(event)
		if err := s.link.Close(); err != nil {
			s.logger.Warn("close failed", "error", err)
		}

	case CmdCycleUp, CmdCycleDown:
		s.protoLog.Log(event)
		n := s.profile.Selectable
		if n <= 0 {
			return
		}
		if cmd.Kind == CmdCycleUp {
			s.selection = (s.selection + 1) % n
		} else {
			s.selection = (s.selection - 1 + n) % n
		}
		s.logger.Debug("selection changed", "selection", s.selection)

	case CmdToggleOverlay:
		s.protoLog.Log(event)
		s.overlay = !s.overlay

	case CmdSetInput:
		s.setInput(cmd, now)

	default:
		s.logger.Warn("unknown command", "kind", cmd.Kind)
	}
}

func (s *Session) connect(port string) {
	if s.link.IsOpen() {
		return
	}
	if port == "" {
		port = link.GenericPortName
	}

	result := s.link.OpenAsync(s.ctx, port, s.link.Baud())
	go func() {
		if err := <-result; err != nil {
			s.logger.Warn("connect failed", "port", port, "error", err)
		}
	}()
}

func (s *Session) setInput(cmd Command, now time.Time) {
	src, ok := s.sources[cmd.Source]
	if !ok {
		s.logger.Debug("input for unknown source", "source", cmd.Source, "origin", cmd.Origin)
		return
	}
	r, ok := src.(signal.Receiver)
	if !ok {
		s.logger.Debug("source does not accept input", "source", cmd.Source)
		return
	}
	r.Receive(cmd.Sample)

	s.protoLog.Log(log.Event{
		Timestamp: now,
		Direction: log.DirectionIn,
		Layer:     log.LayerSession,
		Category:  log.CategorySample,
		Profile:   s.profile.Name,
		Sample: &log.SampleEvent{
			Source:     cmd.Source,
			Values:     cmd.Sample.Values,
			Confidence: cmd.Sample.Confidence,
		},
	})
}

// Accepts reports whether the named source takes external input.
func (s *Session) Accepts(source string) error {
	src, ok := s.sources[source]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if _, ok := src.(signal.Receiver); !ok {
		return fmt.Errorf("%w: %q", ErrReadOnly, source)
	}
	return nil
}

func (s *Session) publish(now time.Time, hasValue bool) {
	open := s.link.IsOpen()
	st := Status{
		Open:      open,
		Label:     LabelFor(open),
		Port:      s.link.Port(),
		Profile:   s.profile.Name,
		Channels:  make([]ChannelStatus, len(s.channels)),
		Selection: s.selection,
		Overlay:   s.overlay,
		HasValue:  hasValue,
		LastLine:  s.lastLine,
		Ticks:     s.ticks,
		Writes:    s.writes,
		Dropped:   s.dropped,
		UpdatedAt: now,
	}
	for i, ch := range s.channels {
		b := ch.Bounds()
		st.Channels[i] = ChannelStatus{
			Name:   s.profile.Channels[i].Name,
			Value:  ch.Rounded(),
			Target: ch.TargetRounded(),
			Moving: ch.Moving(),
			Min:    b.Min,
			Max:    b.Max,
		}
	}

	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()
}

func finiteAll(values []float64) bool {
	for _, v := range values {
		if !signal.Finite(v) {
			return false
		}
	}
	return true
}

var _ Link = (*link.Link)(nil)
