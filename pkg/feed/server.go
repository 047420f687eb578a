package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/servolink/servolink-go/pkg/log"
	"github.com/servolink/servolink-go/pkg/signal"
)

// DefaultPort is the feed's default TCP port.
const DefaultPort = 7400

// Sink receives decoded samples. An error is logged and the message dropped;
// the connection stays up.
type Sink func(source string, s signal.Sample) error

// ServerConfig configures a feed server.
type ServerConfig struct {
	// Address to listen on (e.g., ":7400" or "127.0.0.1:0").
	Address string

	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// Sink receives every decoded message. Required.
	Sink Sink

	// Logger is the optional logger for operational output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger records feed connection state changes (optional).
	ProtocolLogger log.Logger
}

// Server accepts feed connections.
type Server struct {
	config   ServerConfig
	listener net.Listener
	logger   *slog.Logger
	protoLog log.Logger

	conns   map[string]net.Conn
	connsMu sync.RWMutex

	running  atomic.Bool
	received atomic.Uint64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a feed server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Sink == nil {
		return nil, fmt.Errorf("sink is required")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Server{
		config:   config,
		logger:   logger,
		protoLog: log.OrNoop(config.ProtocolLogger),
		conns:    make(map[string]net.Conn),
	}, nil
}

// Start listens and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.listener = listener
	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	go func() {
		<-s.ctx.Done()
		s.Stop()
	}()

	s.logger.Info("feed listening", "addr", listener.Addr().String())
	return nil
}

// Stop closes the listener and all connections, then waits for handlers.
func (s *Server) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	s.cancel()
	s.listener.Close()

	s.connsMu.Lock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.connsMu.Unlock()

	s.wg.Wait()
	return nil
}

// Addr returns the listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// Port returns the bound TCP port, or 0 before Start.
func (s *Server) Port() int {
	if addr, ok := s.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Received returns the number of messages delivered to the sink.
func (s *Server) Received() uint64 {
	return s.received.Load()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() && !errors.Is(err, net.ErrClosed) {
				s.logger.Warn("feed accept failed", "error", err)
			}
			continue
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	connID := uuid.New().String()
	remote := conn.RemoteAddr().String()

	s.connsMu.Lock()
	if !s.running.Load() {
		s.connsMu.Unlock()
		conn.Close()
		return
	}
	s.conns[connID] = conn
	s.connsMu.Unlock()

	s.logState(connID, "", "CONNECTED", remote)
	s.logger.Debug("feed client connected", "conn_id", connID, "remote", remote)

	defer func() {
		s.connsMu.Lock()
		delete(s.conns, connID)
		s.connsMu.Unlock()
		conn.Close()
		s.logState(connID, "CONNECTED", "DISCONNECTED", remote)
		s.logger.Debug("feed client disconnected", "conn_id", connID)
	}()

	reader := NewFrameReader(conn)
	reader.SetMaxMessageSize(s.config.MaxMessageSize)

	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			if err != io.EOF && s.running.Load() && !errors.Is(err, net.ErrClosed) {
				s.logger.Debug("feed read failed", "conn_id", connID, "error", err)
			}
			return
		}

		msg, err := Decode(frame)
		if err != nil {
			s.logger.Debug("feed message dropped", "conn_id", connID, "error", err)
			continue
		}

		if err := s.config.Sink(msg.Source, msg.Sample(time.Now())); err != nil {
			s.logger.Debug("feed sink rejected message", "conn_id", connID, "source", msg.Source, "error", err)
			continue
		}
		s.received.Add(1)
	}
}

func (s *Server) logState(connID, oldState, newState, detail string) {
	s.protoLog.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Direction:    log.DirectionIn,
		Layer:        log.LayerSession,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityFeed,
			OldState: oldState,
			NewState: newState,
			Reason:   detail,
		},
	})
}
