package link

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/servolink/servolink-go/pkg/log"
)

const (
	// DefaultBaud is the device's fixed line rate.
	DefaultBaud = 57600

	// GenericPortName asks the picker for any attached board.
	GenericPortName = "Arduino"

	// DefaultQueueSize is the number of writes buffered for the writer goroutine.
	DefaultQueueSize = 64
)

// State represents the link state.
type State uint8

const (
	// StateClosed indicates no port is held.
	StateClosed State = iota

	// StateOpening indicates a pick or open is in flight.
	StateOpening

	// StateOpen indicates the port is held and writable.
	StateOpen
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpening:
		return "OPENING"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// Option configures a Link.
type Option func(*Link)

// WithPicker sets the picker consulted for unauthorized port names.
func WithPicker(p Picker) Option {
	return func(l *Link) { l.picker = p }
}

// WithStore sets the authorized-port store.
func WithStore(s AuthorizedStore) Option {
	return func(l *Link) { l.store = s }
}

// WithLogger sets the protocol logger.
func WithLogger(logger log.Logger) Option {
	return func(l *Link) { l.logger = log.OrNoop(logger) }
}

// WithBaud sets the baud rate used by AutoConnect and Connect.
func WithBaud(baud int) Option {
	return func(l *Link) {
		if baud > 0 {
			l.baud = baud
		}
	}
}

// WithQueueSize sets the write queue capacity.
func WithQueueSize(n int) Option {
	return func(l *Link) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// Link manages exclusive access to one serial port.
type Link struct {
	mu sync.RWMutex

	state  State
	port   Port
	portID string
	connID string

	// Writer goroutine plumbing for the current open period. exited is
	// closed when that period's writer returns.
	queue  chan []byte
	done   chan struct{}
	exited chan struct{}

	// cancelOpen aborts an open in flight; closeRequested records a Close
	// that arrived while opening.
	cancelOpen     context.CancelFunc
	closeRequested bool

	opener    Opener
	picker    Picker
	store     AuthorizedStore
	logger    log.Logger
	baud      int
	queueSize int

	onStateChange func(oldState, newState State, err error)
}

// New creates a closed link that opens ports with opener.
func New(opener Opener, opts ...Option) *Link {
	l := &Link{
		state:     StateClosed,
		opener:    opener,
		store:     NewMemoryStore(),
		logger:    log.NoopLogger{},
		baud:      DefaultBaud,
		queueSize: DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnStateChange registers a callback for state transitions. err is set when
// the transition was caused by a failure.
func (l *Link) OnStateChange(fn func(oldState, newState State, err error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onStateChange = fn
}

// State returns the current state.
func (l *Link) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// IsOpen returns true only when the port is held.
func (l *Link) IsOpen() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state == StateOpen
}

// Port returns the open port identifier, or "" when none.
func (l *Link) Port() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.portID
}

// ConnectionID returns the identifier of the current open period.
func (l *Link) ConnectionID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.connID
}

// Baud returns the configured baud rate.
func (l *Link) Baud() int {
	return l.baud
}

// ListAuthorizedPorts returns previously granted ports in insertion order.
func (l *Link) ListAuthorizedPorts() []string {
	ports := l.store.List()
	if ports == nil {
		return []string{}
	}
	return ports
}

// Open acquires portID at baud. Unauthorized names go through the picker.
// On failure the link stays closed and a *ConnectionError is returned.
func (l *Link) Open(ctx context.Context, portID string, baud int) error {
	ctx, cancel, err := l.begin(ctx, portID)
	if err != nil {
		return err
	}
	return l.finish(ctx, cancel, portID, baud)
}

// begin moves the link to StateOpening. From here on a Close cancels the open.
func (l *Link) begin(ctx context.Context, portID string) (context.Context, context.CancelFunc, error) {
	l.mu.Lock()
	switch l.state {
	case StateOpen:
		l.mu.Unlock()
		return nil, nil, ErrAlreadyOpen
	case StateOpening:
		l.mu.Unlock()
		return nil, nil, ErrOpenInFlight
	}
	ctx, cancel := context.WithCancel(ctx)
	l.state = StateOpening
	l.cancelOpen = cancel
	l.closeRequested = false
	l.mu.Unlock()
	l.transition(StateClosed, StateOpening, portID, "", nil)
	return ctx, cancel, nil
}

// finish acquires the port and completes the open started by begin.
func (l *Link) finish(ctx context.Context, cancel context.CancelFunc, portID string, baud int) error {
	defer cancel()

	p, name, err := l.acquire(ctx, portID, baud)

	l.mu.Lock()
	l.cancelOpen = nil
	if err == nil && l.closeRequested {
		_ = p.Close()
		err = &ConnectionError{Op: "open", Port: name, Reason: ReasonCancelled, Err: ErrClosedWhileOpening}
	}
	if err != nil {
		l.state = StateClosed
		l.closeRequested = false
		l.mu.Unlock()
		l.transition(StateOpening, StateClosed, portID, "", err)
		return err
	}

	l.state = StateOpen
	l.port = p
	l.portID = name
	connID := uuid.New().String()
	l.connID = connID
	l.queue = make(chan []byte, l.queueSize)
	l.done = make(chan struct{})
	l.exited = make(chan struct{})
	go l.writer(p, l.connID, l.queue, l.done, l.exited)
	l.mu.Unlock()

	if err := l.store.Authorize(name); err != nil {
		l.logError("authorize", name, err, "")
	}

	l.transition(StateOpening, StateOpen, name, connID, nil)
	return nil
}

// acquire resolves and opens the port without touching link state.
func (l *Link) acquire(ctx context.Context, portID string, baud int) (Port, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", &ConnectionError{Op: "open", Port: portID, Reason: ReasonCancelled, Err: err}
	}

	name := portID
	if !slices.Contains(l.store.List(), portID) {
		if l.picker == nil {
			return nil, "", &ConnectionError{Op: "pick", Port: portID, Reason: ReasonUnavailable, Err: ErrNoPicker}
		}
		picked, err := l.picker.Pick(ctx, portID)
		if err != nil {
			return nil, "", &ConnectionError{Op: "pick", Port: portID, Reason: classify(err), Err: err}
		}
		name = picked
	}

	p, err := l.opener.Open(name, baud)
	if err != nil {
		return nil, "", &ConnectionError{Op: "open", Port: name, Reason: classify(err), Err: err}
	}

	if err := ctx.Err(); err != nil {
		_ = p.Close()
		return nil, "", &ConnectionError{Op: "open", Port: name, Reason: ReasonCancelled, Err: err}
	}
	return p, name, nil
}

// OpenAsync runs Open in the background. The link is StateOpening when it
// returns, so a following Close cancels the attempt. The channel receives the
// result and is then closed. Callers observe success by polling IsOpen.
func (l *Link) OpenAsync(ctx context.Context, portID string, baud int) <-chan error {
	ch := make(chan error, 1)
	ctx, cancel, err := l.begin(ctx, portID)
	if err != nil {
		ch <- err
		close(ch)
		return ch
	}
	go func() {
		ch <- l.finish(ctx, cancel, portID, baud)
		close(ch)
	}()
	return ch
}

// AutoConnect applies the startup policy: open the first authorized port,
// or stay closed when there is none.
func (l *Link) AutoConnect(ctx context.Context) error {
	ports := l.ListAuthorizedPorts()
	if len(ports) == 0 {
		return nil
	}
	return l.Open(ctx, ports[0], l.baud)
}

// Connect opens portID, or the generic name when empty, at the configured baud.
func (l *Link) Connect(ctx context.Context, portID string) error {
	if portID == "" {
		portID = GenericPortName
	}
	return l.Open(ctx, portID, l.baud)
}

// Close releases the port. Closing a closed link is a no-op. Closing while
// an open is in flight cancels it; the link then stays closed.
func (l *Link) Close() error {
	l.mu.Lock()
	if l.state == StateOpening {
		l.closeRequested = true
		cancel := l.cancelOpen
		l.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return nil
	}
	l.mu.Unlock()

	exited, err := l.shutdown("", nil)
	if exited != nil {
		<-exited
	}
	return err
}

// Write queues p for transmission. It returns false when the link is not
// open or the queue is full; the bytes are then dropped.
func (l *Link) Write(p []byte) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.state != StateOpen {
		return false
	}

	buf := make([]byte, len(p))
	copy(buf, p)

	select {
	case l.queue <- buf:
		return true
	default:
		return false
	}
}

// writer transmits queued writes until done is closed or a write fails.
func (l *Link) writer(p Port, connID string, queue <-chan []byte, done <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	for {
		select {
		case <-done:
			return
		case buf := <-queue:
			if _, err := p.Write(buf); err != nil {
				cerr := &ConnectionError{Op: "write", Port: l.Port(), Reason: ReasonVanished, Err: err}
				l.shutdown(connID, cerr)
				return
			}
		}
	}
}

// shutdown closes the port if open. A non-empty connID restricts the close to
// that open period. When a close happened it returns the channel that is
// closed once that period's writer has exited.
func (l *Link) shutdown(connID string, cause error) (<-chan struct{}, error) {
	l.mu.Lock()
	if l.state != StateOpen || (connID != "" && connID != l.connID) {
		l.mu.Unlock()
		return nil, nil
	}

	p := l.port
	name := l.portID
	id := l.connID
	exited := l.exited
	close(l.done)
	l.state = StateClosed
	l.port = nil
	l.portID = ""
	l.connID = ""
	l.mu.Unlock()

	err := p.Close()
	l.transition(StateOpen, StateClosed, name, id, cause)
	return exited, err
}

func (l *Link) transition(oldState, newState State, port, connID string, err error) {
	event := log.Event{
		Timestamp:    time.Now(),
		ConnectionID: connID,
		Layer:        log.LayerLink,
		Category:     log.CategoryState,
		Port:         port,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityLink,
			OldState: oldState.String(),
			NewState: newState.String(),
		},
	}
	if err != nil {
		event.StateChange.Reason = reasonOf(err)
	}
	l.logger.Log(event)

	if err != nil {
		l.logError("state", port, err, reasonOf(err))
	}

	l.mu.RLock()
	fn := l.onStateChange
	l.mu.RUnlock()
	if fn != nil {
		fn(oldState, newState, err)
	}
}

func (l *Link) logError(op, port string, err error, reason string) {
	l.logger.Log(log.Event{
		Timestamp: time.Now(),
		Layer:     log.LayerLink,
		Category:  log.CategoryError,
		Port:      port,
		Error: &log.ErrorEventData{
			Layer:   log.LayerLink,
			Message: err.Error(),
			Reason:  reason,
			Context: op,
		},
	})
}

func reasonOf(err error) string {
	var ce *ConnectionError
	if errors.As(err, &ce) {
		return ce.Reason.String()
	}
	return ""
}
