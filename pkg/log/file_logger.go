package log

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// FileExtension is the conventional suffix for protocol log files.
const FileExtension = ".llog"

// FileOption describes the session in a new file's header.
type FileOption func(*Header)

// WithBuild records the bridge build.
func WithBuild(build string) FileOption {
	return func(h *Header) { h.Build = build }
}

// WithProfile records the active profile.
func WithProfile(name string) FileOption {
	return func(h *Header) { h.Profile = name }
}

// WithBaud records the serial line rate.
func WithBaud(baud int) FileOption {
	return func(h *Header) { h.Baud = baud }
}

// FromHeader copies the session description of another file, so derived
// captures keep their origin.
func FromHeader(src Header) FileOption {
	return func(h *Header) {
		h.Build = src.Build
		h.Profile = src.Profile
		h.Baud = src.Baud
	}
}

// FileLogger appends CBOR-encoded events to a .llog file.
// It is safe for concurrent use.
type FileLogger struct {
	file    *os.File
	encoder *cbor.Encoder
	header  Header
	mu      sync.Mutex
	closed  bool
	written int
}

// NewFileLogger opens path for appending, creating it with mode 0644 if
// needed. A new or empty file gets a Header built from opts. An existing
// file must already start with a valid header; its header is kept and opts
// are ignored.
func NewFileLogger(path string, opts ...FileOption) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	l := &FileLogger{file: f, encoder: NewEncoder(f)}
	if info.Size() > 0 {
		h, err := readHeader(NewDecoder(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("append to %s: %w", path, err)
		}
		l.header = h
		return l, nil
	}

	l.header = Header{Magic: HeaderMagic, Format: FormatVersion, Created: time.Now()}
	for _, opt := range opts {
		opt(&l.header)
	}
	if err := l.encoder.Encode(l.header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write log header: %w", err)
	}
	return l, nil
}

// Header returns the header of the file being written.
func (l *FileLogger) Header() Header {
	return l.header
}

// Log appends an event. Encoding errors are ignored; capture must never
// disturb the control loop.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err == nil {
		l.written++
	}
}

// Written returns the number of events encoded by this logger, not counting
// the header or events already in the file.
func (l *FileLogger) Written() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.written
}

// Close closes the file. Later Log calls are ignored. Safe to call twice.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.file.Close()
}

var _ Logger = (*FileLogger)(nil)
