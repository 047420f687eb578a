// Package log provides structured protocol capture for servolink.
//
// This package defines the Logger interface and Event types for recording
// what the bridge does on the wire and why: every line written to the
// device, every link state transition, every session command and every
// signal sample received from the feed. It is separate from operational
// logging (slog); protocol capture is a machine-readable trace for replay
// and debugging.
//
// # Basic Usage
//
//	// Console during development
//	logger := log.NewSlogAdapter(slog.Default())
//
//	// Binary file for later analysis with servolink-log
//	logger, _ := log.NewFileLogger("bridge.llog", log.WithProfile("base"))
//
//	// Every event to the file, only lifecycle events to the console
//	logger := log.NewMultiLogger(
//	    fileLogger,
//	    log.OnlyCategories(log.NewSlogAdapter(slog.Default()),
//	        log.CategoryState, log.CategoryCommand, log.CategoryError),
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - Link: serial port state changes and transmit errors (StateChangeEvent)
//   - Wire: encoded protocol lines (LineEvent)
//   - Session: commands and feed samples (CommandEvent, SampleEvent)
//
// # File Format
//
// Log files use the .llog extension. The first record is a Header map whose
// key 0 holds HeaderMagic, followed by the format version, creation time,
// build, profile and baud rate of the session that started the capture. The
// rest of the file is a stream of CBOR-encoded events using integer keys
// from 1. Appending to an existing file keeps its header; a file that does
// not start with one is refused. Readers accept captures with no header and
// reject formats newer than FormatVersion. The servolink-log tool views,
// filters and exports them.
package log
