// Package commands implements the servolink-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/servolink/servolink-go/pkg/log"
)

// timeFormat is used for every timestamp the tool prints.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format(timeFormat)
	connID := shortenConnID(event.ConnectionID)
	if connID == "" {
		connID = "-"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, event.Direction, event.Layer, eventType(event))
	if event.Port != "" {
		fmt.Fprintf(w, "  Port: %s\n", event.Port)
	}

	switch {
	case event.Line != nil:
		formatLineDetails(w, event.Line)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Command != nil:
		formatCommandDetails(w, event.Command)
	case event.Sample != nil:
		formatSampleDetails(w, event.Sample)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// formatHeader prints where and how a capture was recorded.
func formatHeader(w io.Writer, h log.Header) {
	fmt.Fprintf(w, "Capture:  format %d, started %s\n", h.Format, h.Created.UTC().Format(timeFormat))
	if h.Build != "" {
		fmt.Fprintf(w, "Build:    %s\n", h.Build)
	}
	if h.Profile != "" {
		fmt.Fprintf(w, "Profile:  %s\n", h.Profile)
	}
	if h.Baud > 0 {
		fmt.Fprintf(w, "Baud:     %d\n", h.Baud)
	}
}

// eventType returns the label of the event's payload.
func eventType(event log.Event) string {
	switch {
	case event.Line != nil:
		return "Line"
	case event.StateChange != nil:
		return "State"
	case event.Command != nil:
		return "Command"
	case event.Sample != nil:
		return "Sample"
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatLineDetails(w io.Writer, line *log.LineEvent) {
	fmt.Fprintf(w, "  Values: %s (%d bytes)", joinInts(line.Values), line.Size)
	if line.Dropped {
		fmt.Fprint(w, " DROPPED")
	}
	fmt.Fprintln(w)
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity)
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatCommandDetails(w io.Writer, cmd *log.CommandEvent) {
	fmt.Fprintf(w, "  Command: %s", cmd.Name)
	if cmd.Argument != "" {
		fmt.Fprintf(w, " %s", cmd.Argument)
	}
	fmt.Fprintln(w)
	if cmd.Origin != "" {
		fmt.Fprintf(w, "  Origin: %s\n", cmd.Origin)
	}
}

func formatSampleDetails(w io.Writer, s *log.SampleEvent) {
	fmt.Fprintf(w, "  Source: %s\n", s.Source)
	if len(s.Values) > 0 {
		fmt.Fprintf(w, "  Values: %s\n", joinFloats(s.Values))
	}
	if s.Confidence != 0 {
		fmt.Fprintf(w, "  Confidence: %.2f\n", s.Confidence)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", err.Reason)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func joinFloats(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "link":
		return log.LayerLink, nil
	case "wire":
		return log.LayerWire, nil
	case "session":
		return log.LayerSession, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be link, wire, or session)", s)
	}
}

// ParseDirectionFlag parses a direction string from command-line flag (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "line":
		return log.CategoryLine, nil
	case "command":
		return log.CategoryCommand, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	case "sample":
		return log.CategorySample, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be line, command, state, error, or sample)", s)
	}
}

// RunView prints every event matching filter.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	if h, ok := reader.Header(); ok {
		formatHeader(output, h)
		fmt.Fprintln(output)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
