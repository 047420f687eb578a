package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/servolink/servolink-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	// Header is nil for captures written before files carried one.
	Header *log.Header

	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Connections      map[string]*ConnectionStats
	Commands         map[string]int
	ErrorsByReason   map[string]int
	LinesSent        int
	LinesDropped     int
	Samples          int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for one open period of the link.
type ConnectionStats struct {
	Port      string
	FirstSeen time.Time
	LastSeen  time.Time
	Lines     int

	// Min and Max hold the observed range per channel position.
	Min []int
	Max []int
}

// Collect reads the log file and aggregates statistics.
func Collect(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Connections:      make(map[string]*ConnectionStats),
		Commands:         make(map[string]int),
		ErrorsByReason:   make(map[string]int),
	}
	if h, ok := reader.Header(); ok {
		stats.Header = &h
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}
	return stats, nil
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++

	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	switch {
	case event.Line != nil:
		if event.Line.Dropped {
			s.LinesDropped++
			return
		}
		s.LinesSent++
		if event.ConnectionID != "" {
			s.connection(event).addLine(event.Line.Values)
		}
	case event.Command != nil:
		s.Commands[event.Command.Name]++
	case event.Sample != nil:
		s.Samples++
	case event.Error != nil:
		reason := event.Error.Reason
		if reason == "" {
			reason = "other"
		}
		s.ErrorsByReason[reason]++
	}

	if event.ConnectionID != "" && event.Layer == log.LayerLink {
		s.connection(event)
	}
}

func (s *Stats) connection(event log.Event) *ConnectionStats {
	conn, ok := s.Connections[event.ConnectionID]
	if !ok {
		conn = &ConnectionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp}
		s.Connections[event.ConnectionID] = conn
	}
	if event.Timestamp.After(conn.LastSeen) {
		conn.LastSeen = event.Timestamp
	}
	if conn.Port == "" {
		conn.Port = event.Port
	}
	return conn
}

func (c *ConnectionStats) addLine(values []int) {
	c.Lines++
	for i, v := range values {
		if i >= len(c.Min) {
			c.Min = append(c.Min, v)
			c.Max = append(c.Max, v)
			continue
		}
		c.Min[i] = min(c.Min[i], v)
		c.Max[i] = max(c.Max[i], v)
	}
}

// Errors returns the total number of error events.
func (s *Stats) Errors() int {
	n := 0
	for _, c := range s.ErrorsByReason {
		n += c
	}
	return n
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := Collect(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== servolink Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.Header != nil {
		formatHeader(w, *stats.Header)
		fmt.Fprintln(w)
	}

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerLink, log.LayerWire, log.LayerSession} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryLine, log.CategoryCommand, log.CategoryState, log.CategoryError, log.CategorySample} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Lines: %d sent, %d dropped\n", stats.LinesSent, stats.LinesDropped)
	if stats.Samples > 0 {
		fmt.Fprintf(w, "Samples: %d\n", stats.Samples)
	}

	if len(stats.Commands) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Commands:")
		for _, name := range sortedKeys(stats.Commands) {
			fmt.Fprintf(w, "  %-16s %d\n", name+":", stats.Commands[name])
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %s: %d lines, duration %s\n", shortenConnID(c.id), c.stats.Port, c.stats.Lines, duration)
			for i := range c.stats.Min {
				fmt.Fprintf(w, "           channel %d: %d..%d\n", i, c.stats.Min[i], c.stats.Max[i])
			}
		}
	}

	if n := stats.Errors(); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", n)
		for _, reason := range sortedKeys(stats.ErrorsByReason) {
			fmt.Fprintf(w, "  %-12s %d\n", reason+":", stats.ErrorsByReason[reason])
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
