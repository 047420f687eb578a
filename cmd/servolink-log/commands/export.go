package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/servolink/servolink-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	case "lines":
		return exportLines(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv, lines)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "connection_id", "direction", "layer", "category", "port", "type", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		row := []string{
			event.Timestamp.UTC().Format(timeFormat),
			event.ConnectionID,
			event.Direction.String(),
			event.Layer.String(),
			event.Category.String(),
			event.Port,
			strings.ToLower(eventType(event)),
			eventDetail(event),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// exportLines replays the protocol lines that reached the device, one per
// output line, in the device's own format.
func exportLines(reader *log.Reader, w io.Writer) error {
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if event.Line == nil || event.Line.Dropped {
			continue
		}
		if _, err := fmt.Fprintln(w, joinInts(event.Line.Values)); err != nil {
			return err
		}
	}
	return nil
}

// eventDetail is a one-field summary of the payload.
func eventDetail(event log.Event) string {
	switch {
	case event.Line != nil:
		if event.Line.Dropped {
			return joinInts(event.Line.Values) + " dropped"
		}
		return joinInts(event.Line.Values)
	case event.StateChange != nil:
		d := event.StateChange.OldState + "->" + event.StateChange.NewState
		if event.StateChange.Reason != "" {
			d += " (" + event.StateChange.Reason + ")"
		}
		return d
	case event.Command != nil:
		return strings.TrimSpace(event.Command.Name + " " + event.Command.Argument)
	case event.Sample != nil:
		return event.Sample.Source + " " + joinFloats(event.Sample.Values)
	case event.Error != nil:
		return event.Error.Message
	}
	return ""
}
