package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/servolink/servolink-go/pkg/feed"
	"github.com/servolink/servolink-go/pkg/signal"
)

var (
	// ErrNoNumbers is returned for JSON lines with neither values nor points.
	ErrNoNumbers = errors.New("line carries no values or points")

	// ErrNotFinite is returned for lines containing NaN or an infinity.
	ErrNotFinite = errors.New("line carries a non-finite number")
)

// jsonLine is the JSON form of an input line.
type jsonLine struct {
	Source     string         `json:"source"`
	Values     []float64      `json:"values"`
	Points     []signal.Point `json:"points"`
	Confidence float64        `json:"confidence"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
}

// ParseLine turns one input line into a feed message. Blank lines and lines
// starting with '#' report ok=false. Plain lines are numbers separated by
// commas or whitespace and go to source.
func ParseLine(line, source string) (m feed.Message, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return feed.Message{}, false, nil
	}

	if strings.HasPrefix(line, "{") {
		var jl jsonLine
		if err := json.Unmarshal([]byte(line), &jl); err != nil {
			return feed.Message{}, false, fmt.Errorf("invalid JSON: %w", err)
		}
		if len(jl.Values) == 0 && len(jl.Points) == 0 {
			return feed.Message{}, false, ErrNoNumbers
		}
		if jl.Source == "" {
			jl.Source = source
		}
		m = feed.Message{
			Source:     jl.Source,
			Values:     jl.Values,
			Confidence: jl.Confidence,
			Keypoints:  jl.Points,
			Width:      jl.Width,
			Height:     jl.Height,
		}
	} else {
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return feed.Message{}, false, fmt.Errorf("field %d: %q is not a number", i, f)
			}
			values[i] = v
		}
		m = feed.Message{Source: source, Values: values}
	}

	if !m.Sample(time.Time{}).Finite() {
		return feed.Message{}, false, ErrNotFinite
	}
	return m, true, nil
}
