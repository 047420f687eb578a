package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Protocol constants.
const (
	// Delimiter separates channel values.
	Delimiter = ','

	// Terminator ends every line.
	Terminator = '\n'

	// MaxLineLength bounds Decode input. Longer lines are rejected.
	MaxLineLength = 1024
)

// Decode errors.
var (
	ErrEmptyLine     = errors.New("empty line")
	ErrLineTooLong   = errors.New("line too long")
	ErrNotTerminated = errors.New("line not terminated")
	ErrBadValue      = errors.New("bad value")
)

// Line is one encoded protocol line including its terminator.
type Line string

// Bytes returns the line as bytes for writing to the link.
func (l Line) Bytes() []byte {
	return []byte(l)
}

// String returns the line text.
func (l Line) String() string {
	return string(l)
}

// Encode joins values with Delimiter and appends Terminator.
// It is pure and total: any number of values, including zero, is accepted.
func Encode(values []int) Line {
	buf := make([]byte, 0, len(values)*4+1)
	for i, v := range values {
		if i > 0 {
			buf = append(buf, Delimiter)
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
	}
	buf = append(buf, Terminator)
	return Line(buf)
}

// Decode parses a line produced by Encode. A single trailing "\r\n" is
// tolerated for lines echoed back by serial monitors.
func Decode(line string) ([]int, error) {
	if len(line) > MaxLineLength {
		return nil, fmt.Errorf("%w: %d > %d", ErrLineTooLong, len(line), MaxLineLength)
	}
	if !strings.HasSuffix(line, string(Terminator)) {
		return nil, ErrNotTerminated
	}
	body := strings.TrimSuffix(line, string(Terminator))
	body = strings.TrimSuffix(body, "\r")
	if body == "" {
		return nil, ErrEmptyLine
	}

	fields := strings.Split(body, string(Delimiter))
	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: field %d %q", ErrBadValue, i, f)
		}
		values[i] = v
	}
	return values, nil
}
