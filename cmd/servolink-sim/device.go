package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/servolink/servolink-go/pkg/wire"
)

// Device decodes protocol lines the way the receiving sketch does: values
// are parsed in order, constrained to the domain and latched until the
// next good line. Bad lines leave the outputs unchanged.
type Device struct {
	domain   wire.Domain
	channels int
	outputs  []int

	Good      int
	Bad       int
	Clamped   int
	Truncated int
}

// NewDevice creates a device with n output channels, all at the domain
// minimum.
func NewDevice(domain wire.Domain, n int) *Device {
	if n < 1 {
		n = 1
	}
	outputs := make([]int, n)
	for i := range outputs {
		outputs[i] = domain.Min
	}
	return &Device{domain: domain, channels: n, outputs: outputs}
}

// Outputs returns the latched channel values.
func (d *Device) Outputs() []int {
	return append([]int(nil), d.outputs...)
}

// Apply handles one line including its terminator.
func (d *Device) Apply(line string) error {
	values, err := wire.Decode(line)
	if err != nil {
		d.Bad++
		return err
	}
	d.Good++

	if len(values) != d.channels {
		d.Truncated++
	}
	for i := 0; i < d.channels && i < len(values); i++ {
		v := d.domain.Clamp(values[i])
		if v != values[i] {
			d.Clamped++
		}
		d.outputs[i] = v
	}
	return nil
}

// Run applies every line read from r and prints the outputs after each one.
// A final unterminated fragment is counted as bad.
func (d *Device) Run(r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if applyErr := d.Apply(line); applyErr != nil {
				fmt.Fprintf(w, "! %v: %q\n", applyErr, strings.TrimRight(line, "\r\n"))
			} else {
				fmt.Fprintln(w, d.format())
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (d *Device) format() string {
	var b strings.Builder
	for i, v := range d.outputs {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s%d=%d", d.domain.Name, i+1, v)
	}
	return b.String()
}

// Summary reports the line counters.
func (d *Device) Summary() string {
	return fmt.Sprintf("%d good, %d bad, %d clamped values, %d lines with wrong value count",
		d.Good, d.Bad, d.Clamped, d.Truncated)
}
