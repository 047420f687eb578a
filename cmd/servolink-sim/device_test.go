package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/servolink/servolink-go/pkg/wire"
)

func TestDeviceApply(t *testing.T) {
	d := NewDevice(wire.DomainLED, 2)

	if got := d.Outputs(); got[0] != 0 || got[1] != 0 {
		t.Fatalf("initial outputs = %v", got)
	}

	if err := d.Apply("10,255\n"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := d.Outputs(); got[0] != 10 || got[1] != 255 {
		t.Errorf("outputs = %v, want [10 255]", got)
	}
}

func TestDeviceBadLineKeepsOutputs(t *testing.T) {
	d := NewDevice(wire.DomainServo, 2)
	_ = d.Apply("90,45\n")

	err := d.Apply("90,x\n")
	if !errors.Is(err, wire.ErrBadValue) {
		t.Errorf("err = %v, want ErrBadValue", err)
	}
	if got := d.Outputs(); got[0] != 90 || got[1] != 45 {
		t.Errorf("outputs changed to %v", got)
	}
	if d.Good != 1 || d.Bad != 1 {
		t.Errorf("good/bad = %d/%d", d.Good, d.Bad)
	}
}

func TestDeviceClampsAndCounts(t *testing.T) {
	d := NewDevice(wire.DomainServo, 2)

	_ = d.Apply("200,-5\n")
	if got := d.Outputs(); got[0] != 180 || got[1] != 0 {
		t.Errorf("outputs = %v, want [180 0]", got)
	}
	if d.Clamped != 2 {
		t.Errorf("Clamped = %d, want 2", d.Clamped)
	}

	_ = d.Apply("10\n")
	if got := d.Outputs(); got[0] != 10 || got[1] != 0 {
		t.Errorf("short line: outputs = %v, want [10 0]", got)
	}
	if d.Truncated != 1 {
		t.Errorf("Truncated = %d, want 1", d.Truncated)
	}
}

func TestDeviceRun(t *testing.T) {
	d := NewDevice(wire.DomainLED, 2)
	in := strings.NewReader("10,255\r\n\n128,64\npartial")

	var out bytes.Buffer
	if err := d.Run(in, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "led1=10 led2=255\n" +
		"! empty line: \"\"\n" +
		"led1=128 led2=64\n" +
		"! line not terminated: \"partial\"\n"
	if out.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", out.String(), want)
	}
	if d.Good != 2 || d.Bad != 2 {
		t.Errorf("good/bad = %d/%d, want 2/2", d.Good, d.Bad)
	}
	if !strings.HasPrefix(d.Summary(), "2 good, 2 bad") {
		t.Errorf("Summary = %q", d.Summary())
	}
}
