package wire

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   string
	}{
		{"TwoChannels", []int{10, 255}, "10,255\n"},
		{"ServoCenter", []int{90, 90}, "90,90\n"},
		{"Single", []int{7}, "7\n"},
		{"Many", []int{0, 1, 2, 3, 180}, "0,1,2,3,180\n"},
		{"Empty", nil, "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.values)
			if got.String() != tt.want {
				t.Errorf("Encode(%v) = %q, want %q", tt.values, got, tt.want)
			}
			if string(got.Bytes()) != tt.want {
				t.Errorf("Bytes() = %q, want %q", got.Bytes(), tt.want)
			}
		})
	}
}

func TestEncodeRoundTripSplit(t *testing.T) {
	// Splitting on ',' after trimming '\n' yields the original integers.
	for _, d := range []Domain{DomainLED, DomainServo} {
		for a := d.Min; a <= d.Max; a += 17 {
			for b := d.Max; b >= d.Min; b -= 23 {
				line := Encode([]int{a, b}).String()
				if strings.ContainsAny(line, " \t\r") {
					t.Fatalf("line %q contains whitespace", line)
				}
				parts := strings.Split(strings.TrimSuffix(line, "\n"), ",")
				if len(parts) != 2 {
					t.Fatalf("line %q: got %d parts", line, len(parts))
				}
				ga, errA := strconv.Atoi(parts[0])
				gb, errB := strconv.Atoi(parts[1])
				if errA != nil || errB != nil || ga != a || gb != b {
					t.Errorf("line %q decoded to %v,%v, want %d,%d", line, parts[0], parts[1], a, b)
				}
			}
		}
	}
}

func TestDecode(t *testing.T) {
	got, err := Decode("10,255\n")
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	if len(got) != 2 || got[0] != 10 || got[1] != 255 {
		t.Errorf("Decode = %v, want [10 255]", got)
	}

	got, err = Decode("90,45\r\n")
	if err != nil {
		t.Fatalf("Decode CRLF error = %v", err)
	}
	if got[0] != 90 || got[1] != 45 {
		t.Errorf("Decode CRLF = %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"NoTerminator", "10,255", ErrNotTerminated},
		{"Empty", "\n", ErrEmptyLine},
		{"Garbage", "10,abc\n", ErrBadValue},
		{"EmptyField", "10,,20\n", ErrBadValue},
		{"Spaces", "10, 20\n", ErrBadValue},
		{"TooLong", strings.Repeat("1,", MaxLineLength) + "\n", ErrLineTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.line)
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.line, err, tt.want)
			}
		})
	}
}

func TestDomain(t *testing.T) {
	if !DomainServo.Contains(180) || DomainServo.Contains(181) || DomainServo.Contains(-1) {
		t.Error("DomainServo.Contains boundaries wrong")
	}
	if DomainLED.Clamp(300) != 255 || DomainLED.Clamp(-4) != 0 || DomainLED.Clamp(12) != 12 {
		t.Error("DomainLED.Clamp wrong")
	}

	vals := DomainServo.ClampAll([]int{-10, 90, 200})
	if vals[0] != 0 || vals[1] != 90 || vals[2] != 180 {
		t.Errorf("ClampAll = %v", vals)
	}

	if d, ok := DomainByName("led"); !ok || d != DomainLED {
		t.Errorf("DomainByName(led) = %v, %v", d, ok)
	}
	if _, ok := DomainByName("dmx"); ok {
		t.Error("DomainByName(dmx) should fail")
	}
}
