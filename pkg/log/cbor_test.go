package log

import (
	"bytes"
	"testing"
	"time"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	original := Event{
		Timestamp:    ts,
		ConnectionID: "abc12345-def6-7890-abcd-ef1234567890",
		Direction:    DirectionOut,
		Layer:        LayerWire,
		Category:     CategoryLine,
		Port:         "/dev/ttyACM0",
		Profile:      "servo-smooth",
		Line: &LineEvent{
			Values: []int{90, 45},
			Size:   6,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.ConnectionID != original.ConnectionID {
		t.Errorf("ConnectionID: got %q, want %q", decoded.ConnectionID, original.ConnectionID)
	}
	if decoded.Port != original.Port || decoded.Profile != original.Profile {
		t.Errorf("Port/Profile: got %q/%q", decoded.Port, decoded.Profile)
	}
	if decoded.Line == nil {
		t.Fatal("Line payload lost")
	}
	if len(decoded.Line.Values) != 2 || decoded.Line.Values[0] != 90 || decoded.Line.Values[1] != 45 {
		t.Errorf("Line.Values: got %v", decoded.Line.Values)
	}
	if decoded.Line.Size != 6 {
		t.Errorf("Line.Size: got %d, want 6", decoded.Line.Size)
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	events := []Event{
		{
			Category:    CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityLink, OldState: "CLOSED", NewState: "OPEN"},
		},
		{
			Category: CategoryCommand,
			Command:  &CommandEvent{Name: "connect", Origin: "console", Argument: "Arduino"},
		},
		{
			Category: CategorySample,
			Sample:   &SampleEvent{Source: "pose", Values: []float64{320.5, 11}, Confidence: 0.87},
		},
		{
			Category: CategoryError,
			Error:    &ErrorEventData{Layer: LayerLink, Message: "port busy", Reason: "busy", Context: "open"},
		},
	}

	for _, original := range events {
		t.Run(original.Category.String(), func(t *testing.T) {
			original.Timestamp = time.Now()
			data, err := EncodeEvent(original)
			if err != nil {
				t.Fatalf("EncodeEvent failed: %v", err)
			}
			decoded, err := DecodeEvent(data)
			if err != nil {
				t.Fatalf("DecodeEvent failed: %v", err)
			}

			switch original.Category {
			case CategoryState:
				if decoded.StateChange == nil || *decoded.StateChange != *original.StateChange {
					t.Errorf("StateChange: got %+v", decoded.StateChange)
				}
			case CategoryCommand:
				if decoded.Command == nil || *decoded.Command != *original.Command {
					t.Errorf("Command: got %+v", decoded.Command)
				}
			case CategorySample:
				if decoded.Sample == nil || decoded.Sample.Source != "pose" || decoded.Sample.Confidence != 0.87 {
					t.Errorf("Sample: got %+v", decoded.Sample)
				}
			case CategoryError:
				if decoded.Error == nil || *decoded.Error != *original.Error {
					t.Errorf("Error: got %+v", decoded.Error)
				}
			}
		})
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for i := 0; i < 3; i++ {
		if err := enc.Encode(Event{Timestamp: time.Now(), Line: &LineEvent{Values: []int{i}}}); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
	}

	dec := NewDecoder(&buf)
	for i := 0; i < 3; i++ {
		var e Event
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("Decode %d failed: %v", i, err)
		}
		if e.Line == nil || e.Line.Values[0] != i {
			t.Errorf("event %d: got %+v", i, e.Line)
		}
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerLink.String(), "LINK"},
		{LayerWire.String(), "WIRE"},
		{LayerSession.String(), "SESSION"},
		{Layer(9).String(), "UNKNOWN"},
		{CategoryLine.String(), "LINE"},
		{CategoryCommand.String(), "COMMAND"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{CategorySample.String(), "SAMPLE"},
		{Category(9).String(), "UNKNOWN"},
		{StateEntityLink.String(), "LINK"},
		{StateEntitySession.String(), "SESSION"},
		{StateEntityFeed.String(), "FEED"},
		{StateEntity(9).String(), "UNKNOWN"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
