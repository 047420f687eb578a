package api

import (
	"time"

	"github.com/servolink/servolink-go/pkg/signal"
)

// Response status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope of every API reply.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ConnectRequest selects a port. An empty port asks for the generic device.
type ConnectRequest struct {
	Port string `json:"port"`
}

// InputRequest is one sample for a named source.
type InputRequest struct {
	Values     []float64      `json:"values"`
	Points     []signal.Point `json:"points"`
	Confidence float64        `json:"confidence"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
}

// Sample converts the request into a sample stamped with now.
func (r InputRequest) Sample(now time.Time) signal.Sample {
	return signal.Sample{
		Values:     r.Values,
		Points:     r.Points,
		Confidence: r.Confidence,
		Width:      r.Width,
		Height:     r.Height,
		At:         now,
	}
}

// PortsResponse lists the ports the user has authorized.
type PortsResponse struct {
	Authorized []string `json:"authorized"`
	Current    string   `json:"current,omitempty"`
	Total      int      `json:"total"`
}

// SystemResponse describes the running bridge.
type SystemResponse struct {
	Version string   `json:"version"`
	Uptime  string   `json:"uptime"`
	Profile string   `json:"profile"`
	Sources []string `json:"sources"`
}
