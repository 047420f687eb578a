package profile

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/servolink/servolink-go/pkg/interp"
	"github.com/servolink/servolink-go/pkg/signal"
	"github.com/servolink/servolink-go/pkg/wire"
)

// Profile errors.
var (
	ErrUnknownProfile = errors.New("unknown profile")
	ErrNoChannels     = errors.New("profile has no channels")
)

// ChannelSpec describes one output channel.
type ChannelSpec struct {
	Name    string
	Domain  wire.Domain
	Bounds  interp.Bounds
	Initial float64

	// Interpolated channels glide to their target over Duration; others
	// take the mapped value directly.
	Interpolated bool
	Duration     time.Duration
}

// Inputs is everything a Mapper may look at for one tick.
type Inputs struct {
	Now time.Time

	// Samples holds only the sources that produced a value this tick.
	Samples map[string]signal.Sample

	// Selection is the index chosen with the cycle commands.
	Selection int

	// Bounds are the effective channel bounds, in channel order.
	Bounds []interp.Bounds
}

// Mapper computes one target per channel, or reports no value for this tick.
// Mappers must be pure.
type Mapper func(in Inputs) ([]float64, bool)

// Profile is a named deployment.
type Profile struct {
	Name        string
	Description string
	Channels    []ChannelSpec

	// Sources builds fresh sources for a session starting at start.
	Sources func(start time.Time) map[string]signal.Source

	Mapper Mapper

	// Selectable is the number of items the cycle commands step through.
	// Zero disables selection.
	Selectable int

	// Policy is the re-base policy for interpolated channels.
	Policy interp.RebasePolicy
}

// Validate checks that the profile is usable.
func (p *Profile) Validate() error {
	if len(p.Channels) == 0 {
		return fmt.Errorf("%s: %w", p.Name, ErrNoChannels)
	}
	if p.Mapper == nil {
		return fmt.Errorf("%s: mapper is required", p.Name)
	}
	if p.Sources == nil {
		return fmt.Errorf("%s: sources are required", p.Name)
	}
	return nil
}

// Clone returns a copy whose channel specs may be modified independently.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Channels = slices.Clone(p.Channels)
	return &c
}

var registry = map[string]func() *Profile{}

func register(name string, fn func() *Profile) {
	registry[name] = fn
}

// Lookup returns a new instance of the named profile.
func Lookup(name string) (*Profile, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
	return fn(), nil
}

// Names returns the registered profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
