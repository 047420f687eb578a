// Package config loads the bridge configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/servolink/servolink-go/pkg/interp"
	"github.com/servolink/servolink-go/pkg/link"
	"github.com/servolink/servolink-go/pkg/profile"
	"gopkg.in/yaml.v3"
)

// Config is the complete bridge configuration.
type Config struct {
	Profile  string            `yaml:"profile"`
	Serial   SerialConfig      `yaml:"serial"`
	Loop     LoopConfig        `yaml:"loop"`
	Channels []ChannelOverride `yaml:"channels,omitempty"`
	Feed     FeedConfig        `yaml:"feed"`
	HTTP     HTTPConfig        `yaml:"http"`
	Log      LogConfig         `yaml:"log"`
}

// SerialConfig configures the serial link.
type SerialConfig struct {
	// Port is opened on explicit connect when set; otherwise the generic
	// device name is used and the picker resolves it.
	Port string `yaml:"port,omitempty"`

	Baud int `yaml:"baud"`

	// AuthorizedFile stores ports the user has granted. Empty keeps the
	// list in memory only.
	AuthorizedFile string `yaml:"authorized_file,omitempty"`

	// AutoConnect opens the first authorized port at startup.
	AutoConnect bool `yaml:"auto_connect"`
}

// LoopConfig configures the control loop.
type LoopConfig struct {
	FPS       int `yaml:"fps"`
	QueueSize int `yaml:"queue_size"`

	// Policy is the interpolation re-base policy: "current" or "target".
	// Empty keeps the profile's policy.
	Policy string `yaml:"policy,omitempty"`
}

// ChannelOverride adjusts one profile channel by name.
type ChannelOverride struct {
	Name         string         `yaml:"name"`
	Min          *float64       `yaml:"min,omitempty"`
	Max          *float64       `yaml:"max,omitempty"`
	Initial      *float64       `yaml:"initial,omitempty"`
	Duration     *time.Duration `yaml:"duration,omitempty"`
	Interpolated *bool          `yaml:"interpolated,omitempty"`
}

// FeedConfig configures the sample feed server.
type FeedConfig struct {
	// Listen is the TCP address; empty disables the feed.
	Listen string `yaml:"listen,omitempty"`

	// Advertise announces the feed over mDNS.
	Advertise bool `yaml:"advertise"`

	// Instance is the mDNS instance name.
	Instance string `yaml:"instance"`

	// MaxAge discards feed samples older than this; zero keeps them.
	MaxAge time.Duration `yaml:"max_age,omitempty"`
}

// HTTPConfig configures the HTTP control API.
type HTTPConfig struct {
	// Listen is the HTTP address; empty disables the API.
	Listen string `yaml:"listen,omitempty"`

	AllowOrigins []string `yaml:"allow_origins,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`

	// ProtocolFile captures protocol events; empty disables capture.
	ProtocolFile string `yaml:"protocol_file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Profile: "base",
		Serial: SerialConfig{
			Baud:        link.DefaultBaud,
			AutoConnect: true,
		},
		Loop: LoopConfig{
			FPS:       60,
			QueueSize: 64,
		},
		Feed: FeedConfig{
			Instance: "servolink",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Serial.Baud <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud must be positive, got %d", c.Serial.Baud))
	}
	if c.Loop.FPS <= 0 || c.Loop.FPS > 1000 {
		errs = append(errs, fmt.Errorf("loop.fps must be in 1..1000, got %d", c.Loop.FPS))
	}
	if c.Loop.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("loop.queue_size must not be negative"))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Loop.Policy != "" {
		if _, ok := interp.ParseRebasePolicy(c.Loop.Policy); !ok {
			errs = append(errs, fmt.Errorf("loop.policy must be %q or %q, got %q",
				interp.RebaseOnCurrent, interp.RebaseOnNewTarget, c.Loop.Policy))
		}
	}
	if c.Feed.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("feed.max_age must not be negative"))
	}
	if _, err := c.BuildProfile(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// BuildProfile looks up the configured profile and applies channel overrides.
func (c *Config) BuildProfile() (*profile.Profile, error) {
	base, err := profile.Lookup(c.Profile)
	if err != nil {
		return nil, err
	}
	p := base.Clone()

	if c.Loop.Policy != "" {
		if policy, ok := interp.ParseRebasePolicy(c.Loop.Policy); ok {
			p.Policy = policy
		}
	}

	for _, o := range c.Channels {
		idx := -1
		for i, spec := range p.Channels {
			if spec.Name == o.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, fmt.Errorf("channel %q not in profile %s", o.Name, p.Name)
		}

		spec := &p.Channels[idx]
		if o.Min != nil {
			spec.Bounds.Min = *o.Min
		}
		if o.Max != nil {
			spec.Bounds.Max = *o.Max
		}
		if o.Initial != nil {
			spec.Initial = *o.Initial
		}
		if o.Duration != nil {
			if *o.Duration < 0 {
				return nil, fmt.Errorf("channel %q: duration must not be negative", o.Name)
			}
			spec.Duration = *o.Duration
		}
		if o.Interpolated != nil {
			spec.Interpolated = *o.Interpolated
		}

		lo, hi := spec.Bounds.Effective()
		if lo < float64(spec.Domain.Min) || hi > float64(spec.Domain.Max) {
			return nil, fmt.Errorf("channel %q: bounds %v..%v outside %s range %d..%d",
				o.Name, spec.Bounds.Min, spec.Bounds.Max, spec.Domain.Name, spec.Domain.Min, spec.Domain.Max)
		}
	}

	return p, nil
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := ParseLevel(c.Log.Level)
	return level
}

// ParseLevel parses debug, info, warn or error.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
