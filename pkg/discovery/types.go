package discovery

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"
)

// Service types.
const (
	// ServiceType is the DNS-SD service type of a signal feed.
	ServiceType = "_servolink._tcp"

	// Domain is the mDNS domain.
	Domain = "local."
)

// TXT record keys.
const (
	TXTKeyVersion  = "ver"
	TXTKeyProfile  = "profile"
	TXTKeyChannels = "channels"
	TXTKeyBaud     = "baud"
)

// MaxInstanceNameLen is the DNS label limit for instance names.
const MaxInstanceNameLen = 63

// DefaultTTL is the record TTL used when none is configured.
const DefaultTTL = 120 * time.Second

// Errors.
var (
	ErrInstanceNameTooLong = errors.New("instance name too long")
	ErrEmptyInstanceName   = errors.New("empty instance name")
	ErrMissingRequired     = errors.New("missing required TXT field")
	ErrInvalidTXTRecord    = errors.New("invalid TXT record")
	ErrNotAdvertising      = errors.New("feed is not advertised")
	ErrIncompatible        = errors.New("incompatible feed version")
)

// FeedInfo describes an advertised signal feed.
type FeedInfo struct {
	// Instance is the user-visible instance name.
	Instance string

	// Port is the TCP port of the feed listener.
	Port uint16

	// Profile is the active profile name.
	Profile string

	// Channels lists channel names in wire order.
	Channels []string

	// Baud is the serial baud rate of the device link.
	Baud int

	// Version is the feed protocol version, "major.minor". Empty means the
	// current version when encoding.
	Version string
}

// FeedService is a feed found while browsing.
type FeedService struct {
	FeedInfo

	// Host is the advertised host name.
	Host string

	// Addresses holds every address the instance was seen on.
	Addresses []string
}

// Addr returns a dialable host:port for the feed. An IPv4 address is
// preferred, then the host name, then any other address.
func (s *FeedService) Addr() string {
	host := strings.TrimSuffix(s.Host, ".")
	for _, a := range s.Addresses {
		if ip := net.ParseIP(a); ip != nil && ip.To4() != nil {
			host = a
			break
		}
	}
	if host == "" && len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: DefaultTTL}
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}
