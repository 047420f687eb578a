package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser registers a feed instance using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
	info   *FeedInfo
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{config: config}
}

// Advertise starts advertising the feed, replacing any previous
// registration. The registration is withdrawn when ctx is done.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *FeedInfo) error {
	if err := ValidateInstanceName(info.Instance); err != nil {
		return err
	}
	if info.Port == 0 {
		return fmt.Errorf("%w: port", ErrMissingRequired)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		info.Instance,
		ServiceType,
		Domain,
		int(info.Port),
		TXTRecordsToStrings(EncodeFeedTXT(info)),
		interfaces(a.config.Interface),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register feed service: %w", err)
	}

	a.server = server
	copied := *info
	copied.Channels = append([]string(nil), info.Channels...)
	a.info = &copied

	go func() {
		<-ctx.Done()
		a.stopServer(server)
	}()
	return nil
}

// Update replaces the TXT records of the running advertisement, for
// example after the profile changed.
func (a *MDNSAdvertiser) Update(info *FeedInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}
	a.server.SetText(TXTRecordsToStrings(EncodeFeedTXT(info)))
	a.info.Profile = info.Profile
	a.info.Channels = append([]string(nil), info.Channels...)
	a.info.Baud = info.Baud
	return nil
}

// Info returns the currently advertised feed, or nil.
func (a *MDNSAdvertiser) Info() *FeedInfo {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.info == nil {
		return nil
	}
	copied := *a.info
	return &copied
}

// Stop withdraws the advertisement. Safe to call when not advertising.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
		a.info = nil
	}
}

// stopServer shuts down server if it is still the active registration.
func (a *MDNSAdvertiser) stopServer(server *zeroconf.Server) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == server {
		a.server.Shutdown()
		a.server = nil
		a.info = nil
	}
}

// MDNSBrowser finds feed instances using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	return &MDNSBrowser{config: config}
}

// Browse searches for feeds until ctx is done.
// Services are aggregated by instance name: addresses seen on several
// interfaces are merged into one entry, which is emitted once.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *FeedService, error) {
	out := make(chan *FeedService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	var opts []zeroconf.ClientOption
	if ifaces := interfaces(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}

	go func() {
		defer close(out)

		gone := (<-chan *zeroconf.ServiceEntry)(removed)
		services := make(map[string]*FeedService)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToFeed(entry)
				if svc == nil {
					continue
				}
				if existing, found := services[svc.Instance]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.Instance] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-gone:
				if !ok {
					gone = nil
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, ipStrings(entry))
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// FindFirst returns the first feed seen, optionally restricted to a
// profile name.
func (b *MDNSBrowser) FindFirst(ctx context.Context, profile string) (*FeedService, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	for svc := range results {
		if profile == "" || svc.Profile == profile {
			return svc, nil
		}
	}
	return nil, ctx.Err()
}

func entryToFeed(entry *zeroconf.ServiceEntry) *FeedService {
	return newFeedService(entry.Instance, entry.HostName, entry.Port, entry.Text, ipStrings(entry))
}

// newFeedService builds a FeedService from the parts of a resolved
// entry. Returns nil if the TXT records are not a valid feed record.
func newFeedService(instance, host string, port int, text, addrs []string) *FeedService {
	info, err := DecodeFeedTXT(StringsToTXTRecords(text))
	if err != nil {
		return nil
	}
	if port <= 0 || port > 65535 {
		return nil
	}
	info.Instance = instance
	info.Port = uint16(port)
	return &FeedService{
		FeedInfo:  *info,
		Host:      host,
		Addresses: mergeAddresses(nil, addrs),
	}
}

func ipStrings(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// interfaces returns the named interface, or nil for all interfaces.
func interfaces(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range add {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops every address in gone from addresses.
func removeAddresses(addresses, gone []string) []string {
	toRemove := make(map[string]bool, len(gone))
	for _, addr := range gone {
		toRemove[addr] = true
	}
	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
