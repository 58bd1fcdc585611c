package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/shutter-remote/shutter-go/pkg/version"
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: 120 seconds.
	TTL time.Duration
}

// MDNSAdvertiser advertises the companion using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	return &MDNSAdvertiser{config: config}
}

// Advertise starts advertising the companion, replacing any earlier
// advertisement.
func (a *MDNSAdvertiser) Advertise(info CompanionInfo) error {
	if info.InstanceName == "" {
		info.InstanceName = DefaultInstanceName
	}
	if err := ValidateInstanceName(info.InstanceName); err != nil {
		return err
	}
	if info.Port == 0 {
		return ErrNoPort
	}
	if info.Version == "" {
		info.Version = version.Current
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	server, err := zeroconf.Register(
		info.InstanceName,
		ServiceType,
		Domain,
		int(info.Port),
		TXTRecordsToStrings(EncodeCompanionTXT(&info)),
		selectInterfaces(a.config.Interface),
		zeroconf.TTL(uint32(a.config.TTL.Seconds())),
	)
	if err != nil {
		return fmt.Errorf("failed to register companion service: %w", err)
	}

	a.server = server
	return nil
}

// Stop stops advertising. It is safe to call when not advertising.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Timeout bounds FindFirst. Default: 5 seconds.
	Timeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Logger is the operational logger. Nil discards.
	Logger *slog.Logger
}

// MDNSBrowser looks for companions using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
	logger *slog.Logger
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	if config.Timeout <= 0 {
		config.Timeout = DefaultBrowseTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MDNSBrowser{config: config, logger: logger}
}

// Browse reports each companion instance once, with addresses merged across
// interfaces. The channel closes when ctx ends.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *CompanionService, error) {
	out := make(chan *CompanionService)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		services := make(map[string]*CompanionService)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc, err := entryToCompanion(entry)
				if err != nil {
					b.logger.Debug("ignoring companion entry", "instance", entry.Instance, "error", err)
					continue
				}
				if existing, found := services[svc.InstanceName]; found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
					continue
				}
				services[svc.InstanceName] = svc
				select {
				case out <- svc:
				case <-ctx.Done():
					return
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
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
		var opts []zeroconf.ClientOption
		if ifaces := selectInterfaces(b.config.Interface); ifaces != nil {
			opts = append(opts, zeroconf.SelectIfaces(ifaces))
		}
		if err := zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...); err != nil {
			b.logger.Warn("mDNS browse failed", "error", err)
		}
	}()

	return out, nil
}

// FindFirst returns the first compatible companion seen within the
// configured timeout.
func (b *MDNSBrowser) FindFirst(ctx context.Context) (*CompanionService, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	return firstCompatible(ctx, results, b.logger)
}

// firstCompatible drains results until a companion with a matching major
// version arrives.
func firstCompatible(ctx context.Context, results <-chan *CompanionService, logger *slog.Logger) (*CompanionService, error) {
	for {
		select {
		case svc, ok := <-results:
			if !ok {
				return nil, ErrNotFound
			}
			if _, err := version.CheckPeer(svc.Version); err != nil {
				logger.Warn("skipping companion", "instance", svc.InstanceName, "error", err)
				continue
			}
			return svc, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNotFound, ctx.Err())
		}
	}
}

func entryToCompanion(entry *zeroconf.ServiceEntry) (*CompanionService, error) {
	ver, name, err := DecodeCompanionTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil, err
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &CompanionService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		Version:      ver,
		Name:         name,
	}, nil
}

// selectInterfaces returns nil (all interfaces) unless a known interface is
// named.
func selectInterfaces(name string) []net.Interface {
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
func mergeAddresses(existing, added []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}
	for _, addr := range added {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops the entry's addresses from the list.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
