package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service constants for mDNS.
const (
	// ServiceType is the companion's DNS-SD service type.
	ServiceType = "_shutter-companion._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultInstanceName is advertised when none is configured.
	DefaultInstanceName = "Shutter Companion"
)

// TXT record keys.
const (
	TXTKeyVersion = "ver"  // Link protocol version (major.minor)
	TXTKeyName    = "name" // Companion name
)

// Timing constants.
const (
	// DefaultBrowseTimeout bounds a lookup for the companion.
	DefaultBrowseTimeout = 5 * time.Second

	// DefaultTTL is the DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// Discovery errors.
var (
	ErrNotFound            = errors.New("companion not found")
	ErrMissingRequired     = errors.New("missing required TXT record")
	ErrInstanceNameInvalid = errors.New("invalid instance name")
	ErrNoPort              = errors.New("port is required")
)

// CompanionInfo is what the companion advertises.
type CompanionInfo struct {
	// InstanceName is the DNS-SD instance label.
	InstanceName string

	// Name is the human-readable name in the TXT record. Defaults to
	// InstanceName.
	Name string

	// Version is the link protocol version. Defaults to version.Current.
	Version string

	// Port is the link listener port.
	Port uint16
}

// CompanionService is a companion found on the network.
type CompanionService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string
	Version      string
	Name         string
}

// Address returns a dialable host:port, preferring IPv4 addresses.
func (s *CompanionService) Address() (string, error) {
	port := strconv.Itoa(int(s.Port))
	var fallback string
	for _, a := range s.Addresses {
		ip := net.ParseIP(a)
		if ip == nil {
			continue
		}
		if ip.To4() != nil {
			return net.JoinHostPort(a, port), nil
		}
		if fallback == "" {
			fallback = a
		}
	}
	if fallback != "" {
		return net.JoinHostPort(fallback, port), nil
	}
	if s.Host != "" {
		return net.JoinHostPort(s.Host, port), nil
	}
	return "", ErrNotFound
}
