// Package version provides link protocol version parsing and compatibility
// checks, plus the build version of the binaries.
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Current is the link protocol version implemented by this module.
const Current = "1.0"

// Build is the binary version. Release builds set it with
// -ldflags "-X github.com/shutter-remote/shutter-go/pkg/version.Build=v1.2.3".
var Build = "dev"

// ErrIncompatible is returned when a peer speaks a different major version.
var ErrIncompatible = errors.New("incompatible protocol version")

// ProtocolVersion represents a parsed "major.minor" protocol version.
type ProtocolVersion struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (ProtocolVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return ProtocolVersion{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return ProtocolVersion{Major: uint16(major), Minor: uint16(minor)}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ProtocolVersion {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor".
func (v ProtocolVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compatible returns true if the other version has the same major version.
func (v ProtocolVersion) Compatible(other ProtocolVersion) bool {
	return v.Major == other.Major
}

// CheckPeer parses a peer's advertised version and checks it against Current.
func CheckPeer(advertised string) (ProtocolVersion, error) {
	peer, err := Parse(advertised)
	if err != nil {
		return ProtocolVersion{}, err
	}
	if !MustParse(Current).Compatible(peer) {
		return peer, fmt.Errorf("%w: peer %s, local %s", ErrIncompatible, peer, Current)
	}
	return peer, nil
}
