// Package discovery finds the companion on the local network with mDNS/DNS-SD.
//
// # Companion Service (_shutter-companion._tcp)
//
// The companion advertises one instance while it accepts device links.
// Instance name: user-configurable, at most 63 bytes.
// TXT records:
//   - ver: link protocol version ("major.minor")
//   - name: human-readable companion name
//
// The device browses for the service and links to the first instance whose
// major version matches its own. Addresses reported on several interfaces
// are merged into a single entry.
package discovery
