package address

import (
	"fmt"
	"net/netip"
)

// Family is an IP address family tag.
type Family string

const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// RecordType returns the DNS record type managed for this family.
func (f Family) RecordType() string {
	if f == FamilyIPv6 {
		return "AAAA"
	}
	return "A"
}

// DialNetwork returns the network string to pass to a net.Dialer so that
// outbound requests are pinned to this family.
func (f Family) DialNetwork() string {
	if f == FamilyIPv6 {
		return "tcp6"
	}
	return "tcp4"
}

// PublicAddress is the externally visible address of the host for one family
// at one point in time. It is produced fresh by every resolution and never
// cached between reconciliation passes.
type PublicAddress struct {
	// The address family
	Family Family `json:"family"`
	// Textual address value, e.g. "192.0.2.1" or "2001:db8::1"
	Address string `json:"address"`
}

func (a PublicAddress) String() string {
	return a.Address
}

// Parse validates that raw is a well-formed address of the requested family.
func Parse(family Family, raw string) (PublicAddress, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return PublicAddress{}, fmt.Errorf("address: could not parse %q: %w", raw, err)
	}
	switch family {
	case FamilyIPv4:
		if !addr.Is4() {
			return PublicAddress{}, fmt.Errorf("address: %q is not an IPv4 address", raw)
		}
	case FamilyIPv6:
		if !addr.Is6() || addr.Is4In6() {
			return PublicAddress{}, fmt.Errorf("address: %q is not an IPv6 address", raw)
		}
	default:
		return PublicAddress{}, fmt.Errorf("address: unknown address family %q", family)
	}
	return PublicAddress{Family: family, Address: addr.String()}, nil
}
