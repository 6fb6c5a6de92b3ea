// Package netiface maps the interface units named in the context to the
// links present on this guest.
//
// A unit is matched by the MAC address the context assigns to it. Units
// without a MAC fall back to the link named eth<unit>, which is how the
// hypervisor orders devices on the virtual bus.
package netiface

import (
	"fmt"
	"net"
	"strings"

	"github.com/vishvananda/netlink"

	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

// Netlinker is the subset of netlink the resolver needs.
// This allows for mocking netlink calls during unit testing.
type Netlinker interface {
	LinkList() ([]netlink.Link, error)
	AddrList(link netlink.Link, family int) ([]netlink.Addr, error)
}

// familyAll is AF_UNSPEC; netlink only exports FAMILY_ALL on linux.
const familyAll = 0

// Match describes how a unit was bound to a link.
type Match string

const (
	MatchMAC  Match = "mac"
	MatchName Match = "name"
	MatchNone Match = "none"
)

// Binding is the resolved link for one unit.
type Binding struct {
	Unit  uint16 `json:"unit" yaml:"unit"`
	MAC   string `json:"mac,omitempty" yaml:"mac,omitempty"`
	Match Match  `json:"match" yaml:"match"`

	Link  string `json:"link,omitempty" yaml:"link,omitempty"`
	Index int    `json:"index,omitempty" yaml:"index,omitempty"`
	MTU   int    `json:"mtu,omitempty" yaml:"mtu,omitempty"`

	// WantMTU is the MTU the context asks for, zero if unset.
	WantMTU uint32 `json:"want_mtu,omitempty" yaml:"want_mtu,omitempty"`

	// Addresses are the addresses currently configured on the link.
	Addresses []string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
}

// Resolved reports whether a link was found.
func (b Binding) Resolved() bool {
	return b.Match != MatchNone
}

// MTUDrift reports whether the link MTU differs from the requested one.
func (b Binding) MTUDrift() bool {
	return b.Resolved() && b.WantMTU != 0 && b.MTU != int(b.WantMTU)
}

// Resolve binds every unit in sc to a local link. Units are returned in
// ascending order; unresolved units are included with MatchNone.
func Resolve(nl Netlinker, sc *sysconfig.SystemConfig) ([]Binding, error) {
	links, err := nl.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}

	byMAC := make(map[string]netlink.Link, len(links))
	byName := make(map[string]netlink.Link, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		if attrs == nil {
			continue
		}
		if len(attrs.HardwareAddr) > 0 {
			byMAC[attrs.HardwareAddr.String()] = l
		}
		byName[attrs.Name] = l
	}

	var out []Binding
	for _, unit := range sc.Units() {
		b := Binding{Unit: unit, Match: MatchNone}

		if mtu, ok := sc.First(unit, sysconfig.FamilyUnspec, sysconfig.KindMTU); ok {
			b.WantMTU = mtu.Number
		}

		var link netlink.Link
		if mac, ok := sc.First(unit, sysconfig.FamilyUnspec, sysconfig.KindMAC); ok {
			b.MAC = normalizeMAC(mac.Value)
			if l, ok := byMAC[b.MAC]; ok {
				link, b.Match = l, MatchMAC
			}
		} else if l, ok := byName[fmt.Sprintf("eth%d", unit)]; ok {
			link, b.Match = l, MatchName
		}

		if link != nil {
			attrs := link.Attrs()
			b.Link = attrs.Name
			b.Index = attrs.Index
			b.MTU = attrs.MTU

			addrs, err := nl.AddrList(link, familyAll)
			if err != nil {
				return nil, fmt.Errorf("list addresses on %s: %w", attrs.Name, err)
			}
			for _, a := range addrs {
				if a.IPNet != nil {
					b.Addresses = append(b.Addresses, a.IPNet.String())
				}
			}
		}
		out = append(out, b)
	}
	return out, nil
}

// normalizeMAC returns the canonical lower-case colon form, or the input
// lower-cased if it does not parse.
func normalizeMAC(s string) string {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return strings.ToLower(s)
	}
	return hw.String()
}
