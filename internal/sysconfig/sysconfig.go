// Package sysconfig holds the system identity and network configuration
// assembled from a cloud provider's metadata.
//
// A SystemConfig is created by the caller and handed to a provider, which
// appends to it as it discovers settings. Nothing in here applies the
// configuration to the running system; that is left to the consumers.
package sysconfig

import (
	"errors"
	"fmt"
	"sort"
)

// Common errors
var (
	ErrInvalidValue = errors.New("invalid value")
	ErrInvalidKey   = errors.New("invalid key")
)

// Family is the address family of a NetworkAddress.
type Family int

const (
	FamilyUnspec Family = iota
	FamilyInet
	FamilyInet6
)

var familyNames = map[Family]string{
	FamilyUnspec: "unspec",
	FamilyInet:   "inet",
	FamilyInet6:  "inet6",
}

func (f Family) String() string {
	if s, ok := familyNames[f]; ok {
		return s
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// MarshalText renders the family name for JSON and YAML output.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Kind says what a NetworkAddress value describes.
type Kind int

const (
	KindDNS Kind = iota
	KindDNSSearchDomain
	KindIP
	KindNetmask
	KindGateway
	KindPrefixLength
	KindMAC
	KindMTU
)

var kindNames = map[Kind]string{
	KindDNS:             "dns",
	KindDNSSearchDomain: "dns-domain",
	KindIP:              "ip",
	KindNetmask:         "netmask",
	KindGateway:         "gateway",
	KindPrefixLength:    "prefix-length",
	KindMAC:             "mac",
	KindMTU:             "mtu",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind name for JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Global reports whether addresses of this kind apply to the whole system
// rather than to a single interface.
func (k Kind) Global() bool {
	return k == KindDNS || k == KindDNSSearchDomain
}

// NetworkAddress is a single network setting discovered in the metadata.
// Unit 0 doubles as the global unit for DNS settings.
type NetworkAddress struct {
	Unit   uint16 `json:"unit" yaml:"unit"`
	Family Family `json:"family" yaml:"family"`
	Kind   Kind   `json:"kind" yaml:"kind"`
	Value  string `json:"value" yaml:"value"`

	// Number is the parsed value for MTU and prefix length entries.
	Number uint32 `json:"number,omitempty" yaml:"number,omitempty"`
}

// PublicKey is an SSH public key to be installed for the default user.
type PublicKey struct {
	Value       string `json:"value" yaml:"value"`
	Comment     string `json:"comment,omitempty" yaml:"comment,omitempty"`
	Fingerprint string `json:"fingerprint" yaml:"fingerprint"`
}

// SystemConfig is the accumulated configuration for this instance.
type SystemConfig struct {
	// Provenance names the provider format that produced the configuration.
	Provenance string `json:"provenance,omitempty" yaml:"provenance,omitempty"`

	// Network is nil until the metadata says whether networking is wanted.
	Network *bool `json:"network,omitempty" yaml:"network,omitempty"`

	Hostname     string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	InstanceID   string `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	InstanceUUID string `json:"instance_uuid,omitempty" yaml:"instance_uuid,omitempty"`

	// NetworkAddresses keeps discovery order; consumers may take the
	// first match per kind.
	NetworkAddresses []NetworkAddress `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	PublicKeys       []PublicKey      `json:"public_keys,omitempty" yaml:"public_keys,omitempty"`
}

// New returns an empty SystemConfig.
func New() *SystemConfig {
	return &SystemConfig{}
}

// SetNetwork records whether networking is enabled.
func (sc *SystemConfig) SetNetwork(enabled bool) {
	sc.Network = &enabled
}

// NetworkEnabled returns the network flag and whether it was set at all.
func (sc *SystemConfig) NetworkEnabled() (enabled, set bool) {
	if sc.Network == nil {
		return false, false
	}
	return *sc.Network, true
}

// Addresses returns all addresses of the given kind in discovery order.
func (sc *SystemConfig) Addresses(kind Kind) []NetworkAddress {
	var out []NetworkAddress
	for _, na := range sc.NetworkAddresses {
		if na.Kind == kind {
			out = append(out, na)
		}
	}
	return out
}

// UnitAddresses returns the per-interface addresses of one unit.
func (sc *SystemConfig) UnitAddresses(unit uint16) []NetworkAddress {
	var out []NetworkAddress
	for _, na := range sc.NetworkAddresses {
		if na.Unit == unit && !na.Kind.Global() {
			out = append(out, na)
		}
	}
	return out
}

// First returns the first address of the given unit, family and kind.
func (sc *SystemConfig) First(unit uint16, family Family, kind Kind) (NetworkAddress, bool) {
	for _, na := range sc.NetworkAddresses {
		if na.Unit == unit && na.Family == family && na.Kind == kind {
			return na, true
		}
	}
	return NetworkAddress{}, false
}

// Units returns the sorted set of interface units that carry
// per-interface settings.
func (sc *SystemConfig) Units() []uint16 {
	seen := make(map[uint16]bool)
	var units []uint16
	for _, na := range sc.NetworkAddresses {
		if na.Kind.Global() || seen[na.Unit] {
			continue
		}
		seen[na.Unit] = true
		units = append(units, na.Unit)
	}
	sort.Slice(units, func(i, j int) bool { return units[i] < units[j] })
	return units
}
