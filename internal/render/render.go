// Package render writes a SystemConfig in the formats operators and boot
// scripts consume: YAML, JSON, shell assignments and resolv.conf.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"net/netip"
	"strings"

	shellquote "github.com/kballard/go-shellquote"
	"github.com/miekg/dns"
	"gopkg.in/yaml.v2"

	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

// Format selects an output encoding.
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatEnv    Format = "env"
	FormatResolv Format = "resolv"
)

// Formats lists every supported format.
var Formats = []Format{FormatYAML, FormatJSON, FormatEnv, FormatResolv}

// maxNameservers matches the resolver's MAXNS.
const maxNameservers = 3

// ParseFormat maps a format name to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// Render writes sc to w in the given format.
func Render(w io.Writer, sc *sysconfig.SystemConfig, format Format) error {
	switch format {
	case FormatYAML:
		out, err := yaml.Marshal(sc)
		if err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
		_, err = w.Write(out)
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sc)
	case FormatEnv:
		return renderEnv(w, sc)
	case FormatResolv:
		return renderResolv(w, sc)
	}
	return fmt.Errorf("unknown format %q", format)
}

// String renders sc to a string.
func String(sc *sysconfig.SystemConfig, format Format) (string, error) {
	var b strings.Builder
	if err := Render(&b, sc, format); err != nil {
		return "", err
	}
	return b.String(), nil
}

// envNames maps address kinds to the variable suffix used in env output.
var envNames = map[sysconfig.Kind]string{
	sysconfig.KindIP:           "IP",
	sysconfig.KindNetmask:      "MASK",
	sysconfig.KindGateway:      "GATEWAY",
	sysconfig.KindPrefixLength: "PREFIX_LENGTH",
	sysconfig.KindMAC:          "MAC",
	sysconfig.KindMTU:          "MTU",
}

func renderEnv(w io.Writer, sc *sysconfig.SystemConfig) error {
	var lines []string
	add := func(key, value string) {
		lines = append(lines, key+"="+shellquote.Join(value))
	}

	if sc.Provenance != "" {
		add("PROVENANCE", sc.Provenance)
	}
	if enabled, set := sc.NetworkEnabled(); set {
		if enabled {
			add("NETWORK", "yes")
		} else {
			add("NETWORK", "no")
		}
	}
	if sc.Hostname != "" {
		add("HOSTNAME", sc.Hostname)
	}
	if sc.InstanceID != "" {
		add("INSTANCE_ID", sc.InstanceID)
		add("INSTANCE_UUID", sc.InstanceUUID)
	}
	if vals := values(sc.Addresses(sysconfig.KindDNS)); len(vals) > 0 {
		add("DNS", strings.Join(vals, " "))
	}
	if vals := values(sc.Addresses(sysconfig.KindDNSSearchDomain)); len(vals) > 0 {
		add("SEARCH_DOMAIN", strings.Join(vals, " "))
	}

	for _, unit := range sc.Units() {
		// Several entries of one kind on a unit are joined in discovery
		// order; IPv6 variants get a 6 suffix.
		seen := make(map[string][]string)
		var order []string
		for _, na := range sc.UnitAddresses(unit) {
			name, ok := envNames[na.Kind]
			if !ok {
				continue
			}
			if na.Family == sysconfig.FamilyInet6 && (na.Kind == sysconfig.KindIP || na.Kind == sysconfig.KindGateway) {
				name += "6"
			}
			key := fmt.Sprintf("ETH%d_%s", unit, name)
			if _, ok := seen[key]; !ok {
				order = append(order, key)
			}
			seen[key] = append(seen[key], na.Value)
		}
		for _, key := range order {
			add(key, strings.Join(seen[key], " "))
		}
	}

	for i, pk := range sc.PublicKeys {
		add(fmt.Sprintf("SSH_PUBLIC_KEY_%d", i), pk.Value)
	}

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// renderResolv writes resolver settings. Search domains that are not
// valid domain names and nameservers that are not IP literals are
// dropped.
func renderResolv(w io.Writer, sc *sysconfig.SystemConfig) error {
	var b strings.Builder
	if sc.Provenance != "" {
		fmt.Fprintf(&b, "# generated from %s context\n", sc.Provenance)
	}

	var search []string
	for _, na := range sc.Addresses(sysconfig.KindDNSSearchDomain) {
		if _, ok := dns.IsDomainName(na.Value); ok {
			search = append(search, strings.TrimSuffix(na.Value, "."))
		}
	}
	if len(search) > 0 {
		fmt.Fprintf(&b, "search %s\n", strings.Join(search, " "))
	}

	n := 0
	for _, na := range sc.Addresses(sysconfig.KindDNS) {
		if n == maxNameservers {
			break
		}
		addr, err := netip.ParseAddr(na.Value)
		if err != nil {
			continue
		}
		fmt.Fprintf(&b, "nameserver %s\n", addr)
		n++
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func values(addrs []sysconfig.NetworkAddress) []string {
	out := make([]string, 0, len(addrs))
	for _, na := range addrs {
		out = append(out, na.Value)
	}
	return out
}
