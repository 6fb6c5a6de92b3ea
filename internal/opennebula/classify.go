package opennebula

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

// keyKind is the shape of a context variable name.
type keyKind int

const (
	keyOther keyKind = iota
	keyNetwork
	keyHostname
	keySSHPublicKey
	keyInterface
)

// contextKey is a classified context variable name.
type contextKey struct {
	Kind keyKind

	// Unit and Sub are set for interface keys (ETH<unit>_<sub>).
	// Sub is upper case.
	Unit uint16
	Sub  string
}

// subkey describes how an interface subkey maps onto a network address.
type subkey struct {
	family sysconfig.Family
	kind   sysconfig.Kind

	// list values are whitespace separated and always global.
	list bool
}

var interfaceSubkeys = map[string]subkey{
	"DNS":           {sysconfig.FamilyUnspec, sysconfig.KindDNS, true},
	"SEARCH_DOMAIN": {sysconfig.FamilyUnspec, sysconfig.KindDNSSearchDomain, true},
	"IP":            {sysconfig.FamilyInet, sysconfig.KindIP, false},
	"MASK":          {sysconfig.FamilyInet, sysconfig.KindNetmask, false},
	"GATEWAY":       {sysconfig.FamilyInet, sysconfig.KindGateway, false},
	"IP6":           {sysconfig.FamilyInet6, sysconfig.KindIP, false},
	"GATEWAY6":      {sysconfig.FamilyInet6, sysconfig.KindGateway, false},
	"PREFIX_LENGTH": {sysconfig.FamilyInet6, sysconfig.KindPrefixLength, false},
	"MAC":           {sysconfig.FamilyUnspec, sysconfig.KindMAC, false},
	"MTU":           {sysconfig.FamilyUnspec, sysconfig.KindMTU, false},
}

// classifyKey works out what a variable name refers to. Names are
// matched case-insensitively. Anything that looks like an interface key
// but carries a bad unit number is an error.
func classifyKey(name string) (contextKey, error) {
	upper := strings.ToUpper(name)

	switch upper {
	case "NETWORK":
		return contextKey{Kind: keyNetwork}, nil
	case "HOSTNAME":
		return contextKey{Kind: keyHostname}, nil
	case "SSH_PUBLIC_KEY":
		return contextKey{Kind: keySSHPublicKey}, nil
	}

	if !strings.HasPrefix(upper, "ETH") {
		return contextKey{Kind: keyOther}, nil
	}
	sep := strings.IndexByte(upper[3:], '_')
	if sep < 0 {
		return contextKey{Kind: keyOther}, nil
	}
	sep += 3

	unit, err := strconv.ParseUint(upper[3:sep], 10, 16)
	if err != nil {
		return contextKey{}, fmt.Errorf("%w %q", ErrInvalidUnit, upper[3:sep])
	}

	return contextKey{
		Kind: keyInterface,
		Unit: uint16(unit),
		Sub:  upper[sep+1:],
	}, nil
}

// stripComment cuts the line at the first '#'. Unless legacy is set, a
// '#' inside a quoted span is kept.
func stripComment(line string, legacy bool) string {
	if legacy {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			return line[:i]
		}
		return line
	}

	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return line[:i]
		}
	}
	return line
}

// splitAssignment splits KEY=VALUE at the first '='. Lines without an
// assignment or with nothing after the '=' are rejected.
func splitAssignment(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 || i == len(line)-1 {
		return "", "", false
	}
	return line[:i], line[i+1:], true
}

// dequote removes the quotes around a value. The first character picks
// the quote; the value runs to the last occurrence of that quote and
// anything after it is dropped. Unquoted, unterminated and empty values
// are rejected.
func dequote(v string) (string, bool) {
	if v == "" || (v[0] != '"' && v[0] != '\'') {
		return "", false
	}
	end := strings.LastIndexByte(v, v[0])
	if end <= 0 {
		return "", false
	}
	v = v[1:end]
	if v == "" {
		return "", false
	}
	return v, true
}

// macHostname makes a hostname out of a MAC address: "vm" followed by
// its alphanumeric characters.
func macHostname(mac string) string {
	var b strings.Builder
	b.WriteString("vm")
	for i := 0; i < len(mac); i++ {
		c := mac[i]
		if ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
