package sysconfig

import (
	"fmt"
	"strconv"
)

// maxDomainLen matches NI_MAXHOST less the terminator.
const maxDomainLen = 1024

// AddNetAddr appends a network setting to sc.
//
// Values are stored as given. IP and MAC syntax is left to the consumer;
// only the numeric kinds are parsed, since consumers need them as numbers.
func AddNetAddr(sc *SystemConfig, unit uint16, value string, family Family, kind Kind) error {
	if value == "" {
		return fmt.Errorf("%s: empty %w", kind, ErrInvalidValue)
	}
	if kind.Global() && unit != 0 {
		return fmt.Errorf("%s on unit %d: %w", kind, unit, ErrInvalidKey)
	}

	na := NetworkAddress{
		Unit:   unit,
		Family: family,
		Kind:   kind,
		Value:  value,
	}

	switch kind {
	case KindDNSSearchDomain:
		if len(value) > maxDomainLen {
			return fmt.Errorf("%s: domain too long: %w", kind, ErrInvalidValue)
		}
	case KindMTU, KindPrefixLength:
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("%s %q: %w", kind, value, ErrInvalidValue)
		}
		na.Number = uint32(n)
	}

	sc.NetworkAddresses = append(sc.NetworkAddresses, na)
	return nil
}
