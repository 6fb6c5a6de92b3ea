//go:build !linux

package netiface

import (
	"errors"

	"github.com/vishvananda/netlink"
)

// ErrUnsupported is returned on platforms without netlink.
var ErrUnsupported = errors.New("netlink not supported on this platform")

// DefaultNetlinker is the default RealNetlinker instance (stub).
var DefaultNetlinker Netlinker = &RealNetlinker{}

// RealNetlinker is a stub implementation of Netlinker.
type RealNetlinker struct{}

func (r *RealNetlinker) LinkList() ([]netlink.Link, error) {
	return nil, ErrUnsupported
}

func (r *RealNetlinker) AddrList(link netlink.Link, family int) ([]netlink.Addr, error) {
	return nil, ErrUnsupported
}
