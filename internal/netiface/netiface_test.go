package netiface

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vishvananda/netlink"

	"github.com/stensonb/cloud-agent/internal/sysconfig"
	"github.com/stensonb/cloud-agent/internal/testutil"
)

func device(t *testing.T, name string, index, mtu int, mac string) *netlink.Device {
	t.Helper()
	attrs := netlink.NewLinkAttrs()
	attrs.Name = name
	attrs.Index = index
	attrs.MTU = mtu
	if mac != "" {
		hw, err := net.ParseMAC(mac)
		require.NoError(t, err)
		attrs.HardwareAddr = hw
	}
	return &netlink.Device{LinkAttrs: attrs}
}

func addr(t *testing.T, cidr string) netlink.Addr {
	t.Helper()
	ip, ipnet, err := net.ParseCIDR(cidr)
	require.NoError(t, err)
	ipnet.IP = ip
	return netlink.Addr{IPNet: ipnet}
}

func TestResolve(t *testing.T) {
	lo := device(t, "lo", 1, 65536, "")
	ens3 := device(t, "ens3", 2, 1500, "02:00:0a:00:00:05")
	eth1 := device(t, "eth1", 3, 1500, "02:00:0a:00:01:05")

	nl := new(MockNetlinker)
	nl.On("LinkList").Return([]netlink.Link{lo, ens3, eth1}, nil)
	nl.On("AddrList", ens3, familyAll).Return([]netlink.Addr{addr(t, "10.0.0.5/24")}, nil)
	nl.On("AddrList", eth1, familyAll).Return([]netlink.Addr{}, nil)

	sc := sysconfig.New()
	require.NoError(t, sysconfig.AddNetAddr(sc, 0, "02:00:0A:00:00:05", sysconfig.FamilyUnspec, sysconfig.KindMAC))
	require.NoError(t, sysconfig.AddNetAddr(sc, 0, "1450", sysconfig.FamilyUnspec, sysconfig.KindMTU))
	require.NoError(t, sysconfig.AddNetAddr(sc, 1, "10.0.1.5", sysconfig.FamilyInet, sysconfig.KindIP))
	require.NoError(t, sysconfig.AddNetAddr(sc, 2, "02:00:0a:00:02:05", sysconfig.FamilyUnspec, sysconfig.KindMAC))
	require.NoError(t, sysconfig.AddNetAddr(sc, 0, "10.0.0.1", sysconfig.FamilyUnspec, sysconfig.KindDNS))

	got, err := Resolve(nl, sc)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, Binding{
		Unit:      0,
		MAC:       "02:00:0a:00:00:05",
		Match:     MatchMAC,
		Link:      "ens3",
		Index:     2,
		MTU:       1500,
		WantMTU:   1450,
		Addresses: []string{"10.0.0.5/24"},
	}, got[0])
	assert.True(t, got[0].MTUDrift())

	assert.Equal(t, MatchName, got[1].Match)
	assert.Equal(t, "eth1", got[1].Link)
	assert.False(t, got[1].MTUDrift())

	assert.Equal(t, MatchNone, got[2].Match)
	assert.False(t, got[2].Resolved())
	assert.Empty(t, got[2].Link)

	nl.AssertExpectations(t)
}

func TestResolve_NoUnits(t *testing.T) {
	nl := new(MockNetlinker)
	nl.On("LinkList").Return([]netlink.Link{}, nil)

	got, err := Resolve(nl, sysconfig.New())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestResolve_LinkListError(t *testing.T) {
	boom := errors.New("netlink socket")
	nl := new(MockNetlinker)
	nl.On("LinkList").Return(nil, boom)

	_, err := Resolve(nl, sysconfig.New())
	assert.ErrorIs(t, err, boom)
}

func TestResolve_AddrListError(t *testing.T) {
	boom := errors.New("permission denied")
	eth0 := device(t, "eth0", 2, 1500, "02:00:00:00:00:01")

	nl := new(MockNetlinker)
	nl.On("LinkList").Return([]netlink.Link{eth0}, nil)
	nl.On("AddrList", mock.Anything, familyAll).Return(nil, boom)

	sc := sysconfig.New()
	require.NoError(t, sysconfig.AddNetAddr(sc, 0, "10.0.0.5", sysconfig.FamilyInet, sysconfig.KindIP))

	_, err := Resolve(nl, sc)
	assert.ErrorIs(t, err, boom)
}

func TestNormalizeMAC(t *testing.T) {
	assert.Equal(t, "02:00:0a:00:00:05", normalizeMAC("02-00-0A-00-00-05"))
	assert.Equal(t, "not-a-mac", normalizeMAC("NOT-A-MAC"))
}

func TestDefaultNetlinker_Loopback(t *testing.T) {
	testutil.RequireNetlink(t)

	links, err := DefaultNetlinker.LinkList()
	require.NoError(t, err)

	var found bool
	for _, l := range links {
		if l.Attrs().Name == "lo" {
			found = true
		}
	}
	assert.True(t, found, "loopback link not listed")
}
