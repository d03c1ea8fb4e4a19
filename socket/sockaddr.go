//go:build linux || darwin || freebsd

package socket

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils/errs"
)

// FamilyOf picks AF_INET for IPv4 (and unspecified) addresses, AF_INET6
// otherwise.
func FamilyOf(ip net.IP) int {
	if len(ip) == 0 || ip.To4() != nil {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

// AddrToSockaddr converts addr for a socket of the given family. An IPv4
// address on an AF_INET6 socket becomes a v4-mapped address.
func AddrToSockaddr(family int, addr net.Addr) (unix.Sockaddr, error) {
	switch a := addr.(type) {
	case *net.TCPAddr:
		return ipToSockaddr(family, a.IP, a.Port, a.Zone)
	case *net.UDPAddr:
		return ipToSockaddr(family, a.IP, a.Port, a.Zone)
	case *net.UnixAddr:
		if family != unix.AF_UNIX {
			return nil, errs.ErrUnsupportedAddressFamily
		}
		return &unix.SockaddrUnix{Name: a.Name}, nil
	default:
		return nil, errs.ErrUnsupportedAddressFamily
	}
}

func ipToSockaddr(family int, ip net.IP, port int, zone string) (unix.Sockaddr, error) {
	switch family {
	case unix.AF_INET:
		if len(ip) == 0 {
			ip = net.IPv4zero
		}
		ip4 := ip.To4()
		if ip4 == nil {
			return nil, errs.ErrUnsupportedAddressFamily
		}
		sa := &unix.SockaddrInet4{Port: port}
		copy(sa.Addr[:], ip4)
		return sa, nil
	case unix.AF_INET6:
		if len(ip) == 0 || ip.Equal(net.IPv4zero) {
			ip = net.IPv6zero
		}
		ip6 := ip.To16()
		if ip6 == nil {
			return nil, errs.ErrUnsupportedAddressFamily
		}
		sa := &unix.SockaddrInet6{Port: port, ZoneId: zoneIndex(zone)}
		copy(sa.Addr[:], ip6)
		return sa, nil
	default:
		return nil, errs.ErrUnsupportedAddressFamily
	}
}

func zoneIndex(zone string) uint32 {
	if zone == "" {
		return 0
	}
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index)
	}
	n, _ := strconv.Atoi(zone)
	return uint32(n)
}

func zoneName(idx uint32) string {
	if idx == 0 {
		return ""
	}
	if ifi, err := net.InterfaceByIndex(int(idx)); err == nil {
		return ifi.Name
	}
	return strconv.Itoa(int(idx))
}

// SockaddrToAddr returns *net.TCPAddr, *net.UDPAddr or *net.UnixAddr
// depending on sotype, or nil for unknown address types.
func SockaddrToAddr(sa unix.Sockaddr, sotype int) net.Addr {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		ip := make(net.IP, net.IPv4len)
		copy(ip, sa.Addr[:])
		if sotype == unix.SOCK_DGRAM {
			return &net.UDPAddr{IP: ip, Port: sa.Port}
		}
		return &net.TCPAddr{IP: ip, Port: sa.Port}
	case *unix.SockaddrInet6:
		ip := make(net.IP, net.IPv6len)
		copy(ip, sa.Addr[:])
		zone := zoneName(sa.ZoneId)
		if sotype == unix.SOCK_DGRAM {
			return &net.UDPAddr{IP: ip, Port: sa.Port, Zone: zone}
		}
		return &net.TCPAddr{IP: ip, Port: sa.Port, Zone: zone}
	case *unix.SockaddrUnix:
		network := "unix"
		if sotype == unix.SOCK_DGRAM {
			network = "unixgram"
		}
		return &net.UnixAddr{Name: sa.Name, Net: network}
	}
	return nil
}
