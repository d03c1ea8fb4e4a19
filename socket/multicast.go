//go:build linux || darwin || freebsd

package socket

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
	"github.com/moqsien/gkpoll/utils/errs"
)

// Only IPv4 groups are supported. An IPv6 group, or an interface address of
// another family than the group, fails with errs.ErrUnsupportedAddressFamily.

func (that *Socket) JoinMulticastGroup(group net.IP, ifi net.IP) error {
	return that.membership(unix.IP_ADD_MEMBERSHIP, group, ifi)
}

func (that *Socket) LeaveMulticastGroup(group net.IP, ifi net.IP) error {
	return that.membership(unix.IP_DROP_MEMBERSHIP, group, ifi)
}

func (that *Socket) membership(opt int, group, ifi net.IP) error {
	g4 := group.To4()
	if g4 == nil {
		return errs.ErrUnsupportedAddressFamily
	}
	mreq := &unix.IPMreq{}
	copy(mreq.Multiaddr[:], g4)
	if ifi != nil {
		i4 := ifi.To4()
		if i4 == nil {
			return errs.ErrUnsupportedAddressFamily
		}
		copy(mreq.Interface[:], i4)
	}
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return utils.SysError(syscallName, unix.SetsockoptIPMreq(that.fd, unix.IPPROTO_IP, opt, mreq))
}

// SetMulticastTTL passes a single byte, which every supported kernel accepts.
func (that *Socket) SetMulticastTTL(ttl uint8) error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return utils.SysError(syscallName, unix.SetsockoptByte(that.fd, unix.IPPROTO_IP, unix.IP_MULTICAST_TTL, ttl))
}

func (that *Socket) SetMulticastLoop(v bool) error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return utils.SysError(syscallName, unix.SetsockoptByte(that.fd, unix.IPPROTO_IP, unix.IP_MULTICAST_LOOP, byte(boolint(v))))
}
