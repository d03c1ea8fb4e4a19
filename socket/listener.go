//go:build linux || darwin || freebsd

package socket

import (
	"net"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils/errs"
)

// Options apply to sockets created by Listen, ListenPacket and Dial.
type Options struct {
	ReuseAddr         bool
	ReusePort         bool
	NoDelay           bool
	Backlog           int
	SocketReadBuffer  int
	SocketWriteBuffer int
}

func (that *Socket) apply(opt *Options) (err error) {
	if opt == nil {
		return nil
	}
	if opt.ReuseAddr {
		if err = that.SetReuseAddr(true); err != nil {
			return
		}
	}
	if opt.ReusePort {
		if err = that.SetReusePort(true); err != nil {
			return
		}
	}
	if opt.NoDelay && that.sotype == unix.SOCK_STREAM && that.family != unix.AF_UNIX {
		if err = that.SetNoDelay(true); err != nil {
			return
		}
	}
	if opt.SocketReadBuffer > 0 {
		if err = that.SetRecvBuffer(opt.SocketReadBuffer); err != nil {
			return
		}
	}
	if opt.SocketWriteBuffer > 0 {
		err = that.SetSendBuffer(opt.SocketWriteBuffer)
	}
	return
}

func firstOpt(opt []*Options) *Options {
	if len(opt) > 0 {
		return opt[0]
	}
	return nil
}

func resolve(network, address string) (family, sotype int, addr net.Addr, err error) {
	switch {
	case strings.HasPrefix(network, "tcp"):
		var a *net.TCPAddr
		if a, err = net.ResolveTCPAddr(network, address); err != nil {
			return
		}
		family, sotype, addr = familyFor(network, a.IP), unix.SOCK_STREAM, a
	case strings.HasPrefix(network, "udp"):
		var a *net.UDPAddr
		if a, err = net.ResolveUDPAddr(network, address); err != nil {
			return
		}
		family, sotype, addr = familyFor(network, a.IP), unix.SOCK_DGRAM, a
	case network == "unix":
		family, sotype, addr = unix.AF_UNIX, unix.SOCK_STREAM, &net.UnixAddr{Name: address, Net: network}
	case network == "unixgram":
		family, sotype, addr = unix.AF_UNIX, unix.SOCK_DGRAM, &net.UnixAddr{Name: address, Net: network}
	default:
		err = errs.ErrUnsupportedAddressFamily
	}
	return
}

func familyFor(network string, ip net.IP) int {
	switch {
	case strings.HasSuffix(network, "4"):
		return unix.AF_INET
	case strings.HasSuffix(network, "6"):
		return unix.AF_INET6
	}
	return FamilyOf(ip)
}

// Listen creates a bound, listening stream socket ("tcp", "tcp4", "tcp6",
// "unix").
func Listen(network, address string, opt ...*Options) (s *Socket, err error) {
	family, sotype, addr, err := resolve(network, address)
	if err != nil {
		return nil, err
	}
	if sotype != unix.SOCK_STREAM {
		return nil, errs.ErrUnsupportedOp
	}
	if s, err = New(family, sotype, 0); err != nil {
		return nil, err
	}
	o := firstOpt(opt)
	if o == nil {
		o = &Options{ReuseAddr: family != unix.AF_UNIX}
	}
	if err = s.apply(o); err == nil {
		if err = s.Bind(addr); err == nil {
			err = s.Listen(o.Backlog)
		}
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// ListenPacket creates a bound datagram socket ("udp", "udp4", "udp6",
// "unixgram").
func ListenPacket(network, address string, opt ...*Options) (s *Socket, err error) {
	family, sotype, addr, err := resolve(network, address)
	if err != nil {
		return nil, err
	}
	if sotype != unix.SOCK_DGRAM {
		return nil, errs.ErrUnsupportedOp
	}
	if s, err = New(family, sotype, 0); err != nil {
		return nil, err
	}
	if err = s.apply(firstOpt(opt)); err == nil {
		err = s.Bind(addr)
	}
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Dial starts a non-blocking connect. connected is false while the
// handshake is still running.
func Dial(network, address string, opt ...*Options) (s *Socket, connected bool, err error) {
	family, sotype, addr, err := resolve(network, address)
	if err != nil {
		return nil, false, err
	}
	if s, err = New(family, sotype, 0); err != nil {
		return nil, false, err
	}
	if err = s.apply(firstOpt(opt)); err == nil {
		connected, err = s.Connect(addr)
	}
	if err != nil {
		_ = s.Close()
		return nil, false, err
	}
	return s, connected, nil
}
