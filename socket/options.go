//go:build linux || darwin || freebsd

package socket

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
	"github.com/moqsien/gkpoll/utils/errs"
)

var syscallName string = "setsockopt"

func boolint(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (that *Socket) setInt(level, opt, value int) error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return utils.SysError(syscallName, unix.SetsockoptInt(that.fd, level, opt, value))
}

// Linger returns 0 when lingering is disabled.
func (that *Socket) Linger() (time.Duration, error) {
	if that.closed.Load() {
		return 0, errs.ErrClosedFd
	}
	l, err := unix.GetsockoptLinger(that.fd, unix.SOL_SOCKET, unix.SO_LINGER)
	if err != nil {
		return 0, utils.SysError("getsockopt", err)
	}
	if l.Onoff == 0 {
		return 0, nil
	}
	return time.Duration(l.Linger) * time.Second, nil
}

// SetLinger rounds d up to whole seconds; d <= 0 disables lingering.
func (that *Socket) SetLinger(d time.Duration) error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	l := &unix.Linger{}
	if d > 0 {
		l.Onoff = 1
		l.Linger = int32((d + time.Second - 1) / time.Second)
	}
	return utils.SysError(syscallName, unix.SetsockoptLinger(that.fd, unix.SOL_SOCKET, unix.SO_LINGER, l))
}

func (that *Socket) SetReuseAddr(v bool) error {
	return that.setInt(unix.SOL_SOCKET, unix.SO_REUSEADDR, boolint(v))
}

func (that *Socket) SetReusePort(v bool) error {
	return that.setInt(unix.SOL_SOCKET, unix.SO_REUSEPORT, boolint(v))
}

func (that *Socket) SetNoDelay(v bool) error {
	return that.setInt(unix.IPPROTO_TCP, unix.TCP_NODELAY, boolint(v))
}

func (that *Socket) SetRecvBuffer(size int) error {
	return that.setInt(unix.SOL_SOCKET, unix.SO_RCVBUF, size)
}

func (that *Socket) SetSendBuffer(size int) error {
	return that.setInt(unix.SOL_SOCKET, unix.SO_SNDBUF, size)
}

func (that *Socket) getInt(level, opt int) (int, error) {
	if that.closed.Load() {
		return 0, errs.ErrClosedFd
	}
	v, err := unix.GetsockoptInt(that.fd, level, opt)
	return v, utils.SysError("getsockopt", err)
}

func (that *Socket) ReuseAddr() (bool, error) {
	v, err := that.getInt(unix.SOL_SOCKET, unix.SO_REUSEADDR)
	return v != 0, err
}

func (that *Socket) ReusePort() (bool, error) {
	v, err := that.getInt(unix.SOL_SOCKET, unix.SO_REUSEPORT)
	return v != 0, err
}

func (that *Socket) NoDelay() (bool, error) {
	v, err := that.getInt(unix.IPPROTO_TCP, unix.TCP_NODELAY)
	return v != 0, err
}
