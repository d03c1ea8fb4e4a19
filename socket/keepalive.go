//go:build linux || darwin || freebsd

package socket

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/sys"
	"github.com/moqsien/gkpoll/utils"
	"github.com/moqsien/gkpoll/utils/errs"
)

// SetKeepAlive turns on TCP keep-alive probing every secs seconds.
// Without an argument sys.DefaultTCPKeepAlive is used.
func (that *Socket) SetKeepAlive(secs ...int) error {
	timeout := sys.DefaultTCPKeepAlive
	if len(secs) > 0 {
		if secs[0] <= 0 {
			return errors.New("invalid keep-alive time")
		}
		timeout = secs[0]
	}
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	err := unix.SetsockoptInt(that.fd, sys.SOL_SOCKET, sys.SO_KEEPALIVE, 1)
	if err != nil {
		return utils.SysError(syscallName, err)
	}
	err = unix.SetsockoptInt(that.fd, sys.IPPROTO_TCP, sys.TCP_KEEPINTVL, timeout)
	if err != nil {
		return utils.SysError(syscallName, err)
	}
	err = unix.SetsockoptInt(that.fd, sys.IPPROTO_TCP, sys.TCP_KEEPIDLE, timeout)
	return utils.SysError(syscallName, err)
}
