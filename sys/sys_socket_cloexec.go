//go:build linux || freebsd

package sys

import (
	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
)

// Socket creates a descriptor that is non-blocking and close-on-exec from
// the first instant.
func Socket(family, sotype, proto int) (int, error) {
	fd, err := unix.Socket(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return -1, utils.SysError("socket", err)
	}
	return fd, nil
}

// Accept returns an accepted descriptor with the same guarantees as Socket.
func Accept(fd int) (int, unix.Sockaddr, error) {
	for {
		nfd, sa, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
			return nfd, sa, nil
		case unix.EINTR, unix.ECONNABORTED:
			continue
		default:
			return -1, nil, utils.SysError("accept4", err)
		}
	}
}

func Socketpair(family, sotype, proto int) (fds [2]int, err error) {
	fds, err = unix.Socketpair(family, sotype|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, proto)
	if err != nil {
		return [2]int{-1, -1}, utils.SysError("socketpair", err)
	}
	return
}
