//go:build linux || darwin || freebsd

package sys

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
)

func Bind(fd int, sa unix.Sockaddr) error {
	return utils.SysError("bind", unix.Bind(fd, sa))
}

func Listen(fd, backlog int) error {
	return utils.SysError("listen", unix.Listen(fd, backlog))
}

// Connect reports true when the connection is established on return and
// false when the kernel is still completing it in the background; the
// descriptor turns writable once it is done.
func Connect(fd int, sa unix.Sockaddr) (bool, error) {
	switch err := unix.Connect(fd, sa); err {
	case nil, unix.EISCONN:
		return true, nil
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		return false, nil
	default:
		return false, utils.SysError("connect", err)
	}
}

func Getsockname(fd int) (unix.Sockaddr, error) {
	sa, err := unix.Getsockname(fd)
	return sa, utils.SysError("getsockname", err)
}

func Getpeername(fd int) (unix.Sockaddr, error) {
	sa, err := unix.Getpeername(fd)
	return sa, utils.SysError("getpeername", err)
}

// Sendto sends one datagram; a datagram is never partially written.
func Sendto(fd int, p []byte, to unix.Sockaddr) (int, error) {
	for {
		err := unix.Sendto(fd, p, 0, to)
		switch err {
		case nil:
			return len(p), nil
		case unix.EINTR:
			continue
		default:
			return 0, utils.SysError("sendto", err)
		}
	}
}

func Recvfrom(fd int, p []byte) (int, unix.Sockaddr, error) {
	for {
		n, from, err := unix.Recvfrom(fd, p, 0)
		switch err {
		case nil:
			return n, from, nil
		case unix.EINTR:
			continue
		default:
			return 0, nil, utils.SysError("recvfrom", err)
		}
	}
}

func Shutdown(fd, how int) error {
	return utils.SysError("shutdown", unix.Shutdown(fd, how))
}

// SocketError fetches and clears SO_ERROR.
func SocketError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return utils.SysError("getsockopt", err)
	}
	if errno != 0 {
		return utils.SysError("connect", syscall.Errno(errno))
	}
	return nil
}

// IsWouldBlock matches both spellings of EAGAIN, wrapped or not.
func IsWouldBlock(err error) bool {
	return errorIs(err, unix.EAGAIN) || errorIs(err, unix.EWOULDBLOCK)
}
