//go:build darwin

package sys

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
)

// Darwin has no SOCK_NONBLOCK/SOCK_CLOEXEC. Holding ForkLock keeps any
// fork+exec in this process from inheriting the descriptor before
// close-on-exec is set.

func setFlags(fd int) error {
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		return utils.SysError("setnonblock", err)
	}
	return nil
}

func Socket(family, sotype, proto int) (int, error) {
	syscall.ForkLock.RLock()
	fd, err := unix.Socket(family, sotype, proto)
	if err != nil {
		syscall.ForkLock.RUnlock()
		return -1, utils.SysError("socket", err)
	}
	err = setFlags(fd)
	syscall.ForkLock.RUnlock()
	if err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func Accept(fd int) (int, unix.Sockaddr, error) {
	for {
		syscall.ForkLock.RLock()
		nfd, sa, err := unix.Accept(fd)
		if err == nil {
			err = setFlags(nfd)
			syscall.ForkLock.RUnlock()
			if err != nil {
				_ = unix.Close(nfd)
				return -1, nil, err
			}
			return nfd, sa, nil
		}
		syscall.ForkLock.RUnlock()
		switch err {
		case unix.EINTR, unix.ECONNABORTED:
			continue
		default:
			return -1, nil, utils.SysError("accept", err)
		}
	}
}

func Socketpair(family, sotype, proto int) (fds [2]int, err error) {
	syscall.ForkLock.RLock()
	fds, err = unix.Socketpair(family, sotype, proto)
	if err != nil {
		syscall.ForkLock.RUnlock()
		return [2]int{-1, -1}, utils.SysError("socketpair", err)
	}
	err = setFlags(fds[0])
	if err == nil {
		err = setFlags(fds[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
		return [2]int{-1, -1}, err
	}
	return
}
