//go:build darwin || freebsd

package sys

import (
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
)

// NewWakeFd returns the read and write ends of a non-blocking pipe.
func NewWakeFd() (rfd, wfd int, err error) {
	var p [2]int
	syscall.ForkLock.RLock()
	err = unix.Pipe(p[:])
	if err == nil {
		unix.CloseOnExec(p[0])
		unix.CloseOnExec(p[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		return -1, -1, utils.SysError("pipe", err)
	}
	for _, fd := range p {
		if err = unix.SetNonblock(fd, true); err != nil {
			_ = unix.Close(p[0])
			_ = unix.Close(p[1])
			return -1, -1, utils.SysError("setnonblock", err)
		}
	}
	return p[0], p[1], nil
}
