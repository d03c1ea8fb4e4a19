//go:build linux

package sys

import (
	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
)

// NewWakeFd returns an eventfd; both ends are the same descriptor.
func NewWakeFd() (rfd, wfd int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		return -1, -1, utils.SysError("eventfd", err)
	}
	return fd, fd, nil
}
