//go:build linux || darwin || freebsd

package sys

import (
	"encoding/binary"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
)

var wakeBytes = func() []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, 1)
	return b
}()

// Trigger makes the read end of a wake descriptor readable. A full pipe or
// saturated counter already means "readable", so EAGAIN is not an error.
func Trigger(wfd int) error {
	for {
		_, err := unix.Write(wfd, wakeBytes)
		switch err {
		case nil, unix.EAGAIN:
			return nil
		case unix.EINTR:
			continue
		default:
			return utils.SysError("write", err)
		}
	}
}

// Drain consumes every pending wake-up.
func Drain(rfd int) error {
	var buf [64]byte
	for {
		n, err := unix.Read(rfd, buf[:])
		switch err {
		case nil:
			if n == 0 {
				return nil
			}
		case unix.EINTR:
		case unix.EAGAIN:
			return nil
		default:
			return utils.SysError("read", err)
		}
	}
}
