//go:build linux || darwin || freebsd

package sys

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/utils"
)

const (
	MaxPollSize         = 1024
	MinPollSize         = 32
	InitPollSize        = 128
	DefaultTCPKeepAlive = 15 // Seconds
	IovMax              = 1024
)

func CloseFd(fd int) error {
	return utils.SysError("close", unix.Close(fd))
}

var _zero uintptr

func bytes2iovec(bs [][]byte) []syscall.Iovec {
	iovecs := make([]syscall.Iovec, len(bs))
	for i, b := range bs {
		iovecs[i].SetLen(len(b))
		if len(b) > 0 {
			iovecs[i].Base = &b[0]
		} else {
			iovecs[i].Base = (*byte)(unsafe.Pointer(&_zero))
		}
	}
	return iovecs
}

func writev(fd int, iovs []syscall.Iovec) (n int, err error) {
	var _p0 unsafe.Pointer
	if len(iovs) > 0 {
		_p0 = unsafe.Pointer(&iovs[0])
	} else {
		_p0 = unsafe.Pointer(&_zero)
	}
	r0, _, e1 := syscall.Syscall(syscall.SYS_WRITEV, uintptr(fd), uintptr(_p0), uintptr(len(iovs)))
	n = int(r0)
	if e1 != 0 {
		return 0, e1
	}
	return
}

func readv(fd int, iovs []syscall.Iovec) (n int, err error) {
	var _p0 unsafe.Pointer
	if len(iovs) > 0 {
		_p0 = unsafe.Pointer(&iovs[0])
	} else {
		_p0 = unsafe.Pointer(&_zero)
	}
	r0, _, e1 := syscall.Syscall(syscall.SYS_READV, uintptr(fd), uintptr(_p0), uintptr(len(iovs)))
	n = int(r0)
	if e1 != 0 {
		return 0, e1
	}
	return
}

// Writev writes at most IovMax slices in one call.
func Writev(fd int, iovs [][]byte) (n int, err error) {
	if len(iovs) > IovMax {
		iovs = iovs[:IovMax]
	}
	iovecs := bytes2iovec(iovs)
	for {
		n, err = writev(fd, iovecs)
		if err != unix.EINTR {
			return n, utils.SysError("writev", err)
		}
	}
}

func Readv(fd int, iovs [][]byte) (n int, err error) {
	if len(iovs) > IovMax {
		iovs = iovs[:IovMax]
	}
	iovecs := bytes2iovec(iovs)
	for {
		n, err = readv(fd, iovecs)
		if err != unix.EINTR {
			return n, utils.SysError("readv", err)
		}
	}
}

func Write(fd int, p []byte) (n int, err error) {
	for {
		n, err = unix.Write(fd, p)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return 0, utils.SysError("write", err)
	}
	return n, nil
}

func Read(fd int, p []byte) (n int, err error) {
	for {
		n, err = unix.Read(fd, p)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		return 0, utils.SysError("read", err)
	}
	return n, nil
}
