//go:build linux || darwin || freebsd

package sys

import (
	"errors"
	"syscall"
)

func errorIs(err error, errno syscall.Errno) bool {
	return err != nil && errors.Is(err, errno)
}
