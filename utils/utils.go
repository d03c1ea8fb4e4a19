package utils

import "os"

// SysError wraps err with the name of the failing syscall, keeping the errno
// reachable through errors.Is. A nil err stays nil.
func SysError(name string, err error) error {
	return os.NewSyscallError(name, err)
}
