package iface

// IFd is implemented by anything backed by a raw descriptor.
type IFd interface {
	GetFd() int
}
