//go:build linux || darwin || freebsd

/*
Package socket wraps a raw non-blocking descriptor with the socket verbs and
options a reactor needs. Every operation that could block reports
iface.NonBlock instead.
*/
package socket

import (
	"io"
	"net"
	"runtime"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/sys"
	"github.com/moqsien/gkpoll/utils/errs"
)

// Socket is the single owner of one descriptor.
type Socket struct {
	fd     int
	family int
	sotype int
	closed atomic.Bool
	// selectors this socket is registered with, owned by the polling goroutine
	selectors map[*sys.Selector]struct{}
}

func newSocket(fd, family, sotype int) *Socket {
	s := &Socket{fd: fd, family: family, sotype: sotype}
	runtime.SetFinalizer(s, (*Socket).finalize)
	return s
}

// finalize runs on the finalizer goroutine and must not touch selectors.
func (that *Socket) finalize() {
	if that.closed.CompareAndSwap(false, true) {
		_ = sys.CloseFd(that.fd)
	}
}

// New creates a non-blocking, close-on-exec socket.
func New(family, sotype, proto int) (*Socket, error) {
	fd, err := sys.Socket(family, sotype, proto)
	if err != nil {
		return nil, err
	}
	return newSocket(fd, family, sotype), nil
}

// Pair returns two connected sockets, mostly useful for tests and wake-ups.
func Pair(family, sotype int) (*Socket, *Socket, error) {
	fds, err := sys.Socketpair(family, sotype, 0)
	if err != nil {
		return nil, nil, err
	}
	return newSocket(fds[0], family, sotype), newSocket(fds[1], family, sotype), nil
}

// GetFd returns -1 once the socket is closed.
func (that *Socket) GetFd() int {
	if that.closed.Load() {
		return -1
	}
	return that.fd
}

func (that *Socket) Family() int { return that.family }

func (that *Socket) Type() int { return that.sotype }

func (that *Socket) IsClosed() bool { return that.closed.Load() }

// Close deregisters the socket from every selector it is still registered
// with, then closes the descriptor. A second Close returns errs.ErrClosedFd.
func (that *Socket) Close() error {
	if !that.closed.CompareAndSwap(false, true) {
		return errs.ErrClosedFd
	}
	runtime.SetFinalizer(that, nil)
	for sel := range that.selectors {
		_ = sel.Deregister(that.fd)
	}
	that.selectors = nil
	return sys.CloseFd(that.fd)
}

func (that *Socket) Bind(addr net.Addr) error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	sa, err := AddrToSockaddr(that.family, addr)
	if err != nil {
		return err
	}
	return sys.Bind(that.fd, sa)
}

func (that *Socket) Listen(backlog int) error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	if backlog <= 0 {
		backlog = unix.SOMAXCONN
	}
	return sys.Listen(that.fd, backlog)
}

// Connect returns false while the connection is still in progress. Wait for
// Writable, then call TakeError (or Connect again) to learn the outcome.
func (that *Socket) Connect(addr net.Addr) (bool, error) {
	if that.closed.Load() {
		return false, errs.ErrClosedFd
	}
	sa, err := AddrToSockaddr(that.family, addr)
	if err != nil {
		return false, err
	}
	return sys.Connect(that.fd, sa)
}

// TakeError returns and clears the pending socket error (SO_ERROR).
func (that *Socket) TakeError() error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return sys.SocketError(that.fd)
}

// Accept hands back a socket that is itself non-blocking and close-on-exec.
func (that *Socket) Accept() (iface.NonBlock[*Socket], net.Addr, error) {
	if that.closed.Load() {
		return iface.WouldBlock[*Socket](), nil, errs.ErrClosedFd
	}
	nfd, sa, err := sys.Accept(that.fd)
	if err != nil {
		if sys.IsWouldBlock(err) {
			return iface.WouldBlock[*Socket](), nil, nil
		}
		return iface.WouldBlock[*Socket](), nil, err
	}
	return iface.Ready(newSocket(nfd, that.family, that.sotype)), SockaddrToAddr(sa, that.sotype), nil
}

// Read returns io.EOF when a stream peer has shut down its side.
func (that *Socket) Read(p []byte) (iface.NonBlock[int], error) {
	if that.closed.Load() {
		return iface.WouldBlock[int](), errs.ErrClosedFd
	}
	n, err := sys.Read(that.fd, p)
	if err != nil {
		if sys.IsWouldBlock(err) {
			return iface.WouldBlock[int](), nil
		}
		return iface.WouldBlock[int](), err
	}
	if n == 0 && len(p) > 0 && that.sotype == unix.SOCK_STREAM {
		return iface.Ready(0), io.EOF
	}
	return iface.Ready(n), nil
}

func (that *Socket) Write(p []byte) (iface.NonBlock[int], error) {
	if that.closed.Load() {
		return iface.WouldBlock[int](), errs.ErrClosedFd
	}
	n, err := sys.Write(that.fd, p)
	if err != nil {
		if sys.IsWouldBlock(err) {
			return iface.WouldBlock[int](), nil
		}
		return iface.WouldBlock[int](), err
	}
	return iface.Ready(n), nil
}

// Writev writes at most sys.IovMax slices in one syscall.
func (that *Socket) Writev(iovs [][]byte) (iface.NonBlock[int], error) {
	if that.closed.Load() {
		return iface.WouldBlock[int](), errs.ErrClosedFd
	}
	if len(iovs) == 0 {
		return iface.Ready(0), nil
	}
	n, err := sys.Writev(that.fd, iovs)
	if err != nil {
		if sys.IsWouldBlock(err) {
			return iface.WouldBlock[int](), nil
		}
		return iface.WouldBlock[int](), err
	}
	return iface.Ready(n), nil
}

// SendTo sends one datagram to addr on an unconnected socket.
func (that *Socket) SendTo(p []byte, addr net.Addr) (iface.NonBlock[int], error) {
	if that.closed.Load() {
		return iface.WouldBlock[int](), errs.ErrClosedFd
	}
	sa, err := AddrToSockaddr(that.family, addr)
	if err != nil {
		return iface.WouldBlock[int](), err
	}
	n, err := sys.Sendto(that.fd, p, sa)
	if err != nil {
		if sys.IsWouldBlock(err) {
			return iface.WouldBlock[int](), nil
		}
		return iface.WouldBlock[int](), err
	}
	return iface.Ready(n), nil
}

// RecvFrom receives one datagram and its source address.
func (that *Socket) RecvFrom(p []byte) (iface.NonBlock[int], net.Addr, error) {
	if that.closed.Load() {
		return iface.WouldBlock[int](), nil, errs.ErrClosedFd
	}
	n, sa, err := sys.Recvfrom(that.fd, p)
	if err != nil {
		if sys.IsWouldBlock(err) {
			return iface.WouldBlock[int](), nil, nil
		}
		return iface.WouldBlock[int](), nil, err
	}
	return iface.Ready(n), SockaddrToAddr(sa, that.sotype), nil
}

// Shutdown takes unix.SHUT_RD, unix.SHUT_WR or unix.SHUT_RDWR.
func (that *Socket) Shutdown(how int) error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return sys.Shutdown(that.fd, how)
}

func (that *Socket) LocalAddr() (net.Addr, error) {
	if that.closed.Load() {
		return nil, errs.ErrClosedFd
	}
	sa, err := sys.Getsockname(that.fd)
	if err != nil {
		return nil, err
	}
	return SockaddrToAddr(sa, that.sotype), nil
}

func (that *Socket) PeerAddr() (net.Addr, error) {
	if that.closed.Load() {
		return nil, errs.ErrClosedFd
	}
	sa, err := sys.Getpeername(that.fd)
	if err != nil {
		return nil, err
	}
	return SockaddrToAddr(sa, that.sotype), nil
}
