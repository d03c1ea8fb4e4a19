//go:build linux || darwin || freebsd

package poll

import (
	"sync/atomic"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/sys"
	"github.com/moqsien/gkpoll/utils/errs"
)

// Waker lets any goroutine interrupt the Poll it is registered with. It is
// readable until Drain is called; interest passed at registration is
// always narrowed to Readable.
type Waker struct {
	rfd    int
	wfd    int
	closed atomic.Bool
}

func NewWaker() (*Waker, error) {
	rfd, wfd, err := sys.NewWakeFd()
	if err != nil {
		return nil, err
	}
	return &Waker{rfd: rfd, wfd: wfd}, nil
}

func (that *Waker) GetFd() int {
	if that.closed.Load() {
		return -1
	}
	return that.rfd
}

// Wake is safe to call from any goroutine.
func (that *Waker) Wake() error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return sys.Trigger(that.wfd)
}

// Drain must be called by the polling goroutine after the waker fired,
// otherwise a level-triggered registration keeps reporting it.
func (that *Waker) Drain() error {
	if that.closed.Load() {
		return errs.ErrClosedFd
	}
	return sys.Drain(that.rfd)
}

func (that *Waker) Register(sel *sys.Selector, token iface.Token, _ iface.EventSet, opts iface.PollOpt) error {
	return sel.Register(that.GetFd(), token, iface.Readable, opts)
}

func (that *Waker) Reregister(sel *sys.Selector, token iface.Token, _ iface.EventSet, opts iface.PollOpt) error {
	return sel.Reregister(that.GetFd(), token, iface.Readable, opts)
}

func (that *Waker) Deregister(sel *sys.Selector) error {
	return sel.Deregister(that.GetFd())
}

func (that *Waker) Close() error {
	if !that.closed.CompareAndSwap(false, true) {
		return errs.ErrClosedFd
	}
	err := sys.CloseFd(that.rfd)
	if that.wfd != that.rfd {
		if werr := sys.CloseFd(that.wfd); err == nil {
			err = werr
		}
	}
	return err
}
