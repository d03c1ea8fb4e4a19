//go:build linux || darwin || freebsd

package poll

import (
	"sync/atomic"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/sys"
	"github.com/moqsien/gkpoll/utils/errs"
	"github.com/moqsien/gkpoll/utils/queue"
)

// Channel carries values from any goroutine into the goroutine that owns a
// Poll. It becomes readable when values are waiting; the owner then calls
// Recv until it reports WouldBlock.
type Channel[T any] struct {
	queue    *queue.Queue[T]
	waker    *Waker
	toWakeup int32
	closed   atomic.Bool
}

func NewChannel[T any]() (*Channel[T], error) {
	w, err := NewWaker()
	if err != nil {
		return nil, err
	}
	return &Channel[T]{queue: queue.New[T](), waker: w}, nil
}

func (that *Channel[T]) Send(v T) error {
	if that.closed.Load() {
		return errs.ErrChannelClosed
	}
	that.queue.Enqueue(v)
	if atomic.CompareAndSwapInt32(&that.toWakeup, 0, 1) {
		return that.waker.Wake()
	}
	return nil
}

// Recv must only be called by the polling goroutine.
func (that *Channel[T]) Recv() (iface.NonBlock[T], error) {
	if v, ok := that.queue.Dequeue(); ok {
		return iface.Ready(v), nil
	}
	// Reset the wake-up before looking again, so a Send racing with us
	// either lands in the second Dequeue or triggers a fresh wake-up.
	atomic.StoreInt32(&that.toWakeup, 0)
	if err := that.waker.Drain(); err != nil {
		return iface.WouldBlock[T](), err
	}
	if v, ok := that.queue.Dequeue(); ok {
		return iface.Ready(v), nil
	}
	return iface.WouldBlock[T](), nil
}

func (that *Channel[T]) Len() int {
	return that.queue.Len()
}

func (that *Channel[T]) Register(sel *sys.Selector, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	return that.waker.Register(sel, token, interest, opts)
}

func (that *Channel[T]) Reregister(sel *sys.Selector, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	return that.waker.Reregister(sel, token, interest, opts)
}

func (that *Channel[T]) Deregister(sel *sys.Selector) error {
	return that.waker.Deregister(sel)
}

// Close keeps values already queued; Recv still returns them.
func (that *Channel[T]) Close() error {
	if !that.closed.CompareAndSwap(false, true) {
		return errs.ErrChannelClosed
	}
	return that.waker.Close()
}
