//go:build linux || darwin || freebsd

/*
Package poll is the entry point of gkpoll: a Poll owns one Selector and the
Events buffer it fills.

	p, _ := poll.New()
	ln, _ := socket.Listen("tcp", "127.0.0.1:9000")
	_ = p.Register(ln, 0, iface.Readable, iface.Level)
	for {
		n, err := p.Poll(-1)
		...
		for i := 0; i < n; i++ {
			ev := p.Event(i)
			...
		}
	}

A Poll is owned by a single goroutine. Other goroutines may run their own
Poll over other descriptors.
*/
package poll

import (
	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/sys"
)

const DefaultTimeout = -1

type Poll struct {
	selector *sys.Selector
	events   *sys.Events
}

func New(opt ...*Options) (p *Poll, err error) {
	o := DefaultOptions()
	if len(opt) > 0 && opt[0] != nil {
		o = opt[0]
	}
	p = new(Poll)
	if p.selector, err = sys.NewSelector(o.InitEvents, o.MinEvents, o.MaxEvents); err != nil {
		return nil, err
	}
	p.events = sys.NewEvents(o.InitEvents)
	return
}

func (that *Poll) Register(io Evented, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	return io.Register(that.selector, token, interest, opts)
}

func (that *Poll) Reregister(io Evented, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	return io.Reregister(that.selector, token, interest, opts)
}

func (that *Poll) Deregister(io Evented) error {
	return io.Deregister(that.selector)
}

// Poll blocks for up to timeoutMs milliseconds (DefaultTimeout blocks until
// something is ready) and returns how many events are available through
// Event. Zero with a nil error means the timeout elapsed.
func (that *Poll) Poll(timeoutMs int) (int, error) {
	if err := that.selector.Select(that.events, timeoutMs); err != nil {
		return 0, err
	}
	return that.events.Len(), nil
}

// Event panics when idx is not below the count returned by the last Poll.
func (that *Poll) Event(idx int) iface.IoEvent {
	return that.events.Get(idx)
}

func (that *Poll) Events() *sys.Events {
	return that.events
}

// IsRegistered reports whether the descriptor behind io is watched.
func (that *Poll) IsRegistered(io iface.IFd) bool {
	return that.selector.IsRegistered(io.GetFd())
}

// Selector is exposed for resources implementing Evented outside gkpoll.
func (that *Poll) Selector() *sys.Selector {
	return that.selector
}

// Close releases the OS queue. Registered resources stay open.
func (that *Poll) Close() error {
	return that.selector.Close()
}

func (that *Poll) String() string {
	return "Poll"
}
