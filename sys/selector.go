//go:build linux || darwin || freebsd

package sys

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/utils"
	"github.com/moqsien/gkpoll/utils/errs"
)

// errClosedUnregistered is returned when a closed descriptor is reregistered
// or deregistered: it cannot hold a registration any more.
var errClosedUnregistered = fmt.Errorf("%w: %w", errs.ErrNotRegistered, errs.ErrClosedFd)

type registration struct {
	token    iface.Token
	interest iface.EventSet
	opts     iface.PollOpt
}

// Selector owns one OS event queue (epoll or kqueue) and the table of
// descriptors registered with it. It is not safe for concurrent use.
type Selector struct {
	pollFd    int
	regs      map[int]registration
	eventList []nativeEvent
	size      int
	minSize   int
	maxSize   int
}

// NewSelector sizes the native event list between minSize and maxSize,
// starting at initSize. Zero values fall back to the package defaults.
func NewSelector(initSize, minSize, maxSize int) (*Selector, error) {
	if minSize <= 0 {
		minSize = MinPollSize
	}
	if maxSize < minSize {
		maxSize = MaxPollSize
		if maxSize < minSize {
			maxSize = minSize
		}
	}
	if initSize < minSize {
		initSize = minSize
	} else if initSize > maxSize {
		initSize = maxSize
	}
	pollFd, err := createPoll()
	if err != nil {
		return nil, err
	}
	return &Selector{
		pollFd:    pollFd,
		regs:      make(map[int]registration),
		eventList: make([]nativeEvent, initSize),
		size:      initSize,
		minSize:   minSize,
		maxSize:   maxSize,
	}, nil
}

func (that *Selector) GetFd() int {
	return that.pollFd
}

// Len is the number of registered descriptors.
func (that *Selector) Len() int {
	return len(that.regs)
}

// IsRegistered reports whether fd currently has a registration.
func (that *Selector) IsRegistered(fd int) bool {
	_, found := that.regs[fd]
	return found
}

func (that *Selector) check(fd int, opts iface.PollOpt) error {
	if that.pollFd < 0 {
		return errs.ErrPollClosed
	}
	if fd < 0 {
		return errs.ErrClosedFd
	}
	if !opts.Valid() {
		return errs.ErrInvalidPollOpt
	}
	return nil
}

// Register adds fd to the queue. On failure nothing is recorded.
func (that *Selector) Register(fd int, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	if err := that.check(fd, opts); err != nil {
		return err
	}
	reg := registration{token: token, interest: interest, opts: opts}
	if _, found := that.regs[fd]; found {
		// The entry may belong to a descriptor closed without Deregister
		// whose number was handed out again.
		if !that.reclaim(fd, reg) {
			return errs.ErrAlreadyRegistered
		}
		that.regs[fd] = reg
		return nil
	}
	if err := that.add(fd, reg); err != nil {
		return err
	}
	that.regs[fd] = reg
	return nil
}

// Reregister replaces the token, interest and mode of fd. It also re-arms a
// one-shot registration that has fired.
func (that *Selector) Reregister(fd int, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	if fd < 0 && that.pollFd >= 0 {
		return errClosedUnregistered
	}
	if err := that.check(fd, opts); err != nil {
		return err
	}
	old, found := that.regs[fd]
	if !found {
		return errs.ErrNotRegistered
	}
	reg := registration{token: token, interest: interest, opts: opts}
	if err := that.mod(fd, old, reg); err != nil {
		return err
	}
	that.regs[fd] = reg
	return nil
}

// Deregister removes fd. The table entry is dropped even when the kernel
// refuses, e.g. because fd was already closed.
func (that *Selector) Deregister(fd int) error {
	if that.pollFd < 0 {
		return errs.ErrPollClosed
	}
	if fd < 0 {
		return errClosedUnregistered
	}
	reg, found := that.regs[fd]
	if !found {
		return errs.ErrNotRegistered
	}
	delete(that.regs, fd)
	return that.del(fd, reg)
}

// Select waits up to timeoutMs milliseconds (negative blocks forever, zero
// returns immediately) and overwrites events with what became ready.
// A wait interrupted by a signal is resumed with the remaining time.
func (that *Selector) Select(events *Events, timeoutMs int) error {
	if that.pollFd < 0 {
		return errs.ErrPollClosed
	}
	events.reset()

	var deadline time.Time
	if timeoutMs > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}
	for {
		n, err := that.wait(timeoutMs)
		if err == nil {
			that.fill(events, n)
			that.resize(n)
			return nil
		}
		if err != unix.EINTR {
			return utils.SysError(waitSyscall, err)
		}
		if timeoutMs > 0 {
			remaining := time.Until(deadline)
			if remaining <= 0 {
				return nil
			}
			timeoutMs = int((remaining + time.Millisecond - 1) / time.Millisecond)
		}
	}
}

func (that *Selector) resize(n int) {
	if n == that.size {
		that.ExpandEventList()
	} else if n < that.size>>1 {
		that.ShrinkEventList()
	}
}

func (that *Selector) ExpandEventList() {
	if newSize := that.size << 1; newSize <= that.maxSize {
		that.size = newSize
		that.eventList = make([]nativeEvent, newSize)
	}
}

func (that *Selector) ShrinkEventList() {
	if newSize := that.size >> 1; newSize >= that.minSize {
		that.size = newSize
		that.eventList = make([]nativeEvent, newSize)
	}
}

// Close releases the OS queue. Registered descriptors are not closed.
func (that *Selector) Close() error {
	if that.pollFd < 0 {
		return errs.ErrPollClosed
	}
	err := CloseFd(that.pollFd)
	that.pollFd = -1
	clear(that.regs)
	return err
}
