//go:build darwin || freebsd

package sys

import (
	"errors"
	"time"

	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/utils"
)

type nativeEvent = unix.Kevent_t

const waitSyscall = "kevent"

func createPoll() (int, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return -1, utils.SysError("kqueue", err)
	}
	// kqueues are never inherited by fork; this only covers exec without fork.
	unix.CloseOnExec(kq)
	return kq, nil
}

// Hup interest has no filter of its own: EV_EOF comes back on the read and
// write filters.
func changeList(fd int, interest iface.EventSet, flags int) []unix.Kevent_t {
	changes := make([]unix.Kevent_t, 0, 2)
	if interest.IsReadable() {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_READ, flags)
		changes = append(changes, ev)
	}
	if interest.IsWritable() {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_WRITE, flags)
		changes = append(changes, ev)
	}
	return changes
}

func addFlags(opts iface.PollOpt) int {
	flags := unix.EV_ADD | unix.EV_ENABLE
	if opts.IsEdge() {
		flags |= unix.EV_CLEAR
	}
	if opts.IsOneshot() {
		flags |= unix.EV_ONESHOT
	}
	return flags
}

func (that *Selector) kevent(changes []unix.Kevent_t, name string) error {
	if len(changes) == 0 {
		return nil
	}
	for {
		_, err := unix.Kevent(that.pollFd, changes, nil, nil)
		if err != unix.EINTR {
			return utils.SysError(name, err)
		}
	}
}

// deleteFilters removes filters one at a time: a one-shot filter that has
// fired is already gone and reports ENOENT.
func (that *Selector) deleteFilters(fd int, interest iface.EventSet) error {
	var firstErr error
	for _, ev := range changeList(fd, interest, unix.EV_DELETE) {
		err := that.kevent([]unix.Kevent_t{ev}, "kevent_del")
		if err != nil && !errors.Is(err, unix.ENOENT) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (that *Selector) add(fd int, reg registration) error {
	if err := that.kevent(changeList(fd, reg.interest, addFlags(reg.opts)), "kevent_add"); err != nil {
		_ = that.deleteFilters(fd, reg.interest)
		return err
	}
	return nil
}

// reclaim never succeeds: EV_ADD on a live knote is accepted, so kqueue
// cannot tell a stale entry from a live one.
func (that *Selector) reclaim(int, registration) bool {
	return false
}

// mod deletes before adding because EV_ADD on a live knote keeps its
// original EV_CLEAR and EV_ONESHOT flags.
func (that *Selector) mod(fd int, old, reg registration) error {
	if err := that.deleteFilters(fd, old.interest); err != nil {
		return err
	}
	if err := that.kevent(changeList(fd, reg.interest, addFlags(reg.opts)), "kevent_mod"); err != nil {
		_ = that.kevent(changeList(fd, old.interest, addFlags(old.opts)), "kevent_mod")
		return err
	}
	return nil
}

func (that *Selector) del(fd int, reg registration) error {
	return that.deleteFilters(fd, reg.interest)
}

func (that *Selector) wait(timeoutMs int) (int, error) {
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * int64(time.Millisecond))
		ts = &t
	}
	return unix.Kevent(that.pollFd, nil, that.eventList, ts)
}

func fromKevent(ev *unix.Kevent_t) (events iface.EventSet) {
	switch ev.Filter {
	case unix.EVFILT_READ:
		events |= iface.Readable
	case unix.EVFILT_WRITE:
		events |= iface.Writable
	}
	if ev.Flags&unix.EV_ERROR != 0 {
		events |= iface.Error
	}
	if ev.Flags&unix.EV_EOF != 0 {
		events |= iface.Hup
		if ev.Fflags != 0 {
			events |= iface.Error
		}
	}
	return
}

func (that *Selector) fill(events *Events, n int) {
	for i := 0; i < n; i++ {
		ev := &that.eventList[i]
		fd := int(ev.Ident)
		reg, found := that.regs[fd]
		if !found {
			continue
		}
		events.push(fd, reg.token, fromKevent(ev))
	}
}
