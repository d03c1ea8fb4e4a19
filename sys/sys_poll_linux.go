//go:build linux

package sys

import (
	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/utils"
)

type nativeEvent = unix.EpollEvent

const waitSyscall = "epoll_wait"

func createPoll() (int, error) {
	pollFd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return -1, utils.SysError("epoll_create1", err)
	}
	return pollFd, nil
}

func epollFdHandler(pollFd, fd, ctlAction int, evs uint32) (err error) {
	var event *unix.EpollEvent
	if ctlAction != unix.EPOLL_CTL_DEL {
		event = &unix.EpollEvent{Fd: int32(fd), Events: evs}
	}
	err = unix.EpollCtl(pollFd, ctlAction, fd, event)
	var eSysName string
	switch ctlAction {
	case unix.EPOLL_CTL_ADD:
		eSysName = "epoll_ctl_add"
	case unix.EPOLL_CTL_MOD:
		eSysName = "epoll_ctl_mod"
	case unix.EPOLL_CTL_DEL:
		eSysName = "epoll_ctl_del"
	default:
	}
	return utils.SysError(eSysName, err)
}

func toEpoll(interest iface.EventSet, opts iface.PollOpt) uint32 {
	var evs uint32
	if interest.IsReadable() {
		evs |= unix.EPOLLIN
		if opts.IsUrgent() {
			evs |= unix.EPOLLPRI
		}
	}
	if interest.IsWritable() {
		evs |= unix.EPOLLOUT
	}
	if interest.IsHup() {
		evs |= unix.EPOLLRDHUP
	}
	if opts.IsEdge() {
		evs |= unix.EPOLLET
	}
	if opts.IsOneshot() {
		evs |= unix.EPOLLONESHOT
	}
	return evs
}

func fromEpoll(evs uint32) (events iface.EventSet) {
	if evs&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		events |= iface.Readable
	}
	if evs&unix.EPOLLOUT != 0 {
		events |= iface.Writable
	}
	if evs&unix.EPOLLERR != 0 {
		events |= iface.Error
	}
	if evs&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		events |= iface.Hup
	}
	return
}

func (that *Selector) add(fd int, reg registration) error {
	return epollFdHandler(that.pollFd, fd, unix.EPOLL_CTL_ADD, toEpoll(reg.interest, reg.opts))
}

// reclaim succeeds only when the kernel no longer knows fd, i.e. the old
// descriptor was closed and the number reused.
func (that *Selector) reclaim(fd int, reg registration) bool {
	return that.add(fd, reg) == nil
}

func (that *Selector) mod(fd int, _, reg registration) error {
	return epollFdHandler(that.pollFd, fd, unix.EPOLL_CTL_MOD, toEpoll(reg.interest, reg.opts))
}

func (that *Selector) del(fd int, _ registration) error {
	return epollFdHandler(that.pollFd, fd, unix.EPOLL_CTL_DEL, 0)
}

func (that *Selector) wait(timeoutMs int) (int, error) {
	if timeoutMs < 0 {
		timeoutMs = -1
	}
	return unix.EpollWait(that.pollFd, that.eventList, timeoutMs)
}

func (that *Selector) fill(events *Events, n int) {
	for i := 0; i < n; i++ {
		ev := &that.eventList[i]
		fd := int(ev.Fd)
		reg, found := that.regs[fd]
		if !found {
			continue
		}
		events.push(fd, reg.token, fromEpoll(ev.Events))
	}
}
