//go:build linux || darwin || freebsd

package sys

import (
	"fmt"

	"github.com/moqsien/gkpoll/iface"
)

// Events is the buffer filled by one Selector.Select call. Its content is
// overwritten by the next call.
type Events struct {
	list  []iface.IoEvent
	index map[int]int // fd -> position in list, for merging per-filter results
}

func NewEvents(capacity ...int) *Events {
	c := InitPollSize
	if len(capacity) > 0 && capacity[0] > 0 {
		c = capacity[0]
	}
	return &Events{
		list:  make([]iface.IoEvent, 0, c),
		index: make(map[int]int, c),
	}
}

func (that *Events) Len() int {
	return len(that.list)
}

func (that *Events) IsEmpty() bool {
	return len(that.list) == 0
}

// Get panics when idx is not below Len.
func (that *Events) Get(idx int) iface.IoEvent {
	if idx < 0 || idx >= len(that.list) {
		panic(fmt.Sprintf("sys: event index out of range [%d] with length %d", idx, len(that.list)))
	}
	return that.list[idx]
}

// Iterate stops as soon as f returns false.
func (that *Events) Iterate(f func(idx int, ev iface.IoEvent) bool) {
	for i, ev := range that.list {
		if !f(i, ev) {
			return
		}
	}
}

func (that *Events) reset() {
	that.list = that.list[:0]
	clear(that.index)
}

func (that *Events) push(fd int, token iface.Token, events iface.EventSet) {
	if events == iface.None {
		return
	}
	if i, found := that.index[fd]; found {
		that.list[i].Events |= events
		return
	}
	that.index[fd] = len(that.list)
	that.list = append(that.list, iface.IoEvent{Token: token, Events: events})
}
