//go:build linux || darwin || freebsd

package socket

import (
	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/sys"
)

func (that *Socket) Register(sel *sys.Selector, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	if err := sel.Register(that.GetFd(), token, interest, opts); err != nil {
		return err
	}
	if that.selectors == nil {
		that.selectors = make(map[*sys.Selector]struct{}, 1)
	}
	that.selectors[sel] = struct{}{}
	return nil
}

func (that *Socket) Reregister(sel *sys.Selector, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error {
	return sel.Reregister(that.GetFd(), token, interest, opts)
}

func (that *Socket) Deregister(sel *sys.Selector) error {
	err := sel.Deregister(that.GetFd())
	if !that.closed.Load() {
		delete(that.selectors, sel)
	}
	return err
}
