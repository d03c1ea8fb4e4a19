package poll

import (
	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/sys"
)

// Evented is implemented by every resource that can be watched by a Poll.
// Implementations forward to the Selector with their own descriptor.
type Evented interface {
	Register(sel *sys.Selector, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error
	Reregister(sel *sys.Selector, token iface.Token, interest iface.EventSet, opts iface.PollOpt) error
	Deregister(sel *sys.Selector) error
}
