//go:build linux || darwin || freebsd

package eloop

import (
	"errors"
	"net"
	"sync"

	"github.com/moqsien/processes/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/moqsien/gkpoll/balancer"
	"github.com/moqsien/gkpoll/socket"
	"github.com/moqsien/gkpoll/utils/errs"
)

// Group runs one accepting loop and NumOfLoops connection loops, each on a
// goroutine taken from an ants pool.
type Group struct {
	opts     *Options
	handler  Handler
	main     *Eloop
	loops    []*Eloop
	balancer balancer.Balancer[*Eloop]
	listener *socket.Socket
	pool     *ants.Pool
	counters *counters
	wg       sync.WaitGroup
	once     sync.Once
}

func New(h Handler, opt ...*Options) *Group {
	o := DefaultOptions()
	if len(opt) > 0 && opt[0] != nil {
		o = opt[0]
	}
	o.normalize()
	return &Group{
		opts:     o,
		handler:  h,
		counters: new(counters),
		balancer: balancer.New[*Eloop](o.LoadBalancer),
	}
}

// Start listens on address and hands every loop to the pool.
func (that *Group) Start(network, address string) (err error) {
	that.listener, err = socket.Listen(network, address, &socket.Options{
		ReuseAddr:         that.opts.ReuseAddr,
		ReusePort:         that.opts.ReusePort,
		Backlog:           that.opts.Backlog,
		SocketReadBuffer:  that.opts.SocketReadBuffer,
		SocketWriteBuffer: that.opts.SocketWriteBuffer,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			that.abort()
		}
	}()

	if that.pool, err = ants.NewPool(that.opts.NumOfLoops + 1); err != nil {
		return err
	}
	for i := 1; i <= that.opts.NumOfLoops; i++ {
		var l *Eloop
		if l, err = newEloop(i, that.handler, that.opts, that.counters); err != nil {
			return err
		}
		that.loops = append(that.loops, l)
		that.balancer.Register(l)
	}
	if that.main, err = newEloop(0, that.handler, that.opts, that.counters); err != nil {
		return err
	}
	if err = that.main.listen(that.listener, that.balancer); err != nil {
		return err
	}

	for _, l := range append([]*Eloop{that.main}, that.loops...) {
		if err = that.spawn(l); err != nil {
			return err
		}
	}
	return nil
}

func (that *Group) spawn(l *Eloop) error {
	that.wg.Add(1)
	err := that.pool.Submit(func() {
		defer that.wg.Done()
		if err := l.run(); err != nil && !errors.Is(err, errs.ErrEngineShutdown) {
			logger.Errorf("eloop-%d: stopped, %v", l.Index, err)
		}
	})
	if err != nil {
		that.wg.Done()
		return err
	}
	l.running = true
	return nil
}

// abort tears down a partially started group.
func (that *Group) abort() {
	that.once.Do(func() {})
	that.stopLoops()
	for _, l := range append([]*Eloop{that.main}, that.loops...) {
		if l != nil && !l.running {
			l.shutdown()
		}
	}
	if that.pool != nil {
		that.pool.Release()
	}
	_ = that.listener.Close()
}

// stopLoops stops the acceptor first so no socket is handed to a loop that
// is already gone.
func (that *Group) stopLoops() {
	stop := func() error { return errs.ErrEngineShutdown }
	if that.main != nil && that.main.running {
		if that.main.submit(stop) == nil {
			<-that.main.done
		}
	}
	for _, l := range that.loops {
		if l.running {
			_ = l.submit(stop)
		}
	}
	that.wg.Wait()
}

func (that *Group) Addr() net.Addr {
	if that.listener == nil {
		return nil
	}
	addr, _ := that.listener.LocalAddr()
	return addr
}

func (that *Group) Loops() []*Eloop {
	return that.loops
}

// Stop closes every connection, then the listener. It is safe to call
// more than once, and after a failed Start.
func (that *Group) Stop() (err error) {
	that.once.Do(func() {
		that.stopLoops()
		if that.pool != nil {
			that.pool.Release()
		}
		if that.listener != nil {
			err = that.listener.Close()
		}
	})
	return
}
