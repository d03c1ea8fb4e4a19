//go:build linux || darwin || freebsd

/*
Package eloop is a reactor group built on gkpoll. A main loop accepts
connections and hands each one to a sub loop chosen by the balancer; every
sub loop owns a Poll and drives its connections until they close.
*/
package eloop

import (
	"errors"
	"net"
	"runtime"
	"sync/atomic"

	"github.com/moqsien/processes/logger"
	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/balancer"
	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/poll"
	"github.com/moqsien/gkpoll/socket"
	"github.com/moqsien/gkpoll/utils/byteslice"
	"github.com/moqsien/gkpoll/utils/errs"
)

const (
	tokenTasks    iface.Token = 0
	tokenListener iface.Token = 1
	tokenConnBase iface.Token = 2
)

type task func() error

type Eloop struct {
	Index     int
	poll      *poll.Poll
	tasks     *poll.Channel[task]
	listener  *socket.Socket
	balancer  balancer.Balancer[*Eloop]
	handler   Handler
	opts      *Options
	counters  *counters
	conns     []*Conn // slot i holds the connection with token tokenConnBase+i
	free      []int
	released  []int // slots freed during the current cycle
	connCount int32
	buffer    []byte
	done      chan struct{}
	running   bool
}

func newEloop(idx int, h Handler, opts *Options, c *counters) (l *Eloop, err error) {
	l = &Eloop{
		Index:    idx,
		handler:  h,
		opts:     opts,
		counters: c,
		done:     make(chan struct{}),
	}
	if l.poll, err = poll.New(); err != nil {
		return nil, err
	}
	if l.tasks, err = poll.NewChannel[task](); err != nil {
		_ = l.poll.Close()
		return nil, err
	}
	if err = l.poll.Register(l.tasks, tokenTasks, iface.Readable, iface.Level); err != nil {
		_ = l.tasks.Close()
		_ = l.poll.Close()
		return nil, err
	}
	return l, nil
}

func (that *Eloop) GetConnCount() int32 {
	return atomic.LoadInt32(&that.connCount)
}

func (that *Eloop) submit(t task) error {
	return that.tasks.Send(t)
}

// listen turns the loop into an acceptor feeding the loops behind b.
func (that *Eloop) listen(ln *socket.Socket, b balancer.Balancer[*Eloop]) error {
	that.listener = ln
	that.balancer = b
	return that.poll.Register(ln, tokenListener, iface.Readable, iface.Level)
}

func (that *Eloop) run() error {
	if that.opts.LockOSThread {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
	}
	defer that.shutdown()
	if that.listener == nil {
		that.buffer = byteslice.Get(that.opts.ReadBuffer)
		defer byteslice.Put(that.buffer)
	}

	timeout := that.opts.pollTimeout()
	for {
		n, err := that.poll.Poll(timeout)
		if err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			ev := that.poll.Event(i)
			switch ev.Token {
			case tokenTasks:
				if err = that.runTasks(); err != nil {
					return err
				}
			case tokenListener:
				that.accept()
			default:
				that.handle(ev)
			}
		}
		that.recycle()
	}
}

func (that *Eloop) runTasks() error {
	for {
		res, err := that.tasks.Recv()
		if err != nil {
			return err
		}
		t, ok := res.Unwrap()
		if !ok {
			return nil
		}
		if err = t(); err != nil {
			if errors.Is(err, errs.ErrEngineShutdown) {
				return err
			}
			logger.Warningf("eloop-%d: task failed, %v", that.Index, err)
		}
	}
}

func (that *Eloop) accept() {
	for {
		res, remote, err := that.listener.Accept()
		if err != nil {
			logger.Warningf("eloop-%d: accept failed, %v", that.Index, err)
			return
		}
		sock, ok := res.Unwrap()
		if !ok {
			return
		}
		that.counters.accepted.Add(1)
		if err = that.prepare(sock); err != nil {
			logger.Warningf("eloop-%d: failed to set options on accepted socket, %v", that.Index, err)
			_ = sock.Close()
			continue
		}
		loop := that.balancer.Next(remote)
		if err = loop.submit(func() error { return loop.open(sock, remote) }); err != nil {
			_ = sock.Close()
		}
	}
}

func (that *Eloop) prepare(sock *socket.Socket) error {
	if sock.Family() == unix.AF_UNIX {
		return nil
	}
	if that.opts.NoDelay {
		if err := sock.SetNoDelay(true); err != nil {
			return err
		}
	}
	if secs := int(that.opts.ConnKeepAlive.Seconds()); secs > 0 {
		return sock.SetKeepAlive(secs)
	}
	return nil
}

func (that *Eloop) open(sock *socket.Socket, remote net.Addr) error {
	token := that.alloc()
	c, err := newConn(that, sock, token, remote)
	if err == nil {
		if err = that.poll.Register(sock, token, iface.Readable, iface.Level); err != nil {
			c.out.Release()
		}
	}
	if err != nil {
		that.release(token)
		_ = sock.Close()
		return err
	}
	that.conns[token-tokenConnBase] = c
	atomic.AddInt32(&that.connCount, 1)
	that.counters.active.Add(1)
	return c.open()
}

func (that *Eloop) handle(ev iface.IoEvent) {
	c := that.lookup(ev.Token)
	if c == nil {
		return
	}
	if ev.Events.IsReadable() || ev.Events.IsHup() {
		c.read()
	}
	if c.opened && ev.Events.IsWritable() {
		if err := c.flush(); err != nil {
			_ = c.close(err)
		}
	}
	if c.opened && ev.Events == iface.Error {
		_ = c.close(c.sock.TakeError())
	}
}

func (that *Eloop) alloc() iface.Token {
	if n := len(that.free); n > 0 {
		idx := that.free[n-1]
		that.free = that.free[:n-1]
		return tokenConnBase + iface.Token(idx)
	}
	that.conns = append(that.conns, nil)
	return tokenConnBase + iface.Token(len(that.conns)-1)
}

func (that *Eloop) lookup(token iface.Token) *Conn {
	if token < tokenConnBase {
		return nil
	}
	idx := int(token - tokenConnBase)
	if idx >= len(that.conns) {
		return nil
	}
	return that.conns[idx]
}

func (that *Eloop) release(token iface.Token) {
	idx := int(token - tokenConnBase)
	if that.conns[idx] != nil {
		that.conns[idx] = nil
		atomic.AddInt32(&that.connCount, -1)
		that.counters.active.Add(-1)
	}
	that.released = append(that.released, idx)
}

// recycle makes slots released during a cycle available again, so a token
// still queued in that cycle's events cannot reach a newer connection.
func (that *Eloop) recycle() {
	that.free = append(that.free, that.released...)
	that.released = that.released[:0]
}

func (that *Eloop) shutdown() {
	for _, c := range that.conns {
		if c != nil {
			_ = c.close(errs.ErrEngineShutdown)
		}
	}
	if that.listener != nil {
		_ = that.poll.Deregister(that.listener)
	}
	if err := that.tasks.Close(); err != nil {
		logger.Warningf("eloop-%d: failed to close task channel, %v", that.Index, err)
	}
	if err := that.poll.Close(); err != nil {
		logger.Warningf("eloop-%d: failed to close poll, %v", that.Index, err)
	}
	close(that.done)
}
