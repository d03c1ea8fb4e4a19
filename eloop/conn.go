//go:build linux || darwin || freebsd

package eloop

import (
	"net"

	"github.com/moqsien/processes/logger"
	"github.com/panjf2000/gnet/v2/pkg/buffer/elastic"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/socket"
	"github.com/moqsien/gkpoll/sys"
	"github.com/moqsien/gkpoll/utils/errs"
)

// Conn is an accepted stream connection owned by one Eloop. Only
// AsyncWrite may be called from outside the loop goroutine.
type Conn struct {
	sock     *socket.Socket
	token    iface.Token
	loop     *Eloop
	out      *elastic.Buffer
	local    net.Addr
	remote   net.Addr
	Ctx      interface{}
	opened   bool
	watching bool // Writable is part of the registered interest
}

func newConn(l *Eloop, sock *socket.Socket, token iface.Token, remote net.Addr) (c *Conn, err error) {
	c = &Conn{sock: sock, token: token, loop: l, remote: remote}
	if c.out, err = elastic.New(l.opts.WriteBuffer); err != nil {
		return nil, err
	}
	c.local, _ = sock.LocalAddr()
	return
}

func (that *Conn) GetFd() int { return that.sock.GetFd() }

func (that *Conn) Token() iface.Token { return that.token }

func (that *Conn) Loop() *Eloop { return that.loop }

func (that *Conn) LocalAddr() net.Addr { return that.local }

func (that *Conn) RemoteAddr() net.Addr { return that.remote }

func (that *Conn) IsOpened() bool { return that.opened }

// Buffered is the number of bytes waiting for the socket to become writable.
func (that *Conn) Buffered() int { return that.out.Buffered() }

func (that *Conn) open() error {
	that.opened = true
	data, err := that.loop.handler.OnOpen(that)
	if err != nil {
		return that.close(err)
	}
	if len(data) > 0 {
		_, err = that.Write(data)
	}
	return err
}

// Write sends p at once when nothing is pending and queues the rest until
// the socket is writable again.
func (that *Conn) Write(p []byte) (int, error) {
	if !that.opened {
		return 0, errs.ErrClosedFd
	}
	n := len(p)
	if !that.out.IsEmpty() {
		return that.out.Write(p)
	}
	res, err := that.sock.Write(p)
	if err != nil {
		_ = that.close(err)
		return 0, err
	}
	sent, _ := res.Unwrap()
	that.loop.counters.bytesWritten.Add(uint64(sent))
	if sent < n {
		_, _ = that.out.Write(p[sent:])
		return n, that.watchWritable(true)
	}
	return n, nil
}

func (that *Conn) Writev(bs [][]byte) (int, error) {
	if !that.opened {
		return 0, errs.ErrClosedFd
	}
	var n int
	for _, b := range bs {
		n += len(b)
	}
	if !that.out.IsEmpty() {
		_, _ = that.out.Writev(bs)
		return n, nil
	}
	res, err := that.sock.Writev(bs)
	if err != nil {
		_ = that.close(err)
		return 0, err
	}
	sent, _ := res.Unwrap()
	that.loop.counters.bytesWritten.Add(uint64(sent))
	if sent < n {
		rest := append([][]byte(nil), bs...)
		var pos int
		for i := range rest {
			if sent < len(rest[i]) {
				rest[i] = rest[i][sent:]
				pos = i
				break
			}
			sent -= len(rest[i])
		}
		_, _ = that.out.Writev(rest[pos:])
		return n, that.watchWritable(true)
	}
	return n, nil
}

// AsyncWrite copies p and writes it from the loop goroutine.
func (that *Conn) AsyncWrite(p []byte) error {
	data := append([]byte(nil), p...)
	return that.loop.submit(func() error {
		if that.opened {
			_, _ = that.Write(data)
		}
		return nil
	})
}

// Close flushes what the socket accepts without blocking and releases the
// connection.
func (that *Conn) Close() error {
	return that.close(nil)
}

func (that *Conn) watchWritable(on bool) error {
	if that.watching == on {
		return nil
	}
	interest := iface.Readable
	if on {
		interest |= iface.Writable
	}
	if err := that.loop.poll.Reregister(that.sock, that.token, interest, iface.Level); err != nil {
		return err
	}
	that.watching = on
	return nil
}

func (that *Conn) read() {
	res, err := that.sock.Read(that.loop.buffer)
	if err != nil {
		_ = that.close(err)
		return
	}
	n, ok := res.Unwrap()
	if !ok {
		return
	}
	that.loop.counters.bytesRead.Add(uint64(n))
	if err = that.loop.handler.OnData(that, that.loop.buffer[:n]); err != nil {
		_ = that.close(err)
	}
}

func (that *Conn) flush() error {
	iov, _ := that.out.Peek(-1)
	if len(iov) == 0 {
		return that.watchWritable(false)
	}
	if len(iov) > sys.IovMax {
		iov = iov[:sys.IovMax]
	}
	var (
		res iface.NonBlock[int]
		err error
	)
	if len(iov) == 1 {
		res, err = that.sock.Write(iov[0])
	} else {
		res, err = that.sock.Writev(iov)
	}
	if err != nil {
		return err
	}
	if n, ok := res.Unwrap(); ok {
		that.loop.counters.bytesWritten.Add(uint64(n))
		_, _ = that.out.Discard(n)
	}
	if that.out.IsEmpty() {
		return that.watchWritable(false)
	}
	return nil
}

func (that *Conn) close(cause error) (rerr error) {
	if !that.opened {
		return nil
	}
	that.opened = false

	for !that.out.IsEmpty() {
		iov, _ := that.out.Peek(-1)
		res, err := that.sock.Writev(iov)
		if err != nil {
			logger.Warningf("closeConn: error occurs when sending data back to peer, %v", err)
			break
		}
		n, ok := res.Unwrap()
		if !ok {
			break
		}
		_, _ = that.out.Discard(n)
	}

	rerr = that.loop.poll.Deregister(that.sock)
	if err := that.sock.Close(); rerr == nil {
		rerr = err
	}
	that.loop.release(that.token)
	that.loop.handler.OnClose(that, cause)
	that.out.Release()
	return
}
