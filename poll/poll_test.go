//go:build linux || darwin || freebsd

package poll_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/moqsien/gkpoll/iface"
	"github.com/moqsien/gkpoll/poll"
	"github.com/moqsien/gkpoll/socket"
	"github.com/moqsien/gkpoll/utils/errs"
)

func newPoll(t *testing.T) *poll.Poll {
	t.Helper()
	p, err := poll.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func newPair(t *testing.T) (*socket.Socket, *socket.Socket) {
	t.Helper()
	a, b, err := socket.Pair(unix.AF_UNIX, unix.SOCK_STREAM)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a, b
}

func write(t *testing.T, s *socket.Socket, data string) {
	t.Helper()
	res, err := s.Write([]byte(data))
	require.NoError(t, err)
	require.Equal(t, len(data), res.Value())
}

func TestEmptyPoll(t *testing.T) {
	p := newPoll(t)
	n, err := p.Poll(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Panics(t, func() { p.Event(0) })

	start := time.Now()
	n, err = p.Poll(30)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestReadableCarriesToken(t *testing.T) {
	p := newPoll(t)
	a, b := newPair(t)
	require.NoError(t, p.Register(a, 123, iface.Readable, iface.Level))
	assert.True(t, p.IsRegistered(a))

	write(t, b, "ping")
	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	ev := p.Event(0)
	assert.Equal(t, iface.Token(123), ev.Token)
	assert.True(t, ev.Events.IsReadable())
	assert.Equal(t, 1, p.Events().Len())
}

func TestLevelTriggeredRepeats(t *testing.T) {
	p := newPoll(t)
	a, b := newPair(t)
	require.NoError(t, p.Register(a, 1, iface.Readable, iface.Level))
	write(t, b, "data")

	for i := 0; i < 3; i++ {
		n, err := p.Poll(1000)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}

	_, err := a.Read(make([]byte, 16))
	require.NoError(t, err)
	n, err := p.Poll(50)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestEdgeTriggeredOnce(t *testing.T) {
	p := newPoll(t)
	a, b := newPair(t)
	require.NoError(t, p.Register(a, 1, iface.Readable, iface.Edge))
	write(t, b, "data")

	n, err := p.Poll(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.Poll(50)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	write(t, b, "more")
	n, err = p.Poll(1000)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOneshotNeedsRearm(t *testing.T) {
	p := newPoll(t)
	a, b := newPair(t)
	require.NoError(t, p.Register(a, 5, iface.Readable, iface.Level|iface.Oneshot))
	write(t, b, "one")

	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	write(t, b, "two")
	n, err = p.Poll(50)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, p.Reregister(a, 6, iface.Readable, iface.Level|iface.Oneshot))
	n, err = p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, iface.Token(6), p.Event(0).Token)
}

func TestDeregisterSilences(t *testing.T) {
	p := newPoll(t)
	a, b := newPair(t)
	require.NoError(t, p.Register(a, 1, iface.Readable, iface.Level))
	require.NoError(t, p.Deregister(a))
	assert.False(t, p.IsRegistered(a))

	write(t, b, "ignored")
	n, err := p.Poll(50)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.ErrorIs(t, p.Deregister(a), errs.ErrNotRegistered)
	assert.ErrorIs(t, p.Reregister(a, 1, iface.Readable, iface.Level), errs.ErrNotRegistered)

	require.NoError(t, a.Close())
	err = p.Deregister(a)
	assert.ErrorIs(t, err, errs.ErrInvalidRegistration)
	assert.ErrorIs(t, err, errs.ErrClosedFd)
	assert.ErrorIs(t, p.Reregister(a, 1, iface.Readable, iface.Level), errs.ErrInvalidRegistration)
}

func TestCloseWhileRegistered(t *testing.T) {
	p := newPoll(t)
	a, b := newPair(t)
	oldFd := a.GetFd()
	require.NoError(t, p.Register(a, 1, iface.Readable, iface.Level))
	require.NoError(t, a.Close())
	assert.False(t, p.Selector().IsRegistered(oldFd))

	err := p.Deregister(a)
	assert.ErrorIs(t, err, errs.ErrInvalidRegistration)
	assert.ErrorIs(t, err, errs.ErrClosedFd)
	require.NoError(t, b.Close())

	c, d := newPair(t)
	require.NoError(t, p.Register(c, 2, iface.Readable, iface.Level))
	require.NoError(t, p.Register(d, 3, iface.Readable, iface.Level))
	write(t, d, "reused")

	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, iface.Token(2), p.Event(0).Token)
}

func TestRegisterErrors(t *testing.T) {
	p := newPoll(t)
	a, _ := newPair(t)
	require.NoError(t, p.Register(a, 1, iface.Readable, iface.Level))
	assert.ErrorIs(t, p.Register(a, 2, iface.Writable, iface.Level), errs.ErrAlreadyRegistered)

	c, _ := newPair(t)
	assert.ErrorIs(t, p.Register(c, 3, iface.Readable, iface.Edge|iface.Level), errs.ErrInvalidPollOpt)
	require.NoError(t, c.Close())
	assert.ErrorIs(t, p.Register(c, 3, iface.Readable, iface.Level), errs.ErrClosedFd)
}

func TestHupAfterPeerClose(t *testing.T) {
	p := newPoll(t)
	a, b := newPair(t)
	require.NoError(t, p.Register(a, 1, iface.Readable|iface.Hup, iface.Level))
	require.NoError(t, b.Close())

	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.True(t, p.Event(0).Events.IsHup())
}

func TestConnectInProgress(t *testing.T) {
	ln, err := socket.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	addr, err := ln.LocalAddr()
	require.NoError(t, err)

	s, err := socket.New(unix.AF_INET, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer s.Close()
	connected, err := s.Connect(addr)
	require.NoError(t, err)

	p := newPoll(t)
	require.NoError(t, p.Register(s, 9, iface.Writable, iface.Edge))
	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.True(t, p.Event(0).Events.IsWritable())
	assert.NoError(t, s.TakeError())

	// Loopback may finish the handshake inside the first call.
	if !connected {
		connected, err = s.Connect(addr)
		require.NoError(t, err)
	}
	assert.True(t, connected)

	peer, err := s.PeerAddr()
	require.NoError(t, err)
	assert.Equal(t, addr.String(), peer.String())
}

func TestAcceptReadiness(t *testing.T) {
	ln, err := socket.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	addr, err := ln.LocalAddr()
	require.NoError(t, err)

	p := newPoll(t)
	require.NoError(t, p.Register(ln, 0, iface.Readable, iface.Level))

	c, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	defer c.Close()

	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	res, remote, err := ln.Accept()
	require.NoError(t, err)
	require.True(t, res.IsReady())
	defer res.Value().Close()
	assert.Equal(t, c.LocalAddr().String(), remote.String())

	res, _, err = ln.Accept()
	require.NoError(t, err)
	assert.True(t, res.IsWouldBlock())
}

func TestClosedPoll(t *testing.T) {
	p, err := poll.New(&poll.Options{InitEvents: 8, MinEvents: 4, MaxEvents: 16})
	require.NoError(t, err)
	require.NoError(t, p.Close())
	_, err = p.Poll(0)
	assert.ErrorIs(t, err, errs.ErrPollClosed)
	assert.ErrorIs(t, p.Close(), errs.ErrPollClosed)
}

func TestManyDescriptorsGrowEventList(t *testing.T) {
	p, err := poll.New(&poll.Options{InitEvents: 4, MinEvents: 4, MaxEvents: 64})
	require.NoError(t, err)
	defer p.Close()

	const count = 20
	for i := 0; i < count; i++ {
		a, b := newPair(t)
		require.NoError(t, p.Register(a, iface.Token(i), iface.Readable, iface.Level))
		write(t, b, "x")
	}

	seen := make(map[iface.Token]bool)
	require.Eventually(t, func() bool {
		n, err := p.Poll(100)
		if err != nil {
			return false
		}
		for i := 0; i < n; i++ {
			seen[p.Event(i).Token] = true
		}
		return len(seen) == count
	}, 2*time.Second, time.Millisecond)
}
