//go:build linux || darwin || freebsd

package eloop

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moqsien/gkpoll/balancer"
)

type echoHandler struct {
	BaseHandler
	greeting []byte
	mu       sync.Mutex
	closed   []error
}

func (that *echoHandler) OnOpen(*Conn) ([]byte, error) {
	return that.greeting, nil
}

func (that *echoHandler) OnData(c *Conn, data []byte) error {
	_, err := c.Write(data)
	return err
}

func (that *echoHandler) OnClose(_ *Conn, err error) {
	that.mu.Lock()
	that.closed = append(that.closed, err)
	that.mu.Unlock()
}

func (that *echoHandler) closedCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return len(that.closed)
}

func startGroup(t *testing.T, h Handler, opts *Options) *Group {
	t.Helper()
	g := New(h, opts)
	require.NoError(t, g.Start("tcp", "127.0.0.1:0"))
	t.Cleanup(func() { _ = g.Stop() })
	return g
}

func dial(t *testing.T, g *Group) net.Conn {
	t.Helper()
	c, err := net.DialTimeout("tcp", g.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.SetDeadline(time.Now().Add(5*time.Second)))
	return c
}

func TestEchoRoundTrip(t *testing.T) {
	h := &echoHandler{greeting: []byte("hi\n")}
	opts := DefaultOptions()
	opts.NumOfLoops = 2
	g := startGroup(t, h, opts)

	c := dial(t, g)
	greeting := make([]byte, 3)
	_, err := io.ReadFull(c, greeting)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", string(greeting))

	for _, msg := range []string{"hello", "gkpoll"} {
		_, err = c.Write([]byte(msg))
		require.NoError(t, err)
		buf := make([]byte, len(msg))
		_, err = io.ReadFull(c, buf)
		require.NoError(t, err)
		assert.Equal(t, msg, string(buf))
	}

	require.NoError(t, c.Close())
	require.Eventually(t, func() bool { return h.closedCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, h.closed[0], io.EOF)

	s := g.Stats()
	assert.Equal(t, 2, s.Loops)
	assert.Equal(t, uint64(1), s.Accepted)
	assert.Equal(t, int64(0), s.Active)
	assert.Equal(t, uint64(len("hellogkpoll")), s.BytesRead)
	assert.Equal(t, uint64(len("hi\nhellogkpoll")), s.BytesWritten)
}

func TestLargeWriteIsBuffered(t *testing.T) {
	payload := make([]byte, 4<<20)
	for i := range payload {
		payload[i] = byte(i)
	}
	h := &echoHandler{greeting: payload}
	opts := DefaultOptions()
	opts.NumOfLoops = 1
	g := startGroup(t, h, opts)

	c := dial(t, g)
	got := make([]byte, len(payload))
	_, err := io.ReadFull(c, got)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRoundRobinSpreadsConnections(t *testing.T) {
	h := &echoHandler{}
	opts := DefaultOptions()
	opts.NumOfLoops = 2
	opts.LoadBalancer = balancer.RoundRobinLB
	g := startGroup(t, h, opts)

	dial(t, g)
	dial(t, g)
	require.Eventually(t, func() bool {
		s := g.Stats()
		return len(s.PerLoop) == 2 && s.PerLoop[0] == 1 && s.PerLoop[1] == 1
	}, 2*time.Second, 5*time.Millisecond)
}

type asyncHandler struct {
	BaseHandler
	conns chan *Conn
}

func (that *asyncHandler) OnOpen(c *Conn) ([]byte, error) {
	that.conns <- c
	return nil, nil
}

func TestAsyncWrite(t *testing.T) {
	h := &asyncHandler{conns: make(chan *Conn, 1)}
	opts := DefaultOptions()
	opts.NumOfLoops = 1
	g := startGroup(t, h, opts)

	c := dial(t, g)
	var sc *Conn
	select {
	case sc = <-h.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("connection was not opened")
	}
	require.NoError(t, sc.AsyncWrite([]byte("pushed")))

	buf := make([]byte, 6)
	_, err := io.ReadFull(c, buf)
	require.NoError(t, err)
	assert.Equal(t, "pushed", string(buf))
}

func TestStopClosesConnections(t *testing.T) {
	h := &echoHandler{}
	opts := DefaultOptions()
	opts.NumOfLoops = 1
	g := New(h, opts)
	require.NoError(t, g.Start("tcp", "127.0.0.1:0"))

	c := dial(t, g)
	require.Eventually(t, func() bool { return g.Stats().Active == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, g.Stop())
	assert.NoError(t, g.Stop())
	_, err := c.Read(make([]byte, 1))
	assert.Error(t, err)
	assert.Equal(t, 1, h.closedCount())
}

func TestStatsRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	opts := DefaultOptions()
	opts.NumOfLoops = 3
	g := startGroup(t, &echoHandler{}, opts)

	r := NewStatsRouter(g, "/stats")
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var s Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, 3, s.Loops)
	assert.Len(t, s.PerLoop, 3)
}

func TestSlotReuseWaitsForNextCycle(t *testing.T) {
	l := &Eloop{counters: new(counters)}
	a := l.alloc()
	l.conns[a-tokenConnBase] = &Conn{}
	l.release(a)
	assert.Nil(t, l.lookup(a))

	b := l.alloc()
	assert.NotEqual(t, a, b)

	l.recycle()
	assert.Equal(t, a, l.alloc())
}

func TestStopAfterFailedStart(t *testing.T) {
	g := New(&echoHandler{}, DefaultOptions())
	require.Error(t, g.Start("tcp", "not-an-address"))
	assert.NotPanics(t, func() { assert.NoError(t, g.Stop()) })
	assert.Nil(t, g.Addr())
}
