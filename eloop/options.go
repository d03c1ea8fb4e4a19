package eloop

import (
	"runtime"
	"time"

	"github.com/moqsien/gkpoll/balancer"
)

const (
	MaxStreamBufferCap int = 64 * 1024
	DefaultReadBuffer  int = 64 * 1024
)

type Options struct {
	NumOfLoops        int
	LoadBalancer      int
	ReuseAddr         bool
	ReusePort         bool
	NoDelay           bool
	Backlog           int
	SocketWriteBuffer int
	SocketReadBuffer  int
	WriteBuffer       int // bytes kept in the static part of each outbound buffer
	ReadBuffer        int
	ConnKeepAlive     time.Duration
	PollTimeout       time.Duration // zero blocks until something is ready
	LockOSThread      bool
}

func DefaultOptions() *Options {
	return &Options{
		NumOfLoops:   runtime.NumCPU(),
		LoadBalancer: balancer.RoundRobinLB,
		ReuseAddr:    true,
		NoDelay:      true,
		WriteBuffer:  MaxStreamBufferCap,
		ReadBuffer:   DefaultReadBuffer,
	}
}

func (that *Options) normalize() {
	if that.NumOfLoops <= 0 {
		that.NumOfLoops = runtime.NumCPU()
	}
	if that.WriteBuffer <= 0 {
		that.WriteBuffer = MaxStreamBufferCap
	}
	if that.ReadBuffer <= 0 {
		that.ReadBuffer = DefaultReadBuffer
	}
}

func (that *Options) pollTimeout() int {
	if that.PollTimeout <= 0 {
		return -1
	}
	return int(that.PollTimeout.Milliseconds())
}
