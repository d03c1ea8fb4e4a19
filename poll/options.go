package poll

import "github.com/moqsien/gkpoll/sys"

// Options size the native event list used by one Poll. It starts at
// InitEvents, doubles when a wait fills it, halves when a wait uses less
// than half of it, and stays within [MinEvents, MaxEvents].
type Options struct {
	InitEvents int
	MinEvents  int
	MaxEvents  int
}

func DefaultOptions() *Options {
	return &Options{
		InitEvents: sys.InitPollSize,
		MinEvents:  sys.MinPollSize,
		MaxEvents:  sys.MaxPollSize,
	}
}
