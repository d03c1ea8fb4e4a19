// Package balancer picks which event loop takes the next accepted connection.
package balancer

import "net"

const (
	RoundRobinLB int = 0
	LeastConnLB  int = 1
)

// Loop is what a balancer needs to know about an event loop.
type Loop interface {
	GetConnCount() int32
}

type IteratorFunc[L Loop] func(key int, val L) bool

type Balancer[L Loop] interface {
	Register(L)
	Next(addr ...net.Addr) L
	Iterator(f IteratorFunc[L])
	Len() int
}

// New falls back to round-robin for unknown kinds.
func New[L Loop](kind int) Balancer[L] {
	if kind == LeastConnLB {
		return &LeastConn[L]{}
	}
	return &RoundRobin[L]{}
}
