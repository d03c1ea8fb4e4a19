package balancer

import "net"

type RoundRobin[L Loop] struct {
	eloopList []L
	size      int
	nextIndex int
}

func (that *RoundRobin[L]) Len() int { return that.size }

func (that *RoundRobin[L]) Iterator(f IteratorFunc[L]) {
	for key, val := range that.eloopList {
		if !f(key, val) {
			break
		}
	}
}

func (that *RoundRobin[L]) Register(e L) {
	that.eloopList = append(that.eloopList, e)
	that.size++
}

func (that *RoundRobin[L]) Next(_ ...net.Addr) (e L) {
	e = that.eloopList[that.nextIndex]
	if that.nextIndex++; that.nextIndex >= that.size {
		that.nextIndex = 0
	}
	return
}
