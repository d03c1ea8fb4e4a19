package balancer

import "net"

type LeastConn[L Loop] struct {
	eloopList []L
	size      int
}

func (that *LeastConn[L]) Len() int { return that.size }

func (that *LeastConn[L]) Iterator(f IteratorFunc[L]) {
	for k, v := range that.eloopList {
		if !f(k, v) {
			break
		}
	}
}

func (that *LeastConn[L]) Register(e L) {
	that.eloopList = append(that.eloopList, e)
	that.size++
}

// Next returns the first loop holding the fewest connections.
func (that *LeastConn[L]) Next(_ ...net.Addr) L {
	min := that.eloopList[0]
	for _, v := range that.eloopList[1:] {
		if v.GetConnCount() < min.GetConnCount() {
			min = v
		}
	}
	return min
}
