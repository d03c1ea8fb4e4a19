//go:build linux || darwin || freebsd

package eloop

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

type counters struct {
	accepted     atomic.Uint64
	active       atomic.Int64
	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
}

type Stats struct {
	Loops        int     `json:"loops"`
	Accepted     uint64  `json:"accepted"`
	Active       int64   `json:"active"`
	BytesRead    uint64  `json:"bytes_read"`
	BytesWritten uint64  `json:"bytes_written"`
	PerLoop      []int32 `json:"per_loop"`
}

func (that *Group) Stats() Stats {
	s := Stats{
		Loops:        that.balancer.Len(),
		Accepted:     that.counters.accepted.Load(),
		Active:       that.counters.active.Load(),
		BytesRead:    that.counters.bytesRead.Load(),
		BytesWritten: that.counters.bytesWritten.Load(),
		PerLoop:      make([]int32, 0, that.balancer.Len()),
	}
	that.balancer.Iterator(func(_ int, l *Eloop) bool {
		s.PerLoop = append(s.PerLoop, l.GetConnCount())
		return true
	})
	return s
}

func StatsHandler(g *Group) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, g.Stats())
	}
}

// NewStatsRouter serves the group's Stats as JSON on path.
func NewStatsRouter(g *Group, path string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(path, StatsHandler(g))
	return r
}
