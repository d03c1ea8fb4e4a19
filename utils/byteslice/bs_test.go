package byteslice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRoundsCapacityToPowerOfTwo(t *testing.T) {
	buf := Get(100)
	require.Len(t, buf, 100)
	assert.Equal(t, 128, cap(buf))
	Put(buf)

	again := Get(120)
	require.Len(t, again, 120)
	assert.Equal(t, 128, cap(again))
}

func TestGetNonPositive(t *testing.T) {
	assert.Nil(t, Get(0))
	assert.Nil(t, Get(-1))
}

func TestPutForeignSlice(t *testing.T) {
	var p Pool
	p.Put(make([]byte, 100))
	buf := p.Get(64)
	require.Len(t, buf, 64)
	assert.GreaterOrEqual(t, cap(buf), 64)
	p.Put(nil)
}
