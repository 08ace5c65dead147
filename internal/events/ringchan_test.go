package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingChannel_ForceSendDropsOldest(t *testing.T) {
	rc := NewRingChannel[int](3)

	for i := 1; i <= 5; i++ {
		rc.ForceSend(i)
	}
	rc.Close()

	var got []int
	for v := range rc.C() {
		got = append(got, v)
	}

	assert.Equal(t, []int{3, 4, 5}, got)
	m := rc.GetMetrics()
	assert.Equal(t, int64(5), m.Written)
	assert.Equal(t, int64(2), m.Overwritten)
}

func TestRingChannel_TrySend(t *testing.T) {
	rc := NewRingChannel[string](1)

	assert.True(t, rc.TrySend("a"))
	assert.False(t, rc.TrySend("b"), "full buffer MUST reject")
	assert.Equal(t, 1, rc.Len())

	v, ok := rc.Receive()
	require.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, int64(1), rc.GetMetrics().Processed)
}

func TestRingChannel_SendAfterCloseIsIgnored(t *testing.T) {
	rc := NewRingChannel[int](2)
	rc.ForceSend(1)
	rc.Close()
	rc.Close()

	assert.NotPanics(t, func() {
		rc.ForceSend(2)
		rc.TrySend(3)
	})
	assert.Equal(t, int64(2), rc.GetMetrics().Errors)

	v, ok := rc.Receive()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = rc.Receive()
	assert.False(t, ok)
}

func TestNewRingChannel_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { NewRingChannel[int](0) })
}
