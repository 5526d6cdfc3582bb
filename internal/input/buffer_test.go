package input

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainReadyWaitsForDelay(t *testing.T) {
	b := NewBuffer()
	now := time.Now()
	b.Add(0x1, 100, now)

	assert.Empty(t, b.DrainReady(now.Add(Delay-time.Millisecond)))

	ready := b.DrainReady(now.Add(Delay))
	require.Len(t, ready, 1)
	assert.Equal(t, uint8(0x1), ready[0].InputMask)
	assert.True(t, b.Empty())
}

func TestDrainReadyPreservesFIFOOrder(t *testing.T) {
	b := NewBuffer()
	start := time.Now()
	b.Add(0x1, 1, start)
	b.Add(0x2, 2, start.Add(time.Millisecond))
	b.Add(0x4, 3, start.Add(2*time.Millisecond))

	ready := b.DrainReady(start.Add(Delay + 3*time.Millisecond))
	require.Len(t, ready, 3)
	assert.Equal(t, uint8(0x1), ready[0].InputMask)
	assert.Equal(t, uint8(0x2), ready[1].InputMask)
	assert.Equal(t, uint8(0x4), ready[2].InputMask)
}

func TestAddDropsOldestWhenFull(t *testing.T) {
	b := NewBuffer()
	now := time.Now()
	for i := 0; i < MaxBufferedInputs+5; i++ {
		b.Add(uint8(i), uint32(i), now)
	}
	assert.Equal(t, MaxBufferedInputs, b.Len())
	ready := b.DrainReady(now.Add(Delay))
	require.Len(t, ready, MaxBufferedInputs)
	assert.Equal(t, uint8(5), ready[0].InputMask, "the 5 oldest samples must have been evicted")
}

func TestExpiredInputsAreDroppedNotAppliedLate(t *testing.T) {
	b := NewBuffer()
	now := time.Now()
	b.Add(0x1, 1, now)

	ready := b.DrainReady(now.Add(Timeout + time.Millisecond))
	assert.Empty(t, ready, "an input older than Timeout must never be applied")
	assert.True(t, b.Empty())
}
