package reliability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInOrderDeliveryIsImmediate(t *testing.T) {
	cs := NewClientState()
	now := time.Now()
	ready := cs.ProcessReceived(1, []byte("a"), now)
	require.Len(t, ready, 1)
	assert.Equal(t, []byte("a"), ready[0])
	assert.Equal(t, uint32(2), cs.expectedRecvSeq)
}

func TestOutOfOrderPacketsAreReorderedOnGapClose(t *testing.T) {
	cs := NewClientState()
	now := time.Now()

	// seq 2 and 3 arrive before seq 1.
	assert.Empty(t, cs.ProcessReceived(3, []byte("c"), now))
	assert.Empty(t, cs.ProcessReceived(2, []byte("b"), now))

	ready := cs.ProcessReceived(1, []byte("a"), now)
	require.Len(t, ready, 3)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, ready)
	assert.Equal(t, uint32(4), cs.expectedRecvSeq)
}

func TestDuplicatePacketDeliveredOnlyOnce(t *testing.T) {
	cs := NewClientState()
	now := time.Now()

	first := cs.ProcessReceived(1, []byte("a"), now)
	require.Len(t, first, 1)

	// Same sequence number arrives again (retransmit race).
	dup := cs.ProcessReceived(1, []byte("a"), now)
	assert.Empty(t, dup)
}

func TestPacketOutsideReorderWindowIsDropped(t *testing.T) {
	cs := NewClientState()
	now := time.Now()
	far := uint32(1 + ReorderWindowSize + 10)
	ready := cs.ProcessReceived(far, []byte("x"), now)
	assert.Empty(t, ready)
	assert.Empty(t, cs.reorderBuffer, "packet far outside the window must not be buffered")
}

func TestPendingPacketRetriesUpToLimitThenExhausts(t *testing.T) {
	cs := NewClientState()
	start := time.Now()
	cs.NextSendSequence(OutPacket{Opcode: 1, Data: []byte("x")}, start)

	now := start
	for i := 0; i < MaxRetries; i++ {
		now = now.Add(RetryTimeout)
		toResend, exhausted := cs.DueRetries(now)
		require.Len(t, toResend, 1, "retry %d", i)
		assert.False(t, exhausted)
	}

	now = now.Add(RetryTimeout)
	toResend, exhausted := cs.DueRetries(now)
	assert.Empty(t, toResend)
	assert.True(t, exhausted, "packet must be dropped once MaxRetries is exceeded")
}

func TestAckRemovesPendingPacket(t *testing.T) {
	cs := NewClientState()
	now := time.Now()
	seq := cs.NextSendSequence(OutPacket{Opcode: 1, Data: []byte("x")}, now)
	cs.Ack(seq)

	toResend, exhausted := cs.DueRetries(now.Add(RetryTimeout))
	assert.Empty(t, toResend)
	assert.False(t, exhausted)
}

func TestReorderBufferExpiresAndUnblocksSequence(t *testing.T) {
	cs := NewClientState()
	now := time.Now()
	cs.ProcessReceived(5, []byte("e"), now) // buffered, waiting for 1..4

	cs.CleanupReorderBuffer(now.Add(ReorderBufferTimeout + time.Millisecond))
	assert.Equal(t, uint32(6), cs.expectedRecvSeq, "expired gap must be skipped, not stall forever")
}

func TestManagerCreatesStatePerClientLazily(t *testing.T) {
	m := NewManager()
	a := m.Client(1)
	b := m.Client(1)
	assert.Same(t, a, b)

	c := m.Client(2)
	assert.NotSame(t, a, c)

	m.Forget(1)
	d := m.Client(1)
	assert.NotSame(t, a, d, "Forget must drop prior state so a reconnect starts clean")
}
