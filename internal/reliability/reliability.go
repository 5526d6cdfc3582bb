// Package reliability implements the ack/retry/reorder layer that sits on
// top of raw UDP datagrams, grounded on the original C++ PacketReliability
// design: per-client monotone send sequence numbers, a bounded pending-ack
// list with timeout-based retransmission, a reorder window that holds
// early-arriving packets until the gap closes, and a duplicate-suppression
// cache so a retransmitted packet is never applied twice.
package reliability

import (
	"container/list"
	"time"
)

// Tunables matching the original implementation's reference constants.
const (
	MaxRetries           = 3
	RetryTimeout         = 200 * time.Millisecond
	ReorderWindowSize    = 64
	ReorderBufferTimeout = 500 * time.Millisecond
	DuplicateCacheSize   = 256
	DuplicateCacheTTL    = 5 * time.Second
)

// OutPacket is a reliable payload queued for delivery, identified by the
// opcode it was built from so the retry worker can rebuild a wire frame.
// Seq is filled in by NextSendSequence and returned unchanged by
// DueRetries; a retransmit always
// carries the original sequence number so the peer's duplicate cache
// recognizes it as the same packet rather than a new one.
type OutPacket struct {
	Opcode byte
	Seq    uint32
	Data   []byte
}

type pendingPacket struct {
	seq        uint32
	packet     OutPacket
	sentAt     time.Time
	retryCount int
}

func (p *pendingPacket) shouldRetry(now time.Time) bool {
	return now.Sub(p.sentAt) >= RetryTimeout
}

func (p *pendingPacket) maxRetriesReached() bool {
	return p.retryCount >= MaxRetries
}

type bufferedPacket struct {
	seq        uint32
	data       []byte
	receivedAt time.Time
}

func (b bufferedPacket) expired(now time.Time) bool {
	return now.Sub(b.receivedAt) >= ReorderBufferTimeout
}

// ClientState is one client's reliability bookkeeping: outbound sequencing
// and retry tracking, plus inbound reordering and duplicate suppression.
// Callers must hold the owning Manager's lock (one mutex shared by all
// clients, see Manager.WithClient) while
// calling any method — ClientState itself is not internally synchronized,
// matching the original's single-reliability_mutex-per-client discipline.
type ClientState struct {
	nextSendSeq uint32
	pending     *list.List // of *pendingPacket, oldest first

	expectedRecvSeq uint32
	reorderBuffer   map[uint32]bufferedPacket

	dupCache    map[uint32]time.Time
	dupOrder    *list.List // of uint32, oldest first, mirrors dupCache eviction order
}

func NewClientState() *ClientState {
	return &ClientState{
		nextSendSeq:     1,
		pending:         list.New(),
		expectedRecvSeq: 1,
		reorderBuffer:   make(map[uint32]bufferedPacket),
		dupCache:        make(map[uint32]time.Time),
		dupOrder:        list.New(),
	}
}

// NextSendSequence allocates the next outbound sequence number and records
// the packet as pending acknowledgement.
func (c *ClientState) NextSendSequence(pkt OutPacket, now time.Time) uint32 {
	seq := c.nextSendSeq
	c.nextSendSeq++
	pkt.Seq = seq
	c.pending.PushBack(&pendingPacket{seq: seq, packet: pkt, sentAt: now})
	return seq
}

// Ack removes a packet from the pending list once the peer confirms receipt.
func (c *ClientState) Ack(seq uint32) {
	for e := c.pending.Front(); e != nil; e = e.Next() {
		if e.Value.(*pendingPacket).seq == seq {
			c.pending.Remove(e)
			return
		}
	}
}

// DueRetries returns the packets whose retry timeout has elapsed, advancing
// their retry count, and drops any that have exhausted MaxRetries (the
// caller is expected to treat repeated exhaustion as a dead connection).
func (c *ClientState) DueRetries(now time.Time) (toResend []OutPacket, exhausted bool) {
	var next *list.Element
	for e := c.pending.Front(); e != nil; e = next {
		next = e.Next()
		p := e.Value.(*pendingPacket)
		if !p.shouldRetry(now) {
			continue
		}
		if p.maxRetriesReached() {
			c.pending.Remove(e)
			exhausted = true
			continue
		}
		p.retryCount++
		p.sentAt = now
		toResend = append(toResend, p.packet)
	}
	return toResend, exhausted
}

// IsDuplicate reports whether seq has already been processed and, if not,
// records it. IsDuplicate is the only place that inserts into the cache,
// the same way the original's is_duplicate() does.
func (c *ClientState) IsDuplicate(seq uint32, now time.Time) bool {
	if _, ok := c.dupCache[seq]; ok {
		return true
	}
	c.dupCache[seq] = now
	c.dupOrder.PushBack(seq)
	if len(c.dupCache) > DuplicateCacheSize {
		oldest := c.dupOrder.Front()
		delete(c.dupCache, oldest.Value.(uint32))
		c.dupOrder.Remove(oldest)
	}
	return false
}

func (c *ClientState) isInReorderWindow(seq uint32) bool {
	if seq < c.expectedRecvSeq {
		return false
	}
	return seq-c.expectedRecvSeq < ReorderWindowSize
}

// ProcessReceived handles one inbound reliable packet: duplicates are
// dropped, in-order packets are delivered immediately and drain any
// contiguous run already sitting in the reorder buffer, and early packets
// within the reorder window are buffered until the gap closes.
func (c *ClientState) ProcessReceived(seq uint32, data []byte, now time.Time) []([]byte) {
	if c.IsDuplicate(seq, now) {
		return nil
	}
	if seq < c.expectedRecvSeq {
		return nil // stale retransmit of an already-delivered packet
	}
	if seq != c.expectedRecvSeq {
		if c.isInReorderWindow(seq) {
			c.reorderBuffer[seq] = bufferedPacket{seq: seq, data: data, receivedAt: now}
		}
		return nil
	}

	ready := [][]byte{data}
	c.expectedRecvSeq++
	for {
		buf, ok := c.reorderBuffer[c.expectedRecvSeq]
		if !ok {
			break
		}
		ready = append(ready, buf.data)
		delete(c.reorderBuffer, c.expectedRecvSeq)
		c.expectedRecvSeq++
	}
	return ready
}

// CleanupReorderBuffer discards entries that have sat unresolved past
// ReorderBufferTimeout, advancing expectedRecvSeq past the gap they were
// blocking so a permanently-lost packet can't stall delivery forever.
func (c *ClientState) CleanupReorderBuffer(now time.Time) {
	for seq, buf := range c.reorderBuffer {
		if buf.expired(now) {
			delete(c.reorderBuffer, seq)
			if seq >= c.expectedRecvSeq {
				c.expectedRecvSeq = seq + 1
			}
		}
	}
}

// CleanupDuplicateCache evicts duplicate-cache entries older than
// DuplicateCacheTTL, independent of the size-based eviction in IsDuplicate.
func (c *ClientState) CleanupDuplicateCache(now time.Time) {
	var next *list.Element
	for e := c.dupOrder.Front(); e != nil; e = next {
		next = e.Next()
		seq := e.Value.(uint32)
		seenAt, ok := c.dupCache[seq]
		if !ok {
			c.dupOrder.Remove(e)
			continue
		}
		if now.Sub(seenAt) < DuplicateCacheTTL {
			break // dupOrder is insertion-ordered, so later entries are newer
		}
		delete(c.dupCache, seq)
		c.dupOrder.Remove(e)
	}
}

// Reset clears all sequencing and buffering state, used when a client
// reconnects under the same client ID after a timeout eviction.
func (c *ClientState) Reset() {
	*c = *NewClientState()
}
