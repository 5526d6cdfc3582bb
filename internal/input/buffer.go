// Package input implements the per-client input-delay buffer: samples are
// held for a short fixed delay before becoming eligible for application,
// smoothing out RTT jitter so the same client input lands on a predictable
// simulation tick regardless of network variance. Grounded on the original
// InputBuffer/InputDelayConfig design.
package input

import "time"

const (
	Delay             = 50 * time.Millisecond
	MaxBufferedInputs = 100
	Timeout           = 5 * time.Second
)

// Entry is one sampled input awaiting delayed application.
type Entry struct {
	ClientTimestamp uint32
	InputMask       uint8
	ReceivedAt      time.Time
}

func (e Entry) readyToApply(now time.Time) bool {
	return now.Sub(e.ReceivedAt) >= Delay
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.ReceivedAt) >= Timeout
}

// Buffer is a per-client FIFO of pending inputs.
type Buffer struct {
	entries []Entry
}

func NewBuffer() *Buffer {
	return &Buffer{entries: make([]Entry, 0, 8)}
}

// Add appends a freshly received input, dropping the oldest buffered entry
// if the buffer is already at capacity.
func (b *Buffer) Add(mask uint8, clientTimestamp uint32, now time.Time) {
	if len(b.entries) >= MaxBufferedInputs {
		b.entries = b.entries[1:]
	}
	b.entries = append(b.entries, Entry{
		ClientTimestamp: clientTimestamp,
		InputMask:       mask,
		ReceivedAt:      now,
	})
}

// DrainReady removes and returns, oldest first, every entry old enough to
// apply this tick. Entries that expired before ever becoming ready are
// dropped silently rather than applied late.
func (b *Buffer) DrainReady(now time.Time) []Entry {
	i := 0
	for i < len(b.entries) && b.entries[i].expired(now) {
		i++
	}
	b.entries = b.entries[i:]

	readyCount := 0
	for readyCount < len(b.entries) && b.entries[readyCount].readyToApply(now) {
		readyCount++
	}
	ready := make([]Entry, readyCount)
	copy(ready, b.entries[:readyCount])
	b.entries = b.entries[readyCount:]
	return ready
}

func (b *Buffer) Len() int    { return len(b.entries) }
func (b *Buffer) Clear()      { b.entries = b.entries[:0] }
func (b *Buffer) Empty() bool { return len(b.entries) == 0 }
