// Package universe holds the raw DMX channel data for each universe in use.
package universe

import "sort"

const (
	// Size is the number of channels per DMX universe.
	Size = 512
)

// Buffer stores the current 512-channel byte array for each allocated
// universe. It has no protocol knowledge and no locking: all access must
// happen on the controller's tick goroutine (callers on other goroutines
// queue commands instead of touching the buffer directly).
type Buffer struct {
	universes map[int][]byte
}

// NewBuffer creates an empty buffer with no universes allocated.
func NewBuffer() *Buffer {
	return &Buffer{
		universes: make(map[int][]byte),
	}
}

// EnsureUniverse idempotently allocates 512 zeroed channels for a universe.
func (b *Buffer) EnsureUniverse(u int) {
	if _, ok := b.universes[u]; !ok {
		b.universes[u] = make([]byte, Size)
	}
}

// SetChannel sets a channel value. Channels are 1-based. Out-of-range
// channel numbers are silently ignored so a bad write can never take down
// a running show.
func (b *Buffer) SetChannel(u, channel int, value byte) {
	data, ok := b.universes[u]
	if !ok || channel < 1 || channel > Size {
		return
	}
	data[channel-1] = value
}

// GetChannel returns a channel value, or 0 for an unallocated universe or
// an out-of-range channel.
func (b *Buffer) GetChannel(u, channel int) byte {
	data, ok := b.universes[u]
	if !ok || channel < 1 || channel > Size {
		return 0
	}
	return data[channel-1]
}

// ListUniverses returns the IDs of all universes with allocated data,
// sorted so the flush loop produces deterministic wire output.
func (b *Buffer) ListUniverses() []int {
	ids := make([]int, 0, len(b.universes))
	for u := range b.universes {
		ids = append(ids, u)
	}
	sort.Ints(ids)
	return ids
}

// Channels returns the live channel slice for a universe, or nil if the
// universe was never allocated. The flush loop reads it; nothing else may
// hold onto it across ticks.
func (b *Buffer) Channels(u int) []byte {
	return b.universes[u]
}

// Snapshot returns a copy of a universe's channel data, or 512 zeroes for
// an unallocated universe.
func (b *Buffer) Snapshot(u int) []byte {
	out := make([]byte, Size)
	if data, ok := b.universes[u]; ok {
		copy(out, data)
	}
	return out
}

// Reset drops all allocated universes.
func (b *Buffer) Reset() {
	b.universes = make(map[int][]byte)
}
