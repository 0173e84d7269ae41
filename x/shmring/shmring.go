// Package shmring is a single-producer, single-consumer byte ring.
//
// The producer and consumer may run in different execution contexts (a bus
// callback and a cooperative loop). Neither side takes a lock; indices are
// published with atomic stores, and edge notifications never block.
package shmring

import "sync/atomic"

// Ring is a single-producer, single-consumer byte ring.
type Ring struct {
	buf  []byte
	mask uint32
	rd   atomic.Uint32 // consumer index (monotonic)
	wr   atomic.Uint32 // producer index (monotonic)

	readable chan struct{} // 0->>0 available edge
	writable chan struct{} // full->not full edge
}

// New allocates a ring of the given power-of-two size (>= 2).
func New(size int) *Ring {
	if size < 2 || (size&(size-1)) != 0 {
		panic("shmring: size must be power of two >= 2")
	}
	return &Ring{
		buf:      make([]byte, size),
		mask:     uint32(size - 1),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}
}

func (r *Ring) size() uint32 { return uint32(len(r.buf)) }

// Space is the number of bytes the producer can write right now.
func (r *Ring) Space() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	return int(r.size() - (wr - rd))
}

// Available is the number of bytes the consumer can read right now.
func (r *Ring) Available() int {
	rd := r.rd.Load()
	wr := r.wr.Load()
	return int(wr - rd)
}

// Producer side

// TryWriteFrom copies as much of src as fits and returns the count.
func (r *Ring) TryWriteFrom(src []byte) (n int) {
	if len(src) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load()
	beforeAvail := wr - rd
	space := int(r.size() - beforeAvail)
	if space <= 0 {
		return 0
	}
	if len(src) < space {
		space = len(src)
	}
	n = space
	r.put(wr, src[:n])
	r.wr.Store(wr + uint32(n)) // release

	// Notify reader if we transitioned 0->>0 available
	if beforeAvail == 0 {
		select {
		case r.readable <- struct{}{}:
		default:
		}
	}
	return n
}

// TryWriteAll writes src only if all of it fits; it never writes a prefix.
// The consumer observes the bytes as one unit.
func (r *Ring) TryWriteAll(src []byte) bool {
	if len(src) == 0 {
		return true
	}
	if len(src) > r.Space() {
		return false
	}
	return r.TryWriteFrom(src) == len(src)
}

func (r *Ring) put(wr uint32, src []byte) {
	n := len(src)
	wrIdx := wr & r.mask
	first := int(r.size() - wrIdx)
	if first > n {
		first = n
	}
	copy(r.buf[wrIdx:wrIdx+uint32(first)], src[:first])
	if second := n - first; second > 0 {
		copy(r.buf[:second], src[first:n])
	}
}

// Consumer side

// TryReadInto copies up to len(dst) available bytes and returns the count.
func (r *Ring) TryReadInto(dst []byte) (n int) {
	if len(dst) == 0 {
		return 0
	}
	rd := r.rd.Load()
	wr := r.wr.Load() // acquire
	avail := int(wr - rd)
	if avail <= 0 {
		return 0
	}
	if len(dst) < avail {
		avail = len(dst)
	}
	n = avail

	size := r.size()
	rdIdx := rd & r.mask
	first := int(size - rdIdx)
	if first > n {
		first = n
	}
	copy(dst[:first], r.buf[rdIdx:rdIdx+uint32(first)])
	if second := n - first; second > 0 {
		copy(dst[first:n], r.buf[:second])
	}
	r.rd.Store(rd + uint32(n)) // release

	// Notify writer if we transitioned full->not full
	if wr-rd == size {
		select {
		case r.writable <- struct{}{}:
		default:
		}
	}
	return n
}

// Peek returns the next byte without consuming it.
func (r *Ring) Peek() (byte, bool) {
	rd := r.rd.Load()
	wr := r.wr.Load()
	if wr == rd {
		return 0, false
	}
	return r.buf[rd&r.mask], true
}

func (r *Ring) Readable() <-chan struct{} { return r.readable }
func (r *Ring) Writable() <-chan struct{} { return r.writable }
