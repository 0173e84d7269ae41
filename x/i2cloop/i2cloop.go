// Package i2cloop is an in-process two-wire bus: a drivers.I2C controller
// whose transactions are delivered to target callbacks in the same program.
//
// Transactions are serialised, so each target sees a single bus context,
// as it would behind a hardware peripheral.
package i2cloop

import (
	"sync"

	"lasercode-go/errcode"
	"lasercode-go/services/laser/txn"

	"tinygo.org/x/drivers"
)

type Bus struct {
	mu      sync.Mutex
	targets map[uint16]txn.Target
	txCount uint32
}

var _ drivers.I2C = (*Bus)(nil)

func New() *Bus {
	return &Bus{targets: make(map[uint16]txn.Target)}
}

// Attach answers transactions for addr with t, replacing any previous target.
func (b *Bus) Attach(addr uint16, t txn.Target) {
	b.mu.Lock()
	b.targets[addr] = t
	b.mu.Unlock()
}

func (b *Bus) Detach(addr uint16) {
	b.mu.Lock()
	delete(b.targets, addr)
	b.mu.Unlock()
}

// Tx performs a write (if w is non-empty) followed by a repeated-start read
// (if r is non-empty).
//
// Errors: Nack when nothing answers at addr, Dropped when the target refuses
// the write, NotReady when the target has nothing to return yet. A short
// read zero-fills the rest of r.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.targets[addr]
	if !ok {
		return errcode.Wrap(errcode.Nack, "i2c.tx", nil)
	}
	b.txCount++
	if len(w) > 0 && !t.OnReceive(w) {
		return errcode.Wrap(errcode.Dropped, "i2c.write", nil)
	}
	if len(r) == 0 {
		return nil
	}
	n := t.OnRequest(r)
	if n == 0 {
		return errcode.Wrap(errcode.NotReady, "i2c.read", nil)
	}
	clear(r[n:])
	return nil
}

// Count is the number of transactions that reached a target.
func (b *Bus) Count() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.txCount
}
