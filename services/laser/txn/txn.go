// Package txn is the peripheral's bus transaction handler.
//
// OnReceive and OnRequest run in the bus context (an interrupt handler or the
// goroutine servicing the bus). They only copy bytes: inbound writes go into a
// lock-free SPSC ring, reads are served from an atomically published response
// cache. Interpretation happens in Tick, on the idle loop, which is the only
// mutator of the register file.
//
// Wire protocol:
//
//	[reg]             select reg for the next read
//	[reg, b0, ...]    write b0.. from reg upwards (at most MaxPayload bytes)
//	[0, 7]            reset the register file
//	read              returns [register byte, output level]
package txn

import (
	"sync/atomic"

	"lasercode-go/errcode"
	"lasercode-go/services/laser/regfile"
	"lasercode-go/x/mathx"
	"lasercode-go/x/shmring"
)

// MaxPayload bounds the data bytes following the register index.
const MaxPayload = 4

// ResponseLen is the number of bytes a read returns.
const ResponseLen = 2

// DefaultInboxSize holds several maximal frames.
const DefaultInboxSize = 32

// Response cache layout: value | level<<8 | valid | selection<<24.
const (
	respValid    = 1 << 16
	respSelShift = 24
)

// State is the transaction state machine position.
type State uint8

const (
	Idle State = iota
	AwaitResponse
	ApplyWrite
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitResponse:
		return "await_response"
	case ApplyWrite:
		return "apply_write"
	default:
		return "unknown"
	}
}

// Target is the bus-context surface of the peripheral.
type Target interface {
	// OnReceive is handed the bytes of one completed write transaction.
	// It reports whether the transaction was accepted.
	OnReceive(p []byte) bool
	// OnRequest fills dst for a read transaction and returns the count.
	OnRequest(dst []byte) int
}

// Reconfigurer is notified after every applied write.
type Reconfigurer interface {
	Reconfigure(f *regfile.File, now uint32)
}

type Stats struct {
	Received  uint32 // writes accepted into the inbox
	Requests  uint32 // read attempts, including empty ones
	Dropped   uint32 // writes refused because the inbox was full
	Malformed uint32 // writes with zero or too many bytes
	Resets    uint32
}

type Handler struct {
	inbox *shmring.Ring
	resp  atomic.Uint32
	sels  atomic.Uint32 // selections accepted by OnReceive

	received  atomic.Uint32
	requests  atomic.Uint32
	dropped   atomic.Uint32
	malformed atomic.Uint32
	resets    atomic.Uint32

	// Idle-loop owned.
	state    State
	reg      byte
	payload  [MaxPayload]byte
	n        int
	selected bool
	sel      byte
	latched  uint32 // selections seen by Tick
	frame    [1 + 1 + MaxPayload]byte
}

var _ Target = (*Handler)(nil)

// New returns a handler whose inbox holds inboxSize bytes (power of two;
// 0 selects DefaultInboxSize).
func New(inboxSize int) *Handler {
	if inboxSize == 0 {
		inboxSize = DefaultInboxSize
	}
	return &Handler{inbox: shmring.New(inboxSize)}
}

// Bus context

func (h *Handler) OnReceive(p []byte) bool {
	n := len(p)
	if n == 0 || n > 1+MaxPayload {
		h.malformed.Add(1)
		return false
	}
	var fr [1 + 1 + MaxPayload]byte
	fr[0] = byte(n)
	copy(fr[1:], p)
	if !h.inbox.TryWriteAll(fr[:1+n]) {
		h.dropped.Add(1)
		return false
	}
	if n == 1 {
		h.sels.Add(1)
	}
	h.received.Add(1)
	return true
}

// OnRequest returns 0 until the most recent selection has been picked up by
// an idle tick; afterwards it returns the cached bytes, which may be up to
// one tick old.
func (h *Handler) OnRequest(dst []byte) int {
	h.requests.Add(1)
	v := h.resp.Load()
	if v&respValid == 0 || byte(v>>respSelShift) != byte(h.sels.Load()) {
		return 0
	}
	b := [ResponseLen]byte{byte(v), byte(v >> 8)}
	return copy(dst, b[:])
}

// Idle loop

// Readable fires when a write lands in an empty inbox.
func (h *Handler) Readable() <-chan struct{} { return h.inbox.Readable() }

// Pending reports whether a write is waiting for Tick.
func (h *Handler) Pending() bool { return h.inbox.Available() > 0 }

// Tick applies every pending transaction to f in arrival order and returns
// how many it handled. eng is reconfigured after each applied write; level is
// the current output level, cached alongside a selected register.
func (h *Handler) Tick(f *regfile.File, eng Reconfigurer, level uint8, now uint32) int {
	handled := 0
	for h.latch() {
		if h.state == AwaitResponse {
			h.latched++
		}
		h.dispatch(f, eng, level, now)
		handled++
	}
	return handled
}

// Apply runs one transaction from the idle loop itself, bypassing the
// inbox. A selection made this way does not change what the bus reads.
func (h *Handler) Apply(f *regfile.File, eng Reconfigurer, p []byte, level uint8, now uint32) error {
	if len(p) == 0 || len(p) > 1+MaxPayload {
		h.malformed.Add(1)
		return errcode.InvalidPayload
	}
	h.load(p)
	if h.state == AwaitResponse {
		h.state = Idle
		return nil
	}
	h.dispatch(f, eng, level, now)
	return nil
}

func (h *Handler) dispatch(f *regfile.File, eng Reconfigurer, level uint8, now uint32) {
	switch h.state {
	case AwaitResponse:
		h.selected, h.sel = true, h.reg
		h.store(f, level)
	case ApplyWrite:
		h.apply(f)
		eng.Reconfigure(f, now)
	}
	h.state = Idle
}

// Refresh re-reads the selected register into the response cache, so reads
// follow the register file at tick granularity.
func (h *Handler) Refresh(f *regfile.File, level uint8) {
	if h.selected {
		h.store(f, level)
	}
}

func (h *Handler) State() State { return h.state }

func (h *Handler) Stats() Stats {
	return Stats{
		Received:  h.received.Load(),
		Requests:  h.requests.Load(),
		Dropped:   h.dropped.Load(),
		Malformed: h.malformed.Load(),
		Resets:    h.resets.Load(),
	}
}

// latch pulls one frame out of the inbox and moves to its state.
func (h *Handler) latch() bool {
	hdr, ok := h.inbox.Peek()
	if !ok {
		return false
	}
	n := int(hdr)
	if h.inbox.Available() < 1+n {
		return false
	}
	h.inbox.TryReadInto(h.frame[:1+n])
	h.load(h.frame[1 : 1+n])
	return true
}

// load decodes one transaction and moves to its state.
func (h *Handler) load(p []byte) {
	h.reg = p[0]
	h.n = copy(h.payload[:], p[1:])
	if h.n == 0 {
		h.state = AwaitResponse
	} else {
		h.state = ApplyWrite
	}
}

func (h *Handler) apply(f *regfile.File) {
	if h.reg == regfile.RegControl && h.payload[0] == regfile.ResetMagic {
		f.Reset()
		h.resets.Add(1)
		return
	}
	start := int(mathx.Min(h.reg, regfile.Size-1))
	for i := 0; i < h.n && start+i < regfile.Size; i++ {
		f.Set(byte(start+i), h.payload[i])
	}
}

func (h *Handler) store(f *regfile.File, level uint8) {
	h.resp.Store(uint32(byte(h.latched))<<respSelShift | respValid | uint32(level)<<8 | uint32(f.Get(h.sel)))
}
