package txn

import (
	"errors"
	"sync"
	"testing"

	"lasercode-go/errcode"
	"lasercode-go/services/laser/regfile"
)

type fakeEngine struct{ calls int }

func (e *fakeEngine) Reconfigure(*regfile.File, uint32) { e.calls++ }

func read(t *testing.T, h *Handler) (byte, byte) {
	t.Helper()
	var buf [ResponseLen]byte
	if n := h.OnRequest(buf[:]); n != ResponseLen {
		t.Fatalf("OnRequest returned %d bytes", n)
	}
	return buf[0], buf[1]
}

func TestWriteThenSelectThenRead(t *testing.T) {
	h := New(0)
	f := regfile.New()
	eng := &fakeEngine{}

	h.OnReceive([]byte{2, 200})
	h.OnReceive([]byte{2})
	if got := h.Tick(&f, eng, 42, 0); got != 2 {
		t.Fatalf("handled %d, want 2", got)
	}
	if eng.calls != 1 {
		t.Fatalf("reconfigure calls = %d, want 1", eng.calls)
	}
	if v, lvl := read(t, h); v != 200 || lvl != 42 {
		t.Fatalf("read = %d,%d want 200,42", v, lvl)
	}
	if h.State() != Idle {
		t.Fatalf("state = %v after tick", h.State())
	}
}

func TestCallbacksDeferWork(t *testing.T) {
	h := New(0)
	f := regfile.New()
	h.OnReceive([]byte{regfile.RegIntensity, 99})
	if f.Intensity() != 0 {
		t.Fatal("register mutated inside callback")
	}
	if !h.Pending() {
		t.Fatal("write not pending")
	}
	h.Tick(&f, &fakeEngine{}, 0, 0)
	if f.Intensity() != 99 {
		t.Fatalf("intensity = %d after tick", f.Intensity())
	}
}

func TestReadBeforeAnySelectIsEmpty(t *testing.T) {
	h := New(0)
	var buf [2]byte
	if n := h.OnRequest(buf[:]); n != 0 {
		t.Fatalf("OnRequest = %d, want 0", n)
	}
	// Selected but not yet ticked: still empty.
	h.OnReceive([]byte{1})
	if n := h.OnRequest(buf[:]); n != 0 {
		t.Fatalf("OnRequest before tick = %d, want 0", n)
	}
}

func TestReadIsTickGranular(t *testing.T) {
	h := New(0)
	f := regfile.New()
	eng := &fakeEngine{}
	h.OnReceive([]byte{regfile.RegIntensity})
	h.Tick(&f, eng, 0, 0)

	h.OnReceive([]byte{regfile.RegIntensity, 120})
	if v, _ := read(t, h); v != 0 {
		t.Fatalf("read before tick = %d, want stale 0", v)
	}
	h.Tick(&f, eng, 0, 1)
	h.Refresh(&f, 0)
	if v, _ := read(t, h); v != 120 {
		t.Fatalf("read after tick = %d, want 120", v)
	}
}

func TestResetMagic(t *testing.T) {
	h := New(0)
	f := regfile.New()
	f.SetIntensity(77)
	f.SetMode(regfile.Blink)
	f.SetOn(false)
	eng := &fakeEngine{}

	h.OnReceive([]byte{regfile.RegControl, regfile.ResetMagic})
	h.Tick(&f, eng, 0, 0)
	if f != regfile.New() {
		t.Fatalf("after reset = % x", f[:])
	}
	if eng.calls != 1 || h.Stats().Resets != 1 {
		t.Fatalf("calls=%d resets=%d", eng.calls, h.Stats().Resets)
	}

	// 7 to any other register is an ordinary write.
	h.OnReceive([]byte{regfile.RegIntensity, regfile.ResetMagic})
	h.Tick(&f, eng, 0, 0)
	if f.Intensity() != 7 || h.Stats().Resets != 1 {
		t.Fatalf("intensity=%d resets=%d", f.Intensity(), h.Stats().Resets)
	}
}

func TestMultiByteWriteStopsAtEnd(t *testing.T) {
	h := New(0)
	f := regfile.New()
	h.OnReceive([]byte{regfile.RegIntensity, 10, regfile.WaveByte(regfile.Pulse, 3), 0xAA, 0xBB})
	h.Tick(&f, &fakeEngine{}, 0, 0)
	want := regfile.File{0x08, 10, 0x23, 0xAA}
	if f != want {
		t.Fatalf("file = % x, want % x", f[:], want[:])
	}
}

func TestOutOfRangeIndexClamps(t *testing.T) {
	h := New(0)
	f := regfile.New()
	h.OnReceive([]byte{40, 0x5A})
	h.OnReceive([]byte{40})
	h.Tick(&f, &fakeEngine{}, 0, 0)
	if f[regfile.RegReserved] != 0x5A {
		t.Fatalf("reserved = %#x", f[regfile.RegReserved])
	}
	if v, _ := read(t, h); v != 0x5A {
		t.Fatalf("read = %#x", v)
	}
}

func TestMalformedAndOverflowDropped(t *testing.T) {
	h := New(8)
	f := regfile.New()
	if h.OnReceive(nil) {
		t.Fatal("empty write accepted")
	}
	if h.OnReceive(make([]byte, 2+MaxPayload)) {
		t.Fatal("oversized write accepted")
	}
	if !h.OnReceive([]byte{1, 1, 2, 3, 4}) { // 6 bytes framed
		t.Fatal("first write refused")
	}
	if h.OnReceive([]byte{1, 9}) { // 3 more do not fit in 8
		t.Fatal("overflowing write accepted")
	}
	s := h.Stats()
	if s.Malformed != 2 || s.Dropped != 1 || s.Received != 1 {
		t.Fatalf("stats = %+v", s)
	}
	// The device keeps going.
	h.Tick(&f, &fakeEngine{}, 0, 0)
	if !h.OnReceive([]byte{1, 9}) {
		t.Fatal("write refused after drain")
	}
	h.Tick(&f, &fakeEngine{}, 0, 0)
	if f.Intensity() != 9 {
		t.Fatalf("intensity = %d", f.Intensity())
	}
}

func TestLatchStates(t *testing.T) {
	h := New(0)
	h.OnReceive([]byte{2})
	h.OnReceive([]byte{2, 5})
	if !h.latch() || h.state != AwaitResponse {
		t.Fatalf("select latched as %v", h.state)
	}
	if !h.latch() || h.state != ApplyWrite || h.reg != 2 || h.n != 1 || h.payload[0] != 5 {
		t.Fatalf("write latched as %v reg=%d n=%d", h.state, h.reg, h.n)
	}
	if h.latch() {
		t.Fatal("latched from empty inbox")
	}
}

func TestConcurrentBusContext(t *testing.T) {
	h := New(64)
	f := regfile.New()
	eng := &fakeEngine{}

	const writes = 500
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var buf [2]byte
		for i := 0; i < writes; {
			if h.OnReceive([]byte{regfile.RegIntensity, byte(i)}) {
				i++
			}
			h.OnRequest(buf[:])
		}
	}()

	applied := 0
	for applied < writes {
		applied += h.Tick(&f, eng, 0, 0)
	}
	wg.Wait()
	if f.Intensity() != byte((writes-1)%256) {
		t.Fatalf("final intensity = %d", f.Intensity())
	}
}

func TestStateString(t *testing.T) {
	if AwaitResponse.String() != "await_response" || State(9).String() != "unknown" {
		t.Fatal("State.String")
	}
}

func TestReselectHidesStaleBytes(t *testing.T) {
	h := New(0)
	f := regfile.New()
	f.SetIntensity(33)
	eng := &fakeEngine{}

	h.OnReceive([]byte{regfile.RegIntensity})
	h.Tick(&f, eng, 0, 0)
	if v, _ := read(t, h); v != 33 {
		t.Fatalf("read = %d", v)
	}

	h.OnReceive([]byte{regfile.RegWave})
	var buf [ResponseLen]byte
	if n := h.OnRequest(buf[:]); n != 0 {
		t.Fatalf("read after reselect returned %d bytes of the old register", n)
	}
	h.Refresh(&f, 0) // still caches the old selection
	if n := h.OnRequest(buf[:]); n != 0 {
		t.Fatalf("refresh of old selection visible: %d", n)
	}
	h.Tick(&f, eng, 0, 1)
	if v, _ := read(t, h); v != regfile.DefaultPeriodIndex {
		t.Fatalf("read reg 2 = %#x", v)
	}
}

func TestApplyFromIdleLoop(t *testing.T) {
	h := New(0)
	f := regfile.New()
	eng := &fakeEngine{}

	if err := h.Apply(&f, eng, []byte{regfile.RegIntensity, 42}, 0, 0); err != nil {
		t.Fatal(err)
	}
	if f.Intensity() != 42 || eng.calls != 1 {
		t.Fatalf("intensity=%d calls=%d", f.Intensity(), eng.calls)
	}
	if err := h.Apply(&f, eng, []byte{regfile.RegControl, regfile.ResetMagic}, 0, 0); err != nil {
		t.Fatal(err)
	}
	if f != regfile.New() {
		t.Fatalf("after reset = % x", f[:])
	}
	if err := h.Apply(&f, eng, nil, 0, 0); !errors.Is(err, errcode.InvalidPayload) {
		t.Fatalf("empty: %v", err)
	}
	if err := h.Apply(&f, eng, []byte{2}, 0, 0); err != nil || h.State() != Idle {
		t.Fatalf("select: %v %v", err, h.State())
	}
	if h.Pending() {
		t.Fatal("Apply went through the inbox")
	}
}
