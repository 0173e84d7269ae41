package waveform

import (
	"math"
	"testing"

	"lasercode-go/services/laser/regfile"
)

func configured(mode regfile.Mode, intensity uint8, periodIndex int) regfile.File {
	f := regfile.New()
	f.SetIntensity(intensity)
	f.SetPeriodIndex(periodIndex)
	f.SetMode(mode)
	return f
}

func TestSteadyTracksIntensity(t *testing.T) {
	f := configured(regfile.Steady, 90, 0)
	e := New()
	if got := e.Tick(&f, 0); got != 90 {
		t.Fatalf("steady = %d, want 90", got)
	}
	f.SetIntensity(20)
	if got := e.Tick(&f, 10); got != 20 {
		t.Fatalf("steady after change = %d, want 20", got)
	}
}

func TestBlinkAlternatesEveryHalfPeriod(t *testing.T) {
	const period = 64_000
	f := configured(regfile.Blink, 200, 0)
	e := New()
	e.Reconfigure(&f, 0)

	out := map[uint32]int16{}
	for now := uint32(0); now <= 4*period; now += 100 {
		out[now] = e.Tick(&f, now)
	}
	if out[0] != 0 {
		t.Fatalf("blink must start dark, got %d", out[0])
	}
	// Toggles land at 16000, 48000, 80000, ...; sample between edges.
	for _, ts := range []uint32{20_000, 84_000, 148_000} {
		a, b := out[ts], out[ts+period/2]
		if a != 200 || b != 0 {
			t.Fatalf("t=%d: got %d then %d, want 200 then 0", ts, a, b)
		}
	}
}

func TestPulseTriangle(t *testing.T) {
	f := configured(regfile.Pulse, 160, regfile.DefaultPeriodIndex)
	e := New()
	e.Reconfigure(&f, 0)
	if got := e.Tick(&f, 0); got != 0 {
		t.Fatalf("pulse must start at 0, got %d", got)
	}

	seq := []int16{0}
	now := uint32(0)
	for len(seq) < 33 {
		now = e.Snapshot().NextUs
		seq = append(seq, e.Tick(&f, now))
	}
	for i := 0; i <= 16; i++ {
		if want := int16(10 * i); seq[i] != want {
			t.Fatalf("up seq[%d] = %d, want %d (seq=%v)", i, seq[i], want, seq)
		}
	}
	for i := 17; i <= 32; i++ {
		if want := int16(160 - 10*(i-16)); seq[i] != want {
			t.Fatalf("down seq[%d] = %d, want %d (seq=%v)", i, seq[i], want, seq)
		}
	}
}

func TestPulseStaysInBounds(t *testing.T) {
	for _, lvl := range []uint8{1, 15, 16, 100, 255} {
		f := configured(regfile.Pulse, lvl, 0)
		e := New()
		e.Reconfigure(&f, 0)
		prev := e.Tick(&f, 0)
		step := int16(lvl) / PulseLevels
		for now := uint32(0); now < 2_000_000; now += 250 {
			got := e.Tick(&f, now)
			if got < 0 || got > int16(lvl) {
				t.Fatalf("lvl=%d: out of bounds %d", lvl, got)
			}
			d := got - prev
			if d < 0 {
				d = -d
			}
			if d != 0 && d != step && got != 0 && got != int16(lvl) {
				t.Fatalf("lvl=%d: jump %d -> %d", lvl, prev, got)
			}
			prev = got
		}
	}
}

func TestOffForcesZero(t *testing.T) {
	for _, mode := range []regfile.Mode{regfile.Steady, regfile.Blink, regfile.Pulse} {
		f := configured(mode, 255, 0)
		f.SetOn(false)
		e := New()
		e.Reconfigure(&f, 0)
		for now := uint32(0); now < 200_000; now += 500 {
			if got := e.Tick(&f, now); got != 0 {
				t.Fatalf("%v: off tick at %d = %d", mode, now, got)
			}
		}
	}
}

func TestBlinkSurvivesCounterWrap(t *testing.T) {
	f := configured(regfile.Blink, 50, 0) // 64ms
	e := New()
	start := uint32(math.MaxUint32 - 1000)
	e.Reconfigure(&f, start)

	// Deadline is start+16000, past the wrap. A plain greater-than would fire
	// immediately here.
	if got := e.Tick(&f, start+500); got != 0 {
		t.Fatalf("toggled early at wrap: %d", got)
	}
	if got := e.Tick(&f, start+16_000); got != 50 {
		t.Fatalf("missed toggle after wrap: %d", got)
	}
}

func TestReconfigureOnlyOnChange(t *testing.T) {
	f := configured(regfile.Pulse, 160, 0)
	e := New()
	e.Reconfigure(&f, 0)
	e.Tick(&f, e.Snapshot().NextUs)
	before := e.Snapshot()

	f.SetOn(false)
	f.SetOn(true)
	e.Reconfigure(&f, 99)
	if e.Snapshot() != before {
		t.Fatalf("unrelated write restarted waveform: %+v -> %+v", before, e.Snapshot())
	}

	f.SetIntensity(80)
	e.Reconfigure(&f, 100)
	s := e.Snapshot()
	if s.Current != 0 || s.Step != 5 || s.NextUs != 100+regfile.Period(0)/4/PulseLevels {
		t.Fatalf("restart after intensity change = %+v", s)
	}
}

func TestBlinkResumesAfterLongOff(t *testing.T) {
	f := configured(regfile.Blink, 80, 0) // 64ms
	e := New()
	e.Reconfigure(&f, 0)

	f.SetOn(false)
	var now uint32
	for ; now < 2_400_000_000; now += 100_000_000 {
		if got := e.Tick(&f, now); got != 0 {
			t.Fatalf("off tick at %d = %d", now, got)
		}
	}

	f.SetOn(true)
	toggles := 0
	prev := e.Tick(&f, now)
	for end := now + 10_000_000; now != end; now += 1000 {
		got := e.Tick(&f, now)
		if got != prev {
			toggles++
		}
		prev = got
	}
	// 10 s at a 32 ms half period.
	if toggles < 300 {
		t.Fatalf("toggles in 10s after re-enable = %d (next=%d)", toggles, e.Snapshot().NextUs)
	}
}

func TestPulseResumesAfterLongOff(t *testing.T) {
	f := configured(regfile.Pulse, 160, 0)
	e := New()
	e.Reconfigure(&f, 0)
	f.SetOn(false)
	for now := uint32(0); now < 3_000_000_000; now += 50_000_000 {
		e.Tick(&f, now)
	}
	f.SetOn(true)
	if got := e.Tick(&f, 3_000_000_000); got != 10 {
		t.Fatalf("first step after re-enable = %d, want 10", got)
	}
}
