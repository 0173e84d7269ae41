// Package waveform derives the output intensity from the register file and a
// free-running microsecond clock.
//
// STEADY holds the configured intensity. BLINK toggles between 0 and the
// configured intensity every half period. PULSE walks a 16-level triangle
// wave from 0 up to the configured intensity and back, one level every
// 1/32 of the period. The first event after a reconfiguration comes after a
// quarter of the usual interval.
package waveform

import (
	"lasercode-go/services/laser/regfile"
	"lasercode-go/x/ramp"
	"lasercode-go/x/timex"
)

// PulseLevels is the number of steps from 0 to the configured intensity.
const PulseLevels = 16

// State is a copy of the engine's derived state.
type State struct {
	Mode      regfile.Mode
	Intensity int16 // configured
	Current   int16
	Step      int16
	PeriodUs  uint32
	NextUs    uint32
}

// Engine owns the derived waveform state. It is not safe for concurrent use;
// the idle loop is its only caller.
type Engine struct {
	mode       regfile.Mode
	intensity  int16
	period     uint32
	current    int16
	step       int16
	next       uint32
	configured bool
}

func New() *Engine { return &Engine{} }

// Reconfigure picks up mode, intensity and period from f. The trajectory is
// restarted only if one of them changed since the last call.
func (e *Engine) Reconfigure(f *regfile.File, now uint32) {
	mode, lvl, per := f.Mode(), int16(f.Intensity()), f.PeriodUs()
	if e.configured && mode == e.mode && lvl == e.intensity && per == e.period {
		return
	}
	e.configured = true
	e.mode, e.intensity, e.period = mode, lvl, per

	switch mode {
	case regfile.Steady:
		e.step = 0
		e.current = lvl
		e.next = now
	case regfile.Blink:
		e.step = 0
		e.current = 0
		e.next = now + per/4
	case regfile.Pulse:
		e.step = lvl / PulseLevels
		e.current = 0
		e.next = now + per/4/PulseLevels
	}
}

// Tick advances the trajectory to now and returns the level to drive.
// With the on/off bit clear it returns 0 and the trajectory holds; an
// overdue deadline is pulled up to now so it cannot fall 2^31 µs behind.
func (e *Engine) Tick(f *regfile.File, now uint32) int16 {
	e.Reconfigure(f, now)
	if !f.On() {
		if timex.Reached(now, e.next) {
			e.next = now
		}
		return 0
	}
	switch e.mode {
	case regfile.Steady:
		e.current = e.intensity
	case regfile.Blink:
		if timex.Reached(now, e.next) {
			if e.current == 0 {
				e.current = e.intensity
			} else {
				e.current = 0
			}
			e.next = now + e.period/2
		}
	case regfile.Pulse:
		if timex.Reached(now, e.next) {
			e.current, e.step = ramp.Bounce(e.current, e.step, e.intensity)
			e.next = now + e.period/2/PulseLevels
		}
	}
	return e.current
}

func (e *Engine) Snapshot() State {
	return State{
		Mode:      e.mode,
		Intensity: e.intensity,
		Current:   e.current,
		Step:      e.step,
		PeriodUs:  e.period,
		NextUs:    e.next,
	}
}
