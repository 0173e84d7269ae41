// Package laser is the peripheral: a four-byte register file written over a
// two-wire bus, turned into a STEADY, BLINK or PULSE intensity on a PWM pin.
//
// The bus side only copies bytes (see txn). Everything else happens in Step,
// one idle-loop tick, which is the single mutator of the register file and
// the waveform state.
package laser

import (
	"lasercode-go/services/laser/output"
	"lasercode-go/services/laser/regfile"
	"lasercode-go/services/laser/txn"
	"lasercode-go/services/laser/waveform"
	"lasercode-go/types"
	"lasercode-go/x/timex"
)

type Service struct {
	cfg  types.LaserConfig
	regs regfile.File
	txn  *txn.Handler
	wave *waveform.Engine
	out  *output.Driver
	pwm  output.PWM
	now  timex.Micros
}

// New builds the peripheral with its register file at defaults, driving
// sink. cfg is expected to be normalised.
func New(cfg types.LaserConfig, sink output.PWM) *Service {
	s := &Service{
		cfg:  cfg,
		regs: regfile.New(),
		txn:  txn.New(cfg.InboxSize),
		wave: waveform.New(),
		pwm:  sink,
		out:  output.New(sink, output.Config{ActiveLow: cfg.ActiveLow}),
		now:  timex.NewMicros(0),
	}
	return s
}

// WithClock replaces the microsecond counter used by Run.
func (s *Service) WithClock(c timex.Micros) *Service {
	s.now = c
	return s
}

// Target is the bus-context surface to hand to the bus transport.
func (s *Service) Target() txn.Target { return s.txn }

// Address is the configured 7-bit bus address.
func (s *Service) Address() uint16 { return s.cfg.Address }

// Step runs one idle tick at now: pending transactions are applied, the
// waveform advances, the output is driven and the read cache refreshed.
func (s *Service) Step(now uint32) {
	s.txn.Tick(&s.regs, s.wave, s.out.Level(), now)
	s.out.Write(s.wave.Tick(&s.regs, now))
	s.txn.Refresh(&s.regs, s.out.Level())
}

// Registers is a copy of the register file.
func (s *Service) Registers() regfile.File { return s.regs }

// Level is the output level last written.
func (s *Service) Level() uint8 { return s.out.Level() }

// State snapshots the peripheral for telemetry.
func (s *Service) State(tsMs int64) types.LaserState {
	f := regfile.Decode(s.regs)
	w := s.wave.Snapshot()
	st := s.txn.Stats()
	return types.LaserState{
		Registers: s.regs,
		Fields: types.LaserFields{
			On:          f.On,
			Intensity:   f.Intensity,
			Mode:        f.Mode.String(),
			PeriodIndex: f.PeriodIndex,
			PeriodUs:    regfile.Period(f.PeriodIndex),
		},
		Level: s.out.Level(),
		Wave: types.LaserWave{
			Current: w.Current,
			Step:    w.Step,
			NextUs:  w.NextUs,
		},
		Stats: types.LaserStats{
			Received:  st.Received,
			Requests:  st.Requests,
			Dropped:   st.Dropped,
			Malformed: st.Malformed,
			Resets:    st.Resets,
		},
		TS: tsMs,
	}
}

// applyConfig takes the runtime-adjustable parts of cfg. The inbox size and
// address are fixed at construction.
func (s *Service) applyConfig(cfg types.LaserConfig) {
	if cfg.ActiveLow != s.cfg.ActiveLow {
		s.out = output.New(s.pwm, output.Config{ActiveLow: cfg.ActiveLow})
	}
	cfg.InboxSize = s.cfg.InboxSize
	cfg.Address = s.cfg.Address
	s.cfg = cfg
}
