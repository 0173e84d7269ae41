// Package output drives the laser's PWM channel from a 0-255 level.
package output

import "lasercode-go/x/mathx"

// MaxLevel is the full-on logical level.
const MaxLevel = 255

// PWM is one hardware channel. Set takes a duty in [0..Top()].
type PWM interface {
	Set(duty uint32)
	Top() uint32
}

type Config struct {
	// ActiveLow inverts the physical duty (0 => full on).
	ActiveLow bool
}

// Driver is a one-way sink: it never fails and never reads back.
type Driver struct {
	pwm       PWM
	activeLow bool
	level     uint8
}

func New(pwm PWM, cfg Config) *Driver {
	return &Driver{pwm: pwm, activeLow: cfg.ActiveLow}
}

// Write clamps level to [0..MaxLevel] and drives the channel.
func (d *Driver) Write(level int16) {
	l := mathx.ClampU8(level)
	d.level = l
	d.pwm.Set(d.toPhys(l))
}

// Level is the last logical level written.
func (d *Driver) Level() uint8 { return d.level }

func (d *Driver) toPhys(l uint8) uint32 {
	top := d.pwm.Top()
	duty := mathx.MapU32(uint32(l), 0, MaxLevel, 0, top)
	if d.activeLow {
		return top - duty
	}
	return duty
}
