//go:build rp2040 || rp2350

package output

import "machine"

// pwmGroup abstracts TinyGo's unexported *pwmGroup slice type.
type pwmGroup interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Pin is one RP2 PWM channel bound to a GPIO.
type Pin struct {
	grp pwmGroup
	ch  uint8
}

// OpenPin configures the slice owning pin at the given period (ns).
func OpenPin(pin machine.Pin, periodNs uint64) (*Pin, error) {
	grp := sliceFor(pin)
	if err := grp.Configure(machine.PWMConfig{Period: periodNs}); err != nil {
		return nil, err
	}
	ch, err := grp.Channel(pin)
	if err != nil {
		return nil, err
	}
	return &Pin{grp: grp, ch: ch}, nil
}

func (p *Pin) Top() uint32     { return p.grp.Top() }
func (p *Pin) Set(duty uint32) { p.grp.Set(p.ch, duty) }

// GPIO N sits on slice (N>>1)&7.
func sliceFor(pin machine.Pin) pwmGroup {
	switch (uint8(pin) >> 1) & 0x7 {
	case 0:
		return machine.PWM0
	case 1:
		return machine.PWM1
	case 2:
		return machine.PWM2
	case 3:
		return machine.PWM3
	case 4:
		return machine.PWM4
	case 5:
		return machine.PWM5
	case 6:
		return machine.PWM6
	default:
		return machine.PWM7
	}
}
