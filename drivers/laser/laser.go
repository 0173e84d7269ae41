// Package laser is the controller-side driver for the laser PWM peripheral.
//
// Writes are single transactions and take effect on the peripheral's next
// idle tick. Reads are two-phase:
//
//	d.Select(reg)                 // write the register index (fast)
//	v, lvl, err := d.Collect()    // errcode.NotReady until the peripheral has ticked
//
// ReadRegister performs select + settle + bounded polling and returns
// errcode.Timeout rather than bytes from an earlier selection.
package laser

import (
	"errors"
	"time"

	"lasercode-go/errcode"
	"lasercode-go/services/laser/regfile"
	"lasercode-go/types"

	"tinygo.org/x/drivers"
)

// Address is the peripheral's default 7-bit bus address.
const Address = 0x14

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x14 if zero.
	Address uint16
	// Settle is waited after a select before the first read. Default 1 ms.
	Settle time.Duration
	// PollInterval separates read attempts. Default 200 µs.
	PollInterval time.Duration
	// ReadTimeout bounds the polling after Settle. Default 2 ms.
	ReadTimeout time.Duration
}

// ConfigFrom converts the "controller" config section.
func ConfigFrom(c types.ControllerConfig, addr uint16) Config {
	return Config{
		Address:      addr,
		Settle:       time.Duration(c.SettleUs) * time.Microsecond,
		PollInterval: time.Duration(c.PollUs) * time.Microsecond,
		ReadTimeout:  time.Duration(c.ReadTimeoutMs) * time.Millisecond,
	}
}

type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg  Config
	wbuf [1 + 4]byte
	rbuf [2]byte
}

// New creates a driver on an already configured bus. It does not touch the
// peripheral.
func New(bus drivers.I2C) Device {
	d := Device{bus: bus, Address: Address}
	d.Configure()
	return d
}

// Configure applies cfg, filling defaults for zero fields.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.Address != 0 {
		d.Address = c.Address
	}
	if c.Settle <= 0 {
		c.Settle = time.Millisecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Microsecond
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 2 * time.Millisecond
	}
	c.Address = d.Address
	d.cfg = c
}

// ---- writes ----

// Reset restores the register defaults.
func (d *Device) Reset() error {
	return d.WriteRegister(regfile.RegControl, regfile.ResetMagic)
}

// SetOn sets the on/off bit. The reset field is written as zero.
func (d *Device) SetOn(on bool) error {
	var f regfile.File
	f.SetOn(on)
	return d.WriteRegister(regfile.RegControl, f[regfile.RegControl])
}

func (d *Device) SetIntensity(v uint8) error {
	return d.WriteRegister(regfile.RegIntensity, v)
}

// SetModePeriod writes mode and period index together; the peripheral
// clamps out-of-range values.
func (d *Device) SetModePeriod(m regfile.Mode, periodIndex int) error {
	return d.WriteRegister(regfile.RegWave, regfile.WaveByte(m, periodIndex))
}

func (d *Device) WriteRegister(reg, v byte) error {
	return d.WriteRegisters(reg, v)
}

// WriteRegisters writes vals to consecutive registers starting at reg in one
// transaction. Bytes past the end of the register file are ignored by the
// peripheral.
func (d *Device) WriteRegisters(reg byte, vals ...byte) error {
	if len(vals) == 0 || len(vals) > len(d.wbuf)-1 {
		return errcode.Wrap(errcode.InvalidParams, "laser.write", nil)
	}
	d.wbuf[0] = reg
	n := 1 + copy(d.wbuf[1:], vals)
	if err := d.bus.Tx(d.Address, d.wbuf[:n], nil); err != nil {
		return errcode.Wrap(errcode.Of(err), "laser.write", err)
	}
	return nil
}

// ---- reads ----

// Select chooses the register returned by later reads.
func (d *Device) Select(reg byte) error {
	d.wbuf[0] = reg
	if err := d.bus.Tx(d.Address, d.wbuf[:1], nil); err != nil {
		return errcode.Wrap(errcode.Of(err), "laser.select", err)
	}
	return nil
}

// Collect makes one read attempt. It returns errcode.NotReady while the
// peripheral has not yet answered the latest selection.
func (d *Device) Collect() (value, level byte, err error) {
	if err := d.bus.Tx(d.Address, nil, d.rbuf[:]); err != nil {
		return 0, 0, err
	}
	return d.rbuf[0], d.rbuf[1], nil
}

// ReadRegister selects reg and polls until the peripheral answers or the
// timeout elapses. level is the peripheral's output intensity.
func (d *Device) ReadRegister(reg byte) (value, level byte, err error) {
	if err := d.Select(reg); err != nil {
		return 0, 0, err
	}
	time.Sleep(d.cfg.Settle)
	deadline := time.Now().Add(d.cfg.ReadTimeout)
	for {
		value, level, err = d.Collect()
		switch {
		case err == nil:
			return value, level, nil
		case errors.Is(err, errcode.NotReady):
			if time.Now().After(deadline) {
				return 0, 0, errcode.Wrap(errcode.Timeout, "laser.read", err)
			}
			time.Sleep(d.cfg.PollInterval)
		default:
			return 0, 0, errcode.Wrap(errcode.Of(err), "laser.read", err)
		}
	}
}

// Registers reads the whole register file. level is from the last read.
func (d *Device) Registers() (f regfile.File, level byte, err error) {
	for i := range f {
		if f[i], level, err = d.ReadRegister(byte(i)); err != nil {
			return f, 0, err
		}
	}
	return f, level, nil
}

// ReadState reads and decodes the register file.
func (d *Device) ReadState() (regfile.Fields, error) {
	f, _, err := d.Registers()
	if err != nil {
		return regfile.Fields{}, err
	}
	return regfile.Decode(f), nil
}
