// Package regfile is the peripheral's register file: four addressable bytes
// that double as packed bitfields.
//
//	byte 0  bits 0-2 reset (7 triggers a reset), bit 3 on/off
//	byte 1  intensity 0-255
//	byte 2  bits 0-3 period index (0-9), bits 4-5 mode, bits 6-7 unused
//	byte 3  reserved
//
// All packing goes through the field descriptors below; nothing else in the
// repo shifts or masks register bytes.
package regfile

import "lasercode-go/x/mathx"

// Register addresses.
const (
	RegControl   = 0
	RegIntensity = 1
	RegWave      = 2
	RegReserved  = 3

	Size = 4
)

// ResetMagic written alone to RegControl restores the defaults.
const ResetMagic = 7

// DefaultPeriodIndex is the period selected after boot or reset.
const DefaultPeriodIndex = 6

// Mode is the intensity trajectory shape.
type Mode uint8

const (
	Steady Mode = iota
	Blink
	Pulse

	maxMode = Pulse
)

func (m Mode) String() string {
	switch m {
	case Steady:
		return "steady"
	case Blink:
		return "blink"
	case Pulse:
		return "pulse"
	default:
		return "unknown"
	}
}

// ParseMode accepts the lower-case names and the single-letter tags S/B/P.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "steady", "S", "s":
		return Steady, true
	case "blink", "B", "b":
		return Blink, true
	case "pulse", "P", "p":
		return Pulse, true
	}
	return Steady, false
}

// field locates a bitfield: width bits starting at shift inside byte reg.
type field struct {
	reg   uint8
	shift uint8
	width uint8
}

var (
	fReset       = field{reg: RegControl, shift: 0, width: 3}
	fOn          = field{reg: RegControl, shift: 3, width: 1}
	fIntensity   = field{reg: RegIntensity, shift: 0, width: 8}
	fPeriodIndex = field{reg: RegWave, shift: 0, width: 4}
	fMode        = field{reg: RegWave, shift: 4, width: 2}
)

func (f field) mask() byte { return byte(1<<f.width-1) << f.shift }

func (f field) get(r *File) uint8 { return (r[f.reg] & f.mask()) >> f.shift }

// put stores v truncated to the field width; other bits are untouched.
func (f field) put(r *File, v uint8) {
	m := f.mask()
	r[f.reg] = r[f.reg]&^m | (v<<f.shift)&m
}

// File is the raw register file.
type File [Size]byte

// New returns a register file holding the boot defaults.
func New() File {
	var f File
	f.Reset()
	return f
}

// Reset restores the defaults: intensity 0, on, period index 6, steady.
func (f *File) Reset() {
	*f = File{}
	fPeriodIndex.put(f, DefaultPeriodIndex)
	fOn.put(f, 1)
}

func clampReg(i byte) int { return int(mathx.Min(i, Size-1)) }

// Get returns the byte at i; i is clamped into the file.
func (f *File) Get(i byte) byte { return f[clampReg(i)] }

// Set stores v at i; i is clamped into the file. Writes to RegWave have
// their period index and mode clamped to valid values, leaving the unused
// bits as written.
func (f *File) Set(i byte, v byte) {
	r := clampReg(i)
	f[r] = v
	if r == RegWave {
		f.SetPeriodIndex(int(fPeriodIndex.get(f)))
		f.SetMode(Mode(fMode.get(f)))
	}
}

// Accessors.

func (f *File) ResetField() uint8 { return fReset.get(f) }
func (f *File) On() bool          { return fOn.get(f) != 0 }
func (f *File) Intensity() uint8  { return fIntensity.get(f) }
func (f *File) PeriodIndex() int  { return int(fPeriodIndex.get(f)) }
func (f *File) Mode() Mode        { return Mode(fMode.get(f)) }

// PeriodUs resolves the selected period in µs.
func (f *File) PeriodUs() uint32 { return Period(f.PeriodIndex()) }

func (f *File) SetOn(on bool) {
	var v uint8
	if on {
		v = 1
	}
	fOn.put(f, v)
}

func (f *File) SetIntensity(v uint8) { fIntensity.put(f, v) }

func (f *File) SetPeriodIndex(i int) {
	fPeriodIndex.put(f, uint8(mathx.Clamp(i, 0, NumPeriods-1)))
}

func (f *File) SetMode(m Mode) { fMode.put(f, uint8(mathx.Min(m, maxMode))) }

// Fields is the decoded view of a File.
type Fields struct {
	Reset       uint8
	On          bool
	Intensity   uint8
	PeriodIndex int
	Mode        Mode
}

// Decode unpacks every bitfield of f.
func Decode(f File) Fields {
	return Fields{
		Reset:       f.ResetField(),
		On:          f.On(),
		Intensity:   f.Intensity(),
		PeriodIndex: f.PeriodIndex(),
		Mode:        f.Mode(),
	}
}

// Encode packs x into a File. Out-of-range period index and mode are
// clamped; Reset is truncated to its three bits.
func Encode(x Fields) File {
	var f File
	fReset.put(&f, x.Reset)
	f.SetOn(x.On)
	f.SetIntensity(x.Intensity)
	f.SetPeriodIndex(x.PeriodIndex)
	f.SetMode(x.Mode)
	return f
}

// WaveByte packs mode and period index the way they sit in RegWave.
func WaveByte(m Mode, periodIndex int) byte {
	var f File
	f.SetPeriodIndex(periodIndex)
	f.SetMode(m)
	return f[RegWave]
}
