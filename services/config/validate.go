package config

import "fmt"

// Validate checks configuration correctness.
// It performs declarative validation only and does not mutate cfg.
// Zero values are accepted and mean "use the default".
func Validate(cfg *Config) error {
	l := cfg.Laser

	if l.Address != 0 && (l.Address < 0x08 || l.Address > 0x77) {
		return fmt.Errorf("laser: address 0x%02x outside 7-bit range 0x08..0x77", l.Address)
	}
	if l.PWMPin < 0 || l.PWMPin > 29 {
		return fmt.Errorf("laser: pwm_pin %d out of range", l.PWMPin)
	}
	if l.PWMFreqHz > 1_000_000 {
		return fmt.Errorf("laser: pwm_freq_hz %d too high", l.PWMFreqHz)
	}
	if n := l.InboxSize; n != 0 && (n < 8 || n&(n-1) != 0) {
		return fmt.Errorf("laser: inbox_size %d must be a power of two >= 8", n)
	}
	if l.TickUs > 1_000_000 {
		return fmt.Errorf("laser: tick_us %d exceeds one second", l.TickUs)
	}

	if cfg.Heartbeat.Interval < 0 {
		return fmt.Errorf("heartbeat: interval %d is negative", cfg.Heartbeat.Interval)
	}

	c := cfg.Controller
	if c.PollUs != 0 && c.ReadTimeoutMs != 0 && uint64(c.PollUs) > uint64(c.ReadTimeoutMs)*1000 {
		return fmt.Errorf("controller: poll_us %d exceeds read_timeout_ms %d", c.PollUs, c.ReadTimeoutMs)
	}
	return nil
}
