package config

const (
	DefaultAddress       = 0x14
	DefaultPWMPin        = 1
	DefaultPWMFreqHz     = 1000
	DefaultTickUs        = 500
	DefaultTelemetryMs   = 250
	DefaultInboxSize     = 32
	DefaultHeartbeat     = 2
	DefaultReadTimeoutMs = 2
	DefaultSettleUs      = 1000
	DefaultPollUs        = 200
)

// Normalize fills defaults. It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	l := &cfg.Laser
	setDefault(&l.Address, DefaultAddress)
	setDefault(&l.PWMFreqHz, DefaultPWMFreqHz)
	setDefault(&l.TickUs, DefaultTickUs)
	setDefault(&l.InboxSize, DefaultInboxSize)
	// pwm_pin 0 and telemetry_ms 0 are meaningful; only the document
	// defaults set them.

	setDefault(&cfg.Heartbeat.Interval, DefaultHeartbeat)

	c := &cfg.Controller
	setDefault(&c.ReadTimeoutMs, DefaultReadTimeoutMs)
	setDefault(&c.SettleUs, DefaultSettleUs)
	setDefault(&c.PollUs, DefaultPollUs)
}

func setDefault[T comparable](p *T, def T) {
	var zero T
	if *p == zero {
		*p = def
	}
}
