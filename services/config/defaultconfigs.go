package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw YAML bytes for that device
// -----------------------------------------------------------------------------

const cfgPico = `
laser:
  address: 0x14
  pwm_pin: 1
  pwm_freq_hz: 1000
  tick_us: 500
  telemetry_ms: 250
  inbox_size: 32
heartbeat:
  interval: 2
controller:
  read_timeout_ms: 2
  settle_us: 1000
  poll_us: 200
`

const cfgSim = `
laser:
  address: 0x14
  tick_us: 200
  telemetry_ms: 100
heartbeat:
  interval: 1
`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
}
