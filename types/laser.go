package types

// ---- Configuration sections (retained on "config/<section>") ----

// LaserConfig is supplied on topic "config/laser".
type LaserConfig struct {
	Address     uint16 `yaml:"address" json:"address"` // 7-bit bus address
	PWMPin      int    `yaml:"pwm_pin" json:"pwm_pin"`
	PWMFreqHz   uint32 `yaml:"pwm_freq_hz" json:"pwm_freq_hz"`
	TickUs      uint32 `yaml:"tick_us" json:"tick_us"`           // idle loop poll interval
	TelemetryMs uint32 `yaml:"telemetry_ms" json:"telemetry_ms"` // 0 disables
	InboxSize   int    `yaml:"inbox_size" json:"inbox_size"`     // power of two
	ActiveLow   bool   `yaml:"active_low,omitempty" json:"active_low,omitempty"`
}

// HeartbeatConfig is supplied on topic "config/heartbeat".
type HeartbeatConfig struct {
	Interval int `yaml:"interval" json:"interval"` // seconds
}

// ControllerConfig tunes the controller-side driver.
type ControllerConfig struct {
	ReadTimeoutMs uint32 `yaml:"read_timeout_ms" json:"read_timeout_ms"`
	SettleUs      uint32 `yaml:"settle_us" json:"settle_us"`
	PollUs        uint32 `yaml:"poll_us" json:"poll_us"`
}

// ---- Peripheral state (retained on "laser/state") ----

type LaserFields struct {
	On          bool   `json:"on"`
	Intensity   uint8  `json:"intensity"`
	Mode        string `json:"mode"` // "steady", "blink", "pulse"
	PeriodIndex int    `json:"period_index"`
	PeriodUs    uint32 `json:"period_us"`
}

type LaserWave struct {
	Current int16  `json:"current"`
	Step    int16  `json:"step"`
	NextUs  uint32 `json:"next_us"`
}

type LaserStats struct {
	Received  uint32 `json:"received"`
	Requests  uint32 `json:"requests"`
	Dropped   uint32 `json:"dropped"`
	Malformed uint32 `json:"malformed"`
	Resets    uint32 `json:"resets"`
}

type LaserState struct {
	Registers [4]byte     `json:"registers"`
	Fields    LaserFields `json:"fields"`
	Level     uint8       `json:"level"` // output intensity 0..255
	Wave      LaserWave   `json:"wave"`
	Stats     LaserStats  `json:"stats"`
	TS        int64       `json:"ts_ms"`
}
