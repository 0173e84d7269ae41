package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"lasercode-go/bus"
	"lasercode-go/types"

	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------
// String constants
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Document
// -----------------------------------------------------------------------------

type Config struct {
	Laser      types.LaserConfig      `yaml:"laser"`
	Heartbeat  types.HeartbeatConfig  `yaml:"heartbeat"`
	Controller types.ControllerConfig `yaml:"controller"`
}

// Load reads, validates and normalises the YAML document at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a YAML document, rejecting unknown keys, then validates and
// normalises it.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)
	return &cfg, nil
}

// Embedded returns the built-in document for device.
func Embedded(device string) (*Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, errors.New("no embedded config for device: " + device)
	}
	return Parse(raw)
}

// Sections lists the retained payload for each "config/<section>" topic.
func (c *Config) Sections() map[string]any {
	return map[string]any{
		"laser":      c.Laser,
		"heartbeat":  c.Heartbeat,
		"controller": c.Controller,
	}
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
	cfg  *Config
}

// NewConfigService publishes cfg, or the embedded document for the device
// named in the start context when cfg is nil.
func NewConfigService(cfg *Config) *ConfigService {
	return &ConfigService{Name: serviceName, cfg: cfg}
}

// publishConfig publishes every section as a retained message.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	cfg := s.cfg
	if cfg == nil {
		device, _ := ctx.Value(CtxDeviceKey).(string)
		if device == "" {
			return errors.New("missing device ID in context")
		}
		var err error
		if cfg, err = Embedded(device); err != nil {
			return err
		}
	}
	for k, v := range cfg.Sections() {
		conn.Publish(conn.NewMessage(bus.T(configPrefix, k), v, true))
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			println("[config] publish failed:", err.Error())
		}
	}()
}
