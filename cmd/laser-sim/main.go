// cmd/laser-sim/main.go
//
// laser-sim runs the peripheral against the controller driver over an
// in-process bus and logs what the controller reads back.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"lasercode-go/bus"
	ctrl "lasercode-go/drivers/laser"
	"lasercode-go/services/config"
	"lasercode-go/services/heartbeat"
	"lasercode-go/services/laser"
	"lasercode-go/services/laser/output"
	"lasercode-go/services/laser/regfile"
	"lasercode-go/x/i2cloop"
	"lasercode-go/x/strx"
)

type step struct {
	name string
	do   func(d *ctrl.Device) error
	hold time.Duration
}

var script = []step{
	{"reset", func(d *ctrl.Device) error { return d.Reset() }, 0},
	{"intensity 160", func(d *ctrl.Device) error { return d.SetIntensity(160) }, 300 * time.Millisecond},
	{"blink 125ms", func(d *ctrl.Device) error { return d.SetModePeriod(regfile.Blink, 1) }, time.Second},
	{"pulse 64ms", func(d *ctrl.Device) error { return d.SetModePeriod(regfile.Pulse, 0) }, time.Second},
	{"off", func(d *ctrl.Device) error { return d.SetOn(false) }, 200 * time.Millisecond},
	{"wave byte 200", func(d *ctrl.Device) error { return d.WriteRegister(regfile.RegWave, 200) }, 0},
	{"steady 100", func(d *ctrl.Device) error {
		if err := d.SetOn(true); err != nil {
			return err
		}
		if err := d.SetModePeriod(regfile.Steady, regfile.DefaultPeriodIndex); err != nil {
			return err
		}
		return d.SetIntensity(100)
	}, 300 * time.Millisecond},
}

func main() {
	var (
		cfg *config.Config
		err error
	)
	if len(os.Args) > 1 {
		cfg, err = config.Load(os.Args[1])
	} else {
		cfg, err = config.Embedded(strx.Coalesce(os.Getenv("LASER_DEVICE"), "sim"))
	}
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --------------------
	// Peripheral
	// --------------------

	b := bus.NewBus(8)
	config.NewConfigService(cfg).Start(ctx, b.NewConnection("config"))
	(&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	rec := output.NewRecorder(0)
	dev := laser.New(cfg.Laser, rec)
	done := make(chan struct{})
	go func() {
		defer close(done)
		dev.Run(ctx, b.NewConnection("laser"))
	}()

	loop := i2cloop.New()
	loop.Attach(dev.Address(), dev.Target())

	// --------------------
	// Controller
	// --------------------

	d := ctrl.New(loop)
	d.Configure(ctrl.ConfigFrom(cfg.Controller, cfg.Laser.Address))

	for _, s := range script {
		if err := s.do(&d); err != nil {
			log.Fatalf("%s: %v", s.name, err)
		}
		f, lvl, err := d.Registers()
		if err != nil {
			log.Fatalf("%s: read back: %v", s.name, err)
		}
		x := regfile.Decode(f)
		log.Printf("%-14s regs=% x on=%t intensity=%d mode=%s period=%dus level=%d",
			s.name, f[:], x.On, x.Intensity, x.Mode, regfile.Period(x.PeriodIndex), lvl)
		time.Sleep(s.hold)
	}

	h := rec.History()
	log.Printf("output: %d distinct duties, %d bus transactions", len(h), loop.Count())

	cancel()
	<-done
}
