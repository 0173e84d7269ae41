//go:build rp2040

// pico-laser runs the laser peripheral on an RP2040: I2C0 in target mode on
// GP4/GP5, the laser on a PWM pin.
package main

import (
	"context"
	"machine"
	"runtime"
	"time"

	"lasercode-go/bus"
	"lasercode-go/services/config"
	"lasercode-go/services/heartbeat"
	"lasercode-go/services/laser"
	"lasercode-go/services/laser/output"
	"lasercode-go/services/laser/txn"
	"lasercode-go/x/conv"
	"lasercode-go/x/timex"
)

// Attempts to let the idle loop answer a read before replying with zeros.
const requestSpins = 2000

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("[main] boot")

	cfg, err := config.Embedded("pico")
	if err != nil {
		println("[main] config:", err.Error())
		return
	}
	lc := cfg.Laser

	pwm, err := output.OpenPin(machine.Pin(lc.PWMPin), timex.PeriodFromHz(lc.PWMFreqHz))
	if err != nil {
		println("[main] pwm:", err.Error())
		return
	}
	dev := laser.New(lc, pwm)

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.GP4,
		SCL:       machine.GP5,
		Mode:      machine.I2CModeTarget,
	}); err != nil {
		println("[main] i2c configure:", err.Error())
		return
	}
	if err := i2c.Listen(lc.Address); err != nil {
		println("[main] i2c listen:", err.Error())
		return
	}
	var hb [2]byte
	println("[main] i2c target at 0x" + string(conv.U8Hex(hb[:], byte(lc.Address))))

	ctx := context.Background()
	b := bus.NewBus(4)
	config.NewConfigService(cfg).Start(ctx, b.NewConnection("config"))
	(&heartbeat.Service{}).Start(ctx, b.NewConnection("heartbeat"))

	go serveTarget(i2c, dev.Target())
	dev.Run(ctx, b.NewConnection("laser"))
}

// serveTarget is the bus context: it only hands bytes to the target.
func serveTarget(i2c *machine.I2C, t txn.Target) {
	var rx [8]byte
	var tx [txn.ResponseLen]byte
	for {
		evt, n, err := i2c.WaitForEvent(rx[:])
		if err != nil {
			println("[i2c] event error:", err.Error())
			continue
		}
		switch evt {
		case machine.I2CReceive:
			t.OnReceive(rx[:n])
		case machine.I2CRequest:
			// The controller is clock-stretched while we wait.
			m := t.OnRequest(tx[:])
			for i := 0; m == 0 && i < requestSpins; i++ {
				runtime.Gosched()
				m = t.OnRequest(tx[:])
			}
			if m == 0 {
				clear(tx[:])
				m = len(tx)
			}
			i2c.Reply(tx[:m])
		case machine.I2CFinish:
		}
	}
}
