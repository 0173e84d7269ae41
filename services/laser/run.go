package laser

import (
	"context"
	"encoding/json"
	"time"

	"lasercode-go/bus"
	"lasercode-go/errcode"
	"lasercode-go/types"
	"lasercode-go/x/conv"
	"lasercode-go/x/timex"
)

var (
	topicConfig = bus.Topic{"config", "laser"}
	topicState  = bus.Topic{"laser", "state"}
	topicCtrl   = bus.Topic{"laser", "control", "+"}
)

// Run drives the idle loop until ctx is cancelled. It wakes on the inbox
// readable edge and on the poll ticker, publishes retained laser/state at the
// telemetry interval and follows config/laser.
//
// Control requests (reply with {"ok": ...}):
//
//	laser/control/state   -> types.LaserState
//	laser/control/write   payload []byte, applied as one write transaction
func (s *Service) Run(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	ctrlSub := conn.Subscribe(topicCtrl)
	defer conn.Unsubscribe(cfgSub)
	defer conn.Unsubscribe(ctrlSub)

	poll := time.NewTicker(tickDur(s.cfg.TickUs))
	defer poll.Stop()

	var telemetry <-chan time.Time
	tele := newTicker(s.cfg.TelemetryMs)
	if tele != nil {
		defer tele.Stop()
		telemetry = tele.C
	}

	var hb [2]byte
	// Subscriptions are live before the first laser/state goes out.
	println("[laser] running at 0x" + string(conv.U8Hex(hb[:], byte(s.cfg.Address))))
	s.Step(s.now())
	s.publishState(conn)

	for {
		select {
		case <-ctx.Done():
			println("[laser] stopping")
			return

		case <-s.txn.Readable():
			s.Step(s.now())

		case <-poll.C:
			s.Step(s.now())

		case <-telemetry:
			s.publishState(conn)

		case msg := <-cfgSub.Channel():
			var cfg types.LaserConfig
			if err := decodePayload(msg.Payload, &cfg); err != nil {
				println("[laser] config decode failed:", err.Error())
				continue
			}
			s.applyConfig(cfg)
			poll.Reset(tickDur(s.cfg.TickUs))
			if tele != nil {
				tele.Stop()
			}
			if tele = newTicker(s.cfg.TelemetryMs); tele != nil {
				telemetry = tele.C
			} else {
				telemetry = nil
			}

		case msg := <-ctrlSub.Channel():
			s.handleControl(conn, msg)
		}
	}
}

func (s *Service) handleControl(conn *bus.Connection, msg *bus.Message) {
	method, _ := msg.Topic[2].(string)
	switch method {
	case "state":
		s.Step(s.now())
		replyOK(conn, msg, map[string]any{"state": s.State(timex.NowMs())})
	case "write":
		p, ok := msg.Payload.([]byte)
		if !ok {
			replyErr(conn, msg, errcode.InvalidPayload)
			return
		}
		now := s.now()
		if err := s.txn.Apply(&s.regs, s.wave, p, s.out.Level(), now); err != nil {
			replyErr(conn, msg, errcode.Of(err))
			return
		}
		s.Step(now)
		replyOK(conn, msg, nil)
	default:
		replyErr(conn, msg, errcode.Unsupported)
	}
}

func (s *Service) publishState(conn *bus.Connection) {
	conn.Publish(conn.NewMessage(topicState, s.State(timex.NowMs()), true))
}

// ---- helpers ----

func replyOK(conn *bus.Connection, req *bus.Message, extra map[string]any) {
	if !req.CanReply() {
		return
	}
	m := map[string]any{"ok": true}
	for k, v := range extra {
		m[k] = v
	}
	conn.Reply(req, m, false)
}

func replyErr(conn *bus.Connection, req *bus.Message, c errcode.Code) {
	if !req.CanReply() {
		return
	}
	conn.Reply(req, map[string]any{"ok": false, "error": string(c)}, false)
}

func tickDur(us uint32) time.Duration {
	if us == 0 {
		us = 500
	}
	return time.Duration(us) * time.Microsecond
}

func newTicker(ms uint32) *time.Ticker {
	if ms == 0 {
		return nil
	}
	return time.NewTicker(time.Duration(ms) * time.Millisecond)
}

// decodePayload accepts the typed struct, JSON bytes or a generic map.
func decodePayload[T any](src any, dst *T) error {
	switch v := src.(type) {
	case T:
		*dst = v
		return nil
	case *T:
		if v == nil {
			return errcode.InvalidPayload
		}
		*dst = *v
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
