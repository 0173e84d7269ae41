package heartbeat

import (
	"context"
	"time"

	"lasercode-go/bus"
	"lasercode-go/types"
	"lasercode-go/x/conv"
)

var (
	topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}
	topicLaserState      = bus.Topic{"laser", "state"}
)

type Service struct {
	// Out receives each heartbeat line; nil prints to the console.
	Out func(line string)
}

func (s *Service) emit(line string) {
	if s.Out != nil {
		s.Out(line)
		return
	}
	println(line)
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	stateSub := conn.Subscribe(topicLaserState)
	defer conn.Unsubscribe(stateSub)

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()

	var last *types.LaserState

	// loop until context is cancelled, respond to tick, state and config changes
	for {
		select {
		case <-ctx.Done():
			s.emit("[heartbeat] stopping")
			return
		case t := <-tick.C:
			s.emit(Line(t, last))
		case msg := <-stateSub.Channel():
			if st, ok := msg.Payload.(types.LaserState); ok {
				last = &st
			}
		case msg := <-cfgSub.Channel():
			if iv, ok := interval(msg.Payload); ok {
				tick.Reset(iv)
				s.emit("[heartbeat] interval set to " + iv.String())
			}
		}
	}
}

// Line renders one heartbeat. st may be nil before the first laser/state.
func Line(t time.Time, st *types.LaserState) string {
	b := make([]byte, 0, 96)
	b = append(b, "[heartbeat] "...)
	b = t.AppendFormat(b, "15:04:05")
	if st == nil {
		return string(append(b, " laser=unknown"...))
	}
	var num [20]byte
	if st.Fields.On {
		b = append(b, " on "...)
	} else {
		b = append(b, " off "...)
	}
	b = append(b, st.Fields.Mode...)
	b = append(b, " level="...)
	b = append(b, conv.Utoa(num[:], uint64(st.Level))...)
	b = append(b, " regs="...)
	b = conv.AppendHexBytes(b, st.Registers[:])
	b = append(b, " rx="...)
	b = append(b, conv.Utoa(num[:], uint64(st.Stats.Received))...)
	if st.Stats.Dropped+st.Stats.Malformed > 0 {
		b = append(b, " bad="...)
		b = append(b, conv.Utoa(num[:], uint64(st.Stats.Dropped+st.Stats.Malformed))...)
	}
	return string(b)
}

func interval(p any) (time.Duration, bool) {
	var secs float64
	switch v := p.(type) {
	case types.HeartbeatConfig:
		secs = float64(v.Interval)
	case map[string]any:
		switch iv := v["interval"].(type) {
		case float64:
			secs = iv
		case int:
			secs = float64(iv)
		default:
			return 0, false
		}
	default:
		return 0, false
	}
	if secs <= 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
