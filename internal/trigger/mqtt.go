package trigger

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Subscriber é o pedaço do cliente MQTT usado aqui.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error
}

// Remote é um gatilho de override comandado por um tópico MQTT.
// O último valor recebido vale até chegar outro.
type Remote struct {
	topic  string
	active atomic.Bool
	log    zerolog.Logger
}

func NewRemote(sub Subscriber, topic string, logger zerolog.Logger) (*Remote, error) {
	r := &Remote{
		topic: topic,
		log:   logger.With().Str("component", "trigger").Str("topic", topic).Logger(),
	}
	if err := sub.Subscribe(topic, 1, r.handle); err != nil {
		return nil, err
	}
	r.log.Info().Msg("remote trigger subscribed")
	return r, nil
}

func (r *Remote) Name() string { return "mqtt:" + r.topic }

func (r *Remote) Triggered(context.Context) (bool, error) {
	return r.active.Load(), nil
}

func (r *Remote) handle(_ string, payload []byte) {
	on, ok := ParseSwitch(string(payload))
	if !ok {
		r.log.Warn().Str("payload", string(payload)).Msg("ignoring unknown remote trigger payload")
		return
	}
	if r.active.Swap(on) != on {
		r.log.Info().Bool("active", on).Msg("remote trigger changed")
	}
}

// ParseSwitch entende 1/0, on/off, true/false, start/stop.
func ParseSwitch(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on", "true", "start":
		return true, true
	case "0", "off", "false", "stop":
		return false, true
	default:
		return false, false
	}
}
