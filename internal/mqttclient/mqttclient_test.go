package mqttclient

import (
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

// fakeToken já vem concluído.
type fakeToken struct{ err error }

func (fakeToken) Wait() bool                     { return true }
func (fakeToken) WaitTimeout(time.Duration) bool { return true }
func (fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

// fakeMQTT grava as assinaturas; o resto da interface não é usado.
type fakeMQTT struct {
	mqtt.Client
	subscribed []string
	handlers   map[string]mqtt.MessageHandler
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, cb mqtt.MessageHandler) mqtt.Token {
	f.subscribed = append(f.subscribed, topic)
	if f.handlers == nil {
		f.handlers = make(map[string]mqtt.MessageHandler)
	}
	f.handlers[topic] = cb
	return fakeToken{}
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func newTestClient(cli mqtt.Client) *Client {
	return &Client{client: cli, log: zerolog.Nop(), subs: make(map[string]subscription)}
}

func TestClient_ResubscribesAfterReconnect(t *testing.T) {
	first := &fakeMQTT{}
	c := newTestClient(first)

	var got []string
	if err := c.Subscribe("gopro-fleet/trigger/set", 1, func(topic string, payload []byte) {
		got = append(got, topic+"="+string(payload))
	}); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	// reconexão: o handler de conexão recebe o cliente já reconectado
	second := &fakeMQTT{}
	c.resubscribe(second)

	if len(second.subscribed) != 1 || second.subscribed[0] != "gopro-fleet/trigger/set" {
		t.Fatalf("expected trigger topic subscribed again, got %v", second.subscribed)
	}

	second.handlers["gopro-fleet/trigger/set"](second, fakeMessage{topic: "gopro-fleet/trigger/set", payload: []byte("ON")})
	if len(got) != 1 || got[0] != "gopro-fleet/trigger/set=ON" {
		t.Errorf("expected original handler to receive the message, got %v", got)
	}
}

func TestClient_ResubscribeWithoutSubscriptions(t *testing.T) {
	c := newTestClient(&fakeMQTT{})
	cli := &fakeMQTT{}

	c.resubscribe(cli)

	if len(cli.subscribed) != 0 {
		t.Errorf("expected nothing to resubscribe, got %v", cli.subscribed)
	}
}
