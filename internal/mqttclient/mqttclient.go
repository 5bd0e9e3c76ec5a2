package mqttclient

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

type Client struct {
	client mqtt.Client
	log    zerolog.Logger

	// Com CleanSession o broker esquece as assinaturas a cada reconexão.
	mu   sync.Mutex
	subs map[string]subscription
}

type subscription struct {
	qos     byte
	handler mqtt.MessageHandler
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string

	// Publicado retido em WillTopic se a conexão cair sem Close.
	WillTopic   string
	WillPayload string
}

func NewClient(cfg Config, logger zerolog.Logger) (*Client, error) {
	broker := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
	log := logger.With().Str("component", "mqtt").Str("broker", broker).Logger()
	c := &Client{log: log, subs: make(map[string]subscription)}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("connection lost, reconnecting")
	})
	opts.SetOnConnectHandler(func(cli mqtt.Client) {
		log.Info().Msg("connected")
		c.resubscribe(cli)
	})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.WillTopic != "" {
		opts.SetWill(cfg.WillTopic, cfg.WillPayload, 1, true)
	}

	cli := mqtt.NewClient(opts)
	token := cli.Connect()
	if ok := token.WaitTimeout(10 * time.Second); !ok {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	c.client = cli
	return c, nil
}

func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	token := c.client.Publish(topic, qos, retained, payload)
	if ok := token.WaitTimeout(5 * time.Second); !ok {
		return fmt.Errorf("mqtt publish timeout on %s", topic)
	}
	return token.Error()
}

// PublishJSON serializa v e publica com QoS 1.
func (c *Client) PublishJSON(topic string, retained bool, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for %s: %w", topic, err)
	}
	return c.Publish(topic, 1, retained, b)
}

// Subscribe assina e guarda a assinatura para refazê-la após reconectar.
func (c *Client) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	sub := subscription{qos: qos, handler: func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	}}

	c.mu.Lock()
	c.subs[topic] = sub
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, sub.handler)
	token.Wait()
	return token.Error()
}

func (c *Client) resubscribe(cli mqtt.Client) {
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for topic, sub := range c.subs {
		subs[topic] = sub
	}
	c.mu.Unlock()

	for topic, sub := range subs {
		token := cli.Subscribe(topic, sub.qos, sub.handler)
		if ok := token.WaitTimeout(5 * time.Second); !ok {
			c.log.Warn().Str("topic", topic).Msg("resubscribe timeout")
			continue
		}
		if err := token.Error(); err != nil {
			c.log.Warn().Err(err).Str("topic", topic).Msg("resubscribe failed")
			continue
		}
		c.log.Info().Str("topic", topic).Msg("resubscribed")
	}
}

func (c *Client) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}
