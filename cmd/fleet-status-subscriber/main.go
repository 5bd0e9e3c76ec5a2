// cmd/fleet-status-subscriber/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/config"
	"github.com/sua-org/gopro-fleet/internal/mqttclient"
)

func main() {
	cfgFile := flag.String("config", "", "arquivo de configuração")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().Timestamp().Str("component", "subscriber").Logger()

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("aviso: não foi possível carregar .env")
	}

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("erro ao ler configuração")
	}

	base := strings.TrimSuffix(cfg.MQTT.BaseTopic, "/")
	topics := []string{
		base + "/status",
		base + "/cameras/+/status",
		base + "/events",
	}

	mqttCli, err := mqttclient.NewClient(mqttclient.Config{
		Host:     cfg.MQTT.Host,
		Port:     cfg.MQTT.Port,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
		ClientID: cfg.MQTT.ClientID + "-subscriber",
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("erro ao conectar no MQTT")
	}
	defer mqttCli.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	for _, topic := range topics {
		if err := mqttCli.Subscribe(topic, 1, func(topic string, payload []byte) {
			handleMessage(logger, topic, payload)
		}); err != nil {
			logger.Fatal().Err(err).Str("topic", topic).Msg("erro ao assinar tópico")
		}
		logger.Info().Str("topic", topic).Msg("subscribed")
	}

	<-ctx.Done()
	logger.Info().Msg("sinal recebido, encerrando subscriber...")
	time.Sleep(500 * time.Millisecond)
}

func handleMessage(logger zerolog.Logger, topic string, payload []byte) {
	var raw map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		logger.Warn().Err(err).Str("topic", topic).Str("payload", string(payload)).Msg("payload não é JSON")
		return
	}

	switch {
	case strings.HasSuffix(topic, "/events"):
		logger.Info().
			Str("type", getString(raw, "Type")).
			Str("camera", getString(raw, "Camera")).
			Interface("recording", raw["Recording"]).
			Interface("meta", raw["Meta"]).
			Msg("[EVENT]")
	case strings.Contains(topic, "/cameras/"):
		logger.Info().
			Str("camera", getString(raw, "ssid")).
			Str("reported", getString(raw, "reported")).
			Str("desired", getString(raw, "desired")).
			Interface("in_sync", raw["in_sync"]).
			Msg("[CAMERA]")
	default:
		logger.Info().
			Str("status", getString(raw, "status")).
			Str("hostname", getString(raw, "hostname")).
			Interface("recording", raw["recording"]).
			Interface("cameras", raw["cameras"]).
			Interface("cpu_percent", raw["cpu_percent"]).
			Msg("[FLEET]")
	}
}

func getString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
