package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/camera"
	"github.com/sua-org/gopro-fleet/internal/config"
	"github.com/sua-org/gopro-fleet/internal/fleet"
	"github.com/sua-org/gopro-fleet/internal/journal"
	"github.com/sua-org/gopro-fleet/internal/mqttclient"
	"github.com/sua-org/gopro-fleet/internal/route"
	"github.com/sua-org/gopro-fleet/internal/shell"
	"github.com/sua-org/gopro-fleet/internal/telemetry"
	"github.com/sua-org/gopro-fleet/internal/transport"
	"github.com/sua-org/gopro-fleet/internal/trigger"
)

// app junta tudo que o processo precisa fechar ao sair.
type app struct {
	monitor *fleet.Monitor
	metrics *telemetry.Metrics
	mqtt    *mqttclient.Client
	closers []func() error
	log     zerolog.Logger
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("erro ao liberar recurso")
		}
	}
	if a.mqtt != nil {
		a.mqtt.Close()
	}
}

// buildApp monta sessões, gatilhos e publicadores a partir da configuração.
// withTrigger=false pula os gatilhos (usado pelo comando status).
func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, withTrigger bool) (*app, error) {
	a := &app{
		metrics: telemetry.NewMetrics(),
		log:     logger.With().Str("component", "main").Logger(),
	}

	if cfg.MQTT.Enabled {
		cli, err := mqttclient.NewClient(mqttclient.Config{
			Host:        cfg.MQTT.Host,
			Port:        cfg.MQTT.Port,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			ClientID:    cfg.MQTT.ClientID,
			WillTopic:   cfg.MQTT.BaseTopic + "/status",
			WillPayload: fleet.OfflinePayload(),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("erro ao conectar no MQTT: %w", err)
		}
		a.mqtt = cli
	}

	// MinIO é opcional; se falhar, continua sem arquivo de eventos.
	var store journal.Store = journal.NopStore{}
	if cfg.Minio.Enabled {
		ms, err := journal.NewMinioStore(ctx, journal.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			Prefix:    cfg.Minio.Prefix,
		}, logger)
		if err != nil {
			a.log.Warn().Err(err).Msg("aviso: MinIO não inicializado")
		} else {
			store = ms
		}
	}

	var pub fleet.Publisher
	if a.mqtt != nil {
		pub = a.mqtt
	}
	reporter := fleet.NewStatusReporter(pub, store, cfg.MQTT.BaseTopic, logger)

	runner := shell.NewExec(cfg.UseSudo, cfg.Session.RequestTimeout)
	// gatttool usa só o prazo por escrita do GATTTool.
	radioRunner := shell.NewExec(cfg.UseSudo, 0)
	deps := camera.Deps{
		Transport: transport.NewClient(cfg.Session.RequestTimeout, logger),
		Link:      camera.NewIWLink(runner),
		Radio:     camera.NewGATTTool(radioRunner, cfg.Session.RadioTimeout),
		Waker:     camera.NewMagicPacket(cfg.CameraAddress, cfg.WakePort),
		Observer:  camera.Observers{a.metrics, reporter},
	}

	var src trigger.Source = trigger.Any{}
	if withTrigger {
		sources, err := a.buildTriggers(cfg, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		src = sources
	}

	a.monitor = fleet.New(fleet.Config{
		TickInterval: cfg.Monitor.TickInterval,
		CheckStatus:  cfg.Monitor.CheckStatus,
	}, route.NewIPRoute(runner, cfg.CameraAddress, logger), src, logger,
		fleet.WithHooks(a.metrics),
		fleet.WithReporter(reporter),
	)

	for _, id := range cfg.Cameras {
		a.monitor.AddCamera(camera.NewSession(id, cfg.CameraAddress, deps, cfg.Session.Timing(), logger))
	}
	return a, nil
}

func (a *app) buildTriggers(cfg *config.Config, logger zerolog.Logger) (trigger.Any, error) {
	var sources trigger.Any

	if cfg.Trigger.GPIOChip != "" {
		g, err := trigger.OpenGPIO(cfg.Trigger.GPIOChip, cfg.Trigger.GPIOLine)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g.Close)
		sources = append(sources, g)
	}
	if cfg.Trigger.FlagPath != "" {
		sources = append(sources, trigger.NewFlagFile(cfg.Trigger.FlagPath))
	}
	if cfg.Trigger.MQTTTopic != "" {
		if a.mqtt == nil {
			return nil, fmt.Errorf("remote trigger %s needs MQTT", cfg.Trigger.MQTTTopic)
		}
		r, err := trigger.NewRemote(a.mqtt, cfg.Trigger.MQTTTopic, logger)
		if err != nil {
			return nil, fmt.Errorf("subscribe remote trigger: %w", err)
		}
		sources = append(sources, r)
	}

	for _, s := range sources {
		a.log.Info().Str("source", s.Name()).Msg("trigger source enabled")
	}
	return sources, nil
}
