package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sua-org/gopro-fleet/internal/telemetry"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitora o gatilho e mantém a frota no estado pedido (padrão)",
	RunE:  runMonitor,
}

func runMonitor(_ *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Metrics.Addr != "" {
		srv := telemetry.NewServer(cfg.Metrics.Addr, a.metrics, telemetry.SnapshotFunc(func() interface{} {
			return a.monitor.Snapshot()
		}), logger)
		go func() {
			if err := srv.Run(ctx); err != nil {
				a.log.Error().Err(err).Msg("servidor de métricas terminou com erro")
			}
		}()
	}

	err = a.monitor.Run(ctx)
	a.log.Info().Msg("sinal recebido, encerrando...")
	return err
}
