// cmd/gopro-fleet/main.go
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sua-org/gopro-fleet/internal/config"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "gopro-fleet",
	Short: "Mantém uma frota de GoPros gravando de acordo com um gatilho",
	Long: `Controla várias câmeras GoPro, cada uma numa interface Wi-Fi própria,
e liga/desliga a gravação de todas conforme o gatilho (GPIO, arquivo de flag
ou tópico MQTT).`,
	SilenceUsage: true,
	RunE:         runMonitor,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "arquivo de configuração (padrão: ./gopro-fleet.yaml ou /etc/gopro-fleet/gopro-fleet.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "nível de log (sobrepõe log.level)")

	rootCmd.AddCommand(runCmd, statusCmd)
}

// loadConfig carrega .env (se existir), o arquivo e o ambiente, e monta o logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	logger := newLogger("info")

	if err := godotenv.Load(); err != nil {
		logger.Debug().Err(err).Msg("aviso: não foi possível carregar .env")
	} else {
		logger.Info().Msg(".env carregado com sucesso")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, logger, err
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger = newLogger(level)

	if err := cfg.Validate(); err != nil {
		return nil, logger, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stdout.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(lvl).With().Timestamp().Logger()
}
