package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var jsonOutput bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Consulta uma vez o estado de gravação de cada câmera",
	Long: `Liga a rota de cada câmera, conecta se for preciso e mostra se ela está
gravando. Não envia comandos de gravação.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, err := buildApp(ctx, cfg, logger, false)
		if err != nil {
			return err
		}
		defer a.Close()

		statuses := a.monitor.Probe(ctx)

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(statuses)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "SSID\tINTERFACE\tSTATE\tCHECKED")
		fmt.Fprintln(w, "----\t---------\t-----\t-------")
		for _, st := range statuses {
			checked := "-"
			if !st.CheckedAt.IsZero() {
				checked = st.CheckedAt.Local().Format(time.TimeOnly)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.SSID, st.Interface, st.State, checked)
		}
		return w.Flush()
	},
}

func init() {
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "saída em JSON")
}
