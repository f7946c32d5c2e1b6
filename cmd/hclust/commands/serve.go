package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TrevorS/hclust/internal/server"
	"github.com/TrevorS/hclust/logger"
)

func newServeCmd(a *app) *cobra.Command {
	var address string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket session server",
		Long: `Start the WebSocket session server.

Clients connect to /ws and exchange JSON messages: tables, mine, save, files,
load, home and close. GET /healthz reports liveness. The server stops on
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				a.cfg.Server.Address = address
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, err := a.reader()
			if err != nil {
				return err
			}
			st, err := a.store(ctx)
			if err != nil {
				return err
			}

			srv := server.New(a.cfg, r, st, logger.ComponentLogger("server"))
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Listen address (default from config)")
	return cmd
}
