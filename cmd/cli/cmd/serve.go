package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cloudkeeper/internal/app"
	"cloudkeeper/internal/config"
	"cloudkeeper/internal/logging"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pricing API over HTTP",
	Long: `Start the HTTP API.

Endpoints:
  GET  /health, /ready, /version, /metrics
  POST /api/v1/signup, /api/v1/verify, /api/v1/login, /api/v1/logout
  GET  /api/v1/instances, /api/v1/regions   (login required)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		if serveAddr != "" {
			cfg.Server.Address = serveAddr
		}
		defer logging.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, cleanup, err := app.NewServer(ctx, cfg, logging.L())
		if err != nil {
			return err
		}
		defer cleanup()

		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
}
