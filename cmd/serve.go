package cmd

import (
	"context"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/httpapi"
)

var (
	serveAddr      string
	serveNoMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve due requests, progress and completion over HTTP",
	Long: `Start the HTTP API.

  GET  /ping
  GET  /metrics
  GET  /api/v1/accounts?game_id=
  GET  /api/v1/accounts/:id/daily-requests?date=
  GET  /api/v1/accounts/:id/progress?date=
  POST /api/v1/accounts/:id/levels/:level/complete
  POST /api/v1/accounts/:id/purchases/:event/complete
  GET  /api/v1/today?date=`,
	Example: `  dailyctl serve
  dailyctl serve --addr 127.0.0.1:9000 --no-metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := appConfig.Serve.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := httpapi.New(store, scheduler, planner, httpapi.Options{
			Metrics: appConfig.Serve.Metrics && !serveNoMetrics,
		})
		exitOn(serveRun(cmd.Context(), srv, addr))
		return nil
	},
}

// serveRun listens until ctx is done or SIGINT/SIGTERM arrives.
func serveRun(ctx context.Context, srv *httpapi.Server, addr string) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return srv.Shutdown()
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config serve.addr)")
	serveCmd.Flags().BoolVar(&serveNoMetrics, "no-metrics", false, "disable the /metrics endpoint")
	rootCmd.AddCommand(serveCmd)
}
