package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/core/engine"
	"github.com/mufasadb/poe-level-tracker/internal/observability"
	"github.com/mufasadb/poe-level-tracker/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the polling loop with an HTTP API",
	Long: `Run the polling loop and expose tracker state over HTTP: health
probes, stored snapshots, tracked-account management, and live character
lookups. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logger, err := observability.NewServerLogger("poetracker", cfg.Logging.Level)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, tr, _, err := buildTracker(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		seedAccounts(ctx, st, cfg.Poll.Accounts, logger)

		poller := engine.NewPoller(tr, st, buildNotifier(cfg, logger), logger)
		poller.Leagues = cfg.Poll.Leagues
		if cfg.Poll.Interval > 0 {
			poller.Interval = cfg.Poll.Interval
		}
		if cfg.Poll.AccountDelay > 0 {
			poller.AccountDelay = cfg.Poll.AccountDelay
		}

		srv := server.New(cfg.Server.Host, cfg.Server.Port, st, tr, versionInfo.Version, logger)

		pollerDone := make(chan struct{})
		go func() {
			defer close(pollerDone)
			_ = poller.Run(ctx)
		}()

		serverErr := make(chan error, 1)
		go func() {
			serverErr <- srv.Start()
		}()

		select {
		case <-ctx.Done():
		case err := <-serverErr:
			if err != nil {
				logger.Error("http server failed", zap.Error(err))
				stop()
				<-pollerDone
				return err
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown incomplete", zap.Error(err))
		}

		<-pollerDone
		logger.Info("tracker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
