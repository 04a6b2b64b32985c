package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/config"
	"github.com/mufasadb/poe-level-tracker/internal/core/engine"
	"github.com/mufasadb/poe-level-tracker/internal/notify"
	"github.com/mufasadb/poe-level-tracker/internal/observability"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the polling loop",
	Long: `Poll every tracked account on the configured interval and send level-up
notifications to the configured sinks. Stops cleanly on SIGINT/SIGTERM:
no new cycle starts, the in-flight fetch finishes, and waits unblock.`,
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

		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}

		logger.Info("tracker stopped")
		return nil
	},
}

// buildNotifier assembles the notification fan-out: always the structured
// log, plus the webhook when one is configured.
func buildNotifier(cfg *config.Config, logger *zap.Logger) engine.Notifier {
	sinks := notify.Multi{&notify.LogNotifier{Logger: logger}}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Username))
	}
	return sinks
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
