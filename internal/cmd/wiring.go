package cmd

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/config"
	"github.com/mufasadb/poe-level-tracker/internal/core"
	"github.com/mufasadb/poe-level-tracker/internal/core/engine"
	"github.com/mufasadb/poe-level-tracker/internal/core/poeapi"
	"github.com/mufasadb/poe-level-tracker/internal/core/store"
	"github.com/mufasadb/poe-level-tracker/internal/core/tracker"
)

func homeDir() (string, error) {
	return os.UserHomeDir()
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

// newGovernor builds the rate governor from the configured policy.
func newGovernor(cfg *config.Config, logger *zap.Logger) *engine.Governor {
	return engine.NewGovernor(engine.Policy{
		MinSpacing:     cfg.Rate.MinSpacing,
		DefaultBackoff: cfg.Rate.DefaultBackoff,
		WarnThreshold:  cfg.Rate.WarnThreshold,
		CheckInterval:  cfg.Rate.CheckInterval,
	}, logger)
}

// newClient builds the character source over a governor.
func newClient(cfg *config.Config, governor *engine.Governor) *poeapi.Client {
	client := poeapi.NewClient(governor)
	if cfg.API.BaseURL != "" {
		client.BaseURL = cfg.API.BaseURL
	}
	if cfg.API.UserAgent != "" {
		client.UserAgent = cfg.API.UserAgent
	}
	if cfg.API.Timeout > 0 {
		client.HTTPClient = &http.Client{Timeout: cfg.API.Timeout}
	}
	return client
}

// buildTracker wires store, governor, source, and detector. The returned
// store must be closed by the caller.
func buildTracker(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store.Store, *tracker.Tracker, *engine.Governor, error) {
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	realm, err := core.ParseRealm(cfg.API.Realm)
	if err != nil {
		_ = st.Close()
		return nil, nil, nil, err
	}

	governor := newGovernor(cfg, logger)
	client := newClient(cfg, governor)

	tr := tracker.New(client, st, logger)
	tr.Realm = realm

	return st, tr, governor, nil
}

// seedAccounts merges configured initial accounts into the store. Invalid
// entries are logged and skipped.
func seedAccounts(ctx context.Context, st store.Store, accounts []string, logger *zap.Logger) {
	for _, account := range accounts {
		if err := st.AddAccount(ctx, account); err != nil {
			logger.Warn("seeding tracked account failed",
				zap.String("account", account), zap.Error(err))
		}
	}
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
