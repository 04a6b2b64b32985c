// Package cmd implements the poetracker CLI.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool

	// Version info set by the main package via ldflags.
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by the main package to set build information.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

var rootCmd = &cobra.Command{
	Use:   "poetracker",
	Short: "Track Path of Exile character level-ups",
	Long: `poetracker polls the public Path of Exile character API for tracked
accounts, detects level increases between polls, and notifies configured
sinks. Use the subcommands to check accounts, manage tracking, and run the
polling loop.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.poetracker.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads the config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".poetracker")
		viper.SetConfigType("yaml")
		if home, err := homeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.SetEnvPrefix("POETRACKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults and environment carry it.
	_ = viper.ReadInConfig()

	setDefaults()
}

func setDefaults() {
	// Polling defaults
	viper.SetDefault("poll.interval", "300s")
	viper.SetDefault("poll.account_delay", "2s")
	viper.SetDefault("poll.leagues", []string{})
	viper.SetDefault("poll.accounts", []string{})

	// Remote API defaults
	viper.SetDefault("api.base_url", "https://www.pathofexile.com/character-window/get-characters")
	viper.SetDefault("api.realm", "pc")
	viper.SetDefault("api.user_agent", "poe-level-tracker/1.0")
	viper.SetDefault("api.timeout", "30s")

	// Rate governing defaults, tunable per deployment
	viper.SetDefault("rate.min_spacing", "1s")
	viper.SetDefault("rate.default_backoff", "60s")
	viper.SetDefault("rate.warn_threshold", 0.8)
	viper.SetDefault("rate.check_interval", "1s")

	// Store defaults
	viper.SetDefault("store.driver", "file")
	viper.SetDefault("store.path", "data/tracked_characters.json")
	viper.SetDefault("store.accounts_path", "")
	viper.SetDefault("store.url", "")
	viper.SetDefault("store.auth_token", "")

	// Notification defaults
	viper.SetDefault("notify.webhook_url", "")
	viper.SetDefault("notify.username", "PoE Level Tracker")

	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdown_timeout", "10s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
}
