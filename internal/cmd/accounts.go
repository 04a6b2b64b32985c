package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mufasadb/poe-level-tracker/internal/core"
	"github.com/mufasadb/poe-level-tracker/internal/observability"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the tracked account list",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.NewCLILogger(verbose)
		defer func() { _ = logger.Sync() }()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, _, _, err := buildTracker(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		accounts, err := st.ListAccounts(cmd.Context())
		if err != nil {
			return err
		}

		if len(accounts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no accounts tracked")
			return nil
		}
		for _, account := range accounts {
			fmt.Fprintln(cmd.OutOrStdout(), account)
		}
		return nil
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <account>",
	Short: "Add an account to tracking",
	Long: `Add an account (Name#1234) to the tracked set. The account is probed
first; private or unknown accounts are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.NewCLILogger(verbose)
		defer func() { _ = logger.Sync() }()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		account := args[0]
		st, tr, _, err := buildTracker(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		characters, err := tr.Probe(cmd.Context(), account)
		if err != nil {
			var remote *core.RemoteError
			if errors.As(err, &remote) {
				return errors.New(remote.Message())
			}
			return err
		}

		if err := st.AddAccount(cmd.Context(), account); err != nil {
			return err
		}

		logger.Info("account added",
			zap.String("account", account),
			zap.Int("characters", len(characters)))
		fmt.Fprintf(cmd.OutOrStdout(), "tracking %s (%d characters)\n", account, len(characters))
		return nil
	},
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <account>",
	Short: "Remove an account from tracking",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.NewCLILogger(verbose)
		defer func() { _ = logger.Sync() }()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, _, _, err := buildTracker(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.RemoveAccount(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "stopped tracking %s\n", args[0])
		return nil
	},
}

func init() {
	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsAddCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	rootCmd.AddCommand(accountsCmd)
}
