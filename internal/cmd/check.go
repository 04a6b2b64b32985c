package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mufasadb/poe-level-tracker/internal/core"
	"github.com/mufasadb/poe-level-tracker/internal/observability"
	"github.com/mufasadb/poe-level-tracker/internal/output"
)

var (
	checkLeague string
	checkOutput string
	checkRate   bool
)

var checkCmd = &cobra.Command{
	Use:   "check <account>",
	Short: "Fetch and display an account's characters",
	Long: `Fetch all characters for an account from the character API and display
them. Doubles as an accessibility probe: a private or missing account is
reported with its classification.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.NewCLILogger(verbose)
		defer func() { _ = logger.Sync() }()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		account := args[0]
		st, tr, governor, err := buildTracker(cmd.Context(), cfg, logger)
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

		if checkLeague != "" {
			filtered := characters[:0]
			for _, character := range characters {
				if character.League == checkLeague {
					filtered = append(filtered, character)
				}
			}
			characters = filtered
		}

		switch checkOutput {
		case output.FormatTable:
			fmt.Fprintln(cmd.OutOrStdout(), output.CharacterTable(account, characters))
		default:
			encoded, err := output.Encode(characters, checkOutput)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
		}

		if checkRate {
			fmt.Fprintln(cmd.OutOrStdout(), output.WindowTable(governor.Windows()))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkLeague, "league", "", "only show characters in this league")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", output.FormatTable, "output format: table, json, yaml")
	checkCmd.Flags().BoolVar(&checkRate, "rate", false, "also show the observed rate limit windows")
	rootCmd.AddCommand(checkCmd)
}
