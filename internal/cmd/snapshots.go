package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mufasadb/poe-level-tracker/internal/observability"
	"github.com/mufasadb/poe-level-tracker/internal/output"
)

var snapshotsOutput string

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Show the stored character snapshots",
	Long: `Display the last observed level and class for every tracked
(character, league) pair.`,
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

		snapshots, err := st.AllRecords(cmd.Context())
		if err != nil {
			return err
		}

		if snapshotsOutput == output.FormatTable {
			fmt.Fprintln(cmd.OutOrStdout(), output.SnapshotTable(snapshots))
			return nil
		}

		encoded, err := output.Encode(snapshots, snapshotsOutput)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), encoded)
		return nil
	},
}

func init() {
	snapshotsCmd.Flags().StringVarP(&snapshotsOutput, "output", "o", output.FormatTable, "output format: table, json, yaml")
	rootCmd.AddCommand(snapshotsCmd)
}
