package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runStrict bool

func init() {
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "fail the merge when any store batch is missing (overrides pipeline.strict)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--strict]",
	Short: "Scrapes every enabled store, cleans, merges and publishes the dataset.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict := cfg.Pipeline.Strict
		if cmd.Flags().Changed("strict") {
			strict = runStrict
		}

		a, err := newApp(cmd.Context(), cfg, strict, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.pipeline.Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		renderRunReport(cmd.OutOrStdout(), report)
		fmt.Fprintf(cmd.OutOrStdout(), "published to %s\n", a.published.Path("latest.json"))
		return nil
	},
}
