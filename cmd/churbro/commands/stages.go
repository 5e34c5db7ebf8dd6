package commands

import (
	"fmt"

	"github.com/churbro/backend/internal/domain"
	"github.com/churbro/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd, extractCmd, cleanCmd, mergeCmd, publishCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <store>",
	Short: "Fetches and extracts one store without writing artifacts, printing the records.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, cfg.Pipeline.Strict, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.pipeline.Scrape(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderRecords(cmd.OutOrStdout(), result.Batch.Records)
		renderStoreReports(cmd.OutOrStdout(), []domain.StoreReport{scrapeReport(args[0], result)})
		return nil
	},
}

func scrapeReport(store string, result *usecase.ScrapeResult) domain.StoreReport {
	st := domain.StoreReport{Store: store, Extraction: result.Batch.Stats, Missing: result.Missing}
	if result.FetchErr != nil {
		st.FetchError = result.FetchErr.Error()
	}
	return st
}

// Each stage reads and writes the CSV artifacts under output.dir, so stages
// can be re-run one at a time.

var extractCmd = &cobra.Command{
	Use:   "extract [store...]",
	Short: "Fetches listing pages and writes each store's raw batch.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, cfg.Pipeline.Strict, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		reports := make([]domain.StoreReport, 0, len(args))
		for _, store := range a.storesOrAll(args) {
			result, err := a.pipeline.Extract(cmd.Context(), store)
			if err != nil {
				return err
			}
			reports = append(reports, scrapeReport(store, result))
		}
		renderStoreReports(cmd.OutOrStdout(), reports)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [store...]",
	Short: "Re-reads raw batches, applies cleanup rules and writes cleaned batches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, cfg.Pipeline.Strict, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		reports := make([]domain.StoreReport, 0, len(args))
		for _, store := range a.storesOrAll(args) {
			result, err := a.pipeline.Clean(cmd.Context(), store)
			if err != nil {
				return err
			}
			reports = append(reports, domain.StoreReport{Store: store, Cleanup: result.Stats})
		}
		renderStoreReports(cmd.OutOrStdout(), reports)
		return nil
	},
}

var mergeStrict bool

func init() {
	mergeCmd.Flags().BoolVar(&mergeStrict, "strict", false, "fail when any store batch is missing (overrides pipeline.strict)")
}

var mergeCmd = &cobra.Command{
	Use:   "merge [--strict]",
	Short: "Merges the cleaned batches into the master table in store order.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		strict := cfg.Pipeline.Strict
		if cmd.Flags().Changed("strict") {
			strict = mergeStrict
		}
		a, err := newApp(cmd.Context(), cfg, strict, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		merged, err := a.pipeline.Merge(cmd.Context())
		if err != nil {
			return err
		}

		order := make([]string, 0, len(a.registry.Stores()))
		for _, p := range a.registry.Ordered() {
			order = append(order, p.DisplayName)
		}
		renderCounts(cmd.OutOrStdout(), merged.Counts, order)
		if len(merged.Missing) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "missing stores: %v\n", merged.Missing)
		}
		return nil
	},
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publishes the master table as latest.json, metadata.json and latest.csv.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, cfg.Pipeline.Strict, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		ds, err := a.pipeline.Publish(cmd.Context(), nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %d products to %s\n", ds.TotalProducts, a.published.Path("latest.json"))
		return nil
	},
}
