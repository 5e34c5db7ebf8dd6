package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/churbro/backend/config"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	configPath string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "churbro",
	Short:         "churbro scrapes supermarket listings and publishes a normalized price dataset.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = cfg.Log.NewLogger(os.Stderr)
		slog.SetDefault(logger)
		decimal.MarshalJSONWithoutQuotes = true
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (default: ./config.yaml, ./config/, /etc/churbro/)")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
