package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/churbro/backend/config"
	"github.com/churbro/backend/internal/infrastructure/card"
	"github.com/churbro/backend/internal/infrastructure/fetch"
	"github.com/churbro/backend/internal/infrastructure/publish"
	"github.com/churbro/backend/internal/infrastructure/sqlite"
	"github.com/churbro/backend/internal/infrastructure/tabular"
	"github.com/churbro/backend/internal/usecase"
	"github.com/shopspring/decimal"
)

// app is the wired pipeline for one CLI invocation
type app struct {
	registry  *usecase.ProfileRegistry
	pipeline  *usecase.PipelineService
	published *publish.Dir
	history   *sqlite.Store // nil when run history is disabled
}

// registryFromConfig builds the profile registry in configured order with per-store overrides applied
func registryFromConfig(c *config.Config) (*usecase.ProfileRegistry, error) {
	registry, err := usecase.NewProfileRegistry(c.EnabledStores())
	if err != nil {
		return nil, err
	}
	for _, store := range registry.Stores() {
		sc, ok := c.Stores[store]
		if !ok {
			continue
		}
		override := usecase.ProfileOverride{
			BaseURL:   sc.BaseURL,
			PageParam: sc.PageParam,
			MaxPages:  sc.MaxPages,
		}
		if override.MinPrice, err = amount(sc.MinPrice); err != nil {
			return nil, fmt.Errorf("store %s: min_price: %w", store, err)
		}
		if override.PriceMin, err = amount(sc.PriceMin); err != nil {
			return nil, fmt.Errorf("store %s: price_min: %w", store, err)
		}
		if override.PriceMax, err = amount(sc.PriceMax); err != nil {
			return nil, fmt.Errorf("store %s: price_max: %w", store, err)
		}
		if err := registry.Override(store, override); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func amount(raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// newApp wires the pipeline against the configured output directory
func newApp(ctx context.Context, c *config.Config, strict bool, log *slog.Logger) (*app, error) {
	registry, err := registryFromConfig(c)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(c.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	a := &app{
		registry:  registry,
		published: publish.NewDir(c.Output.Dir, c.Output.IndentJSON, log),
	}

	deps := usecase.PipelineDeps{
		Registry: registry,
		Fetcher: fetch.NewClient(fetch.Config{
			UserAgent:         c.Scraper.UserAgent,
			Timeout:           c.Scraper.Timeout,
			RequestsPerSecond: c.Scraper.RequestsPerSecond,
			Burst:             c.Scraper.Burst,
			MaxRetries:        c.Scraper.MaxRetries,
			RetryBackoff:      c.Scraper.RetryBackoff,
		}, log),
		Splitter:  card.NewSplitter(),
		Artifacts: tabular.NewCSVStore(c.Output.Dir),
		Publisher: a.published,
		Logger:    log,
	}

	if c.Output.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(c.Output.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database dir: %w", err)
		}
		store, err := sqlite.Open(ctx, c.Output.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.history = store
		deps.Runs = store
	}

	a.pipeline = usecase.NewPipelineService(deps, usecase.PipelineConfig{
		Strict:            strict,
		Concurrency:       c.Pipeline.Concurrency,
		RejectionWarnRate: c.Pipeline.RejectionWarnRate,
	})
	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
}

// storesOrAll returns args, or every registered store when none were named
func (a *app) storesOrAll(args []string) []string {
	if len(args) == 0 {
		return a.registry.Stores()
	}
	return args
}
