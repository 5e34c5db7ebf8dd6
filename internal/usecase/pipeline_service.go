package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// PipelineConfig holds configuration for the pipeline service
type PipelineConfig struct {
	Strict            bool
	Concurrency       int
	RejectionWarnRate float64 // log a warning when a store rejects more than this share of cards
}

// PipelineDeps are the collaborators the pipeline drives. Runs and Publisher are optional.
type PipelineDeps struct {
	Registry  *ProfileRegistry
	Fetcher   domain.PageFetcher
	Splitter  domain.CardSplitter
	Artifacts domain.ArtifactStore
	Runs      domain.RunRepository
	Publisher domain.Publisher
	Logger    *slog.Logger
	Now       func() time.Time
}

// PipelineService runs fetch -> extract -> clean -> merge -> publish
type PipelineService struct {
	registry   *ProfileRegistry
	fetcher    domain.PageFetcher
	splitter   domain.CardSplitter
	artifacts  domain.ArtifactStore
	runs       domain.RunRepository
	publisher  domain.Publisher
	logger     *slog.Logger
	now        func() time.Time
	newRunID   func() string
	builder    *RecordBuilder
	cleaner    *Cleaner
	projector  *Projector
	aggregator *Aggregator
	config     PipelineConfig
}

// NewPipelineService creates a new pipeline service with dependencies
func NewPipelineService(deps PipelineDeps, config PipelineConfig) *PipelineService {
	now := deps.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.RejectionWarnRate <= 0 {
		config.RejectionWarnRate = 0.5
	}

	return &PipelineService{
		registry:   deps.Registry,
		fetcher:    deps.Fetcher,
		splitter:   deps.Splitter,
		artifacts:  deps.Artifacts,
		runs:       deps.Runs,
		publisher:  deps.Publisher,
		logger:     logger.With("component", "pipeline"),
		now:        now,
		newRunID:   func() string { return uuid.NewString() },
		builder:    NewRecordBuilder(now),
		cleaner:    NewCleaner(),
		projector:  NewProjector(),
		aggregator: NewAggregator(config.Strict),
		config:     config,
	}
}

// ScrapeResult is one store's paginated extraction
type ScrapeResult struct {
	Batch    Batch
	FetchErr error
	Missing  bool // nothing could be fetched at all
}

// Scrape walks a store's listing pages, building records page by page.
// A failing page stops pagination but keeps what was collected; an empty page
// or the page limit ends it normally.
func (s *PipelineService) Scrape(ctx context.Context, store string) (*ScrapeResult, error) {
	profile, err := s.registry.Get(store)
	if err != nil {
		return nil, err
	}

	log := s.logger.With("store", store)
	result := &ScrapeResult{Batch: Batch{Store: store}}

	for page := 1; page <= profile.Fetch.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL, err := PageURL(profile.Fetch, page)
		if err != nil {
			return nil, err
		}

		body, err := s.fetcher.FetchPage(ctx, pageURL)
		if err != nil {
			log.Warn("page fetch failed, stopping pagination", "page", page, "error", err)
			result.FetchErr = fmt.Errorf("%w: page %d: %v", domain.ErrFetchFailed, page, err)
			result.Missing = page == 1
			break
		}

		cards, err := s.splitter.Split(body, profile.CardSelector)
		if err != nil {
			log.Warn("page could not be parsed, stopping pagination", "page", page, "error", err)
			result.FetchErr = fmt.Errorf("%w: page %d: %v", domain.ErrFetchFailed, page, err)
			result.Missing = page == 1
			break
		}
		if len(cards) == 0 {
			log.Debug("empty page, pagination complete", "page", page)
			break
		}

		result.Batch.Stats.Pages++
		before := result.Batch.Stats.Accepted
		s.builder.Collect(&result.Batch, cards, profile)
		log.Debug("page extracted", "page", page, "cards", len(cards), "accepted", result.Batch.Stats.Accepted-before)
	}

	s.logExtraction(log, result.Batch.Stats)
	return result, nil
}

// Extract scrapes one store and persists its raw batch
func (s *PipelineService) Extract(ctx context.Context, store string) (*ScrapeResult, error) {
	result, err := s.Scrape(ctx, store)
	if err != nil {
		return nil, err
	}
	if result.Missing {
		if err := s.dropStoreBatches(ctx, store); err != nil {
			return nil, err
		}
		return result, nil
	}

	profile, _ := s.registry.Get(store)
	if err := s.artifacts.SaveStoreBatch(ctx, store, domain.StageRaw, s.projector.Table(result.Batch.Records, profile)); err != nil {
		return nil, fmt.Errorf("failed to save raw batch for %s: %w", store, err)
	}
	return result, nil
}

// dropStoreBatches removes a missing store's batches from earlier runs so
// later stages report it missing instead of reusing old rows
func (s *PipelineService) dropStoreBatches(ctx context.Context, store string) error {
	for _, stage := range []domain.Stage{domain.StageRaw, domain.StageCleaned} {
		if err := s.artifacts.DeleteStoreBatch(ctx, store, stage); err != nil {
			return fmt.Errorf("failed to drop %s batch for %s: %w", stage, store, err)
		}
	}
	return nil
}

// Clean re-reads a store's raw batch, cleans it and persists the cleaned batch
func (s *PipelineService) Clean(ctx context.Context, store string) (*CleanResult, error) {
	profile, err := s.registry.Get(store)
	if err != nil {
		return nil, err
	}

	raw, err := s.artifacts.LoadStoreBatch(ctx, store, domain.StageRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw batch for %s: %w", store, err)
	}
	records, err := s.projector.Records(raw, profile)
	if err != nil {
		return nil, err
	}

	cleaned, err := s.cleanAndSave(ctx, records, profile)
	if err != nil {
		return nil, err
	}
	return &cleaned, nil
}

func (s *PipelineService) cleanAndSave(ctx context.Context, records []domain.Record, profile *domain.Profile) (CleanResult, error) {
	cleaned := s.cleaner.Clean(records, profile)
	s.logger.Info("store cleaned",
		"store", profile.Store,
		"input", cleaned.Stats.Input,
		"below_min_price", cleaned.Stats.BelowMinPrice,
		"invalid_name", cleaned.Stats.InvalidName,
		"kept", cleaned.Stats.Kept,
	)
	table := s.projector.Table(cleaned.Records, profile)
	if err := s.artifacts.SaveStoreBatch(ctx, profile.Store, domain.StageCleaned, table); err != nil {
		return CleanResult{}, fmt.Errorf("failed to save cleaned batch for %s: %w", profile.Store, err)
	}
	return cleaned, nil
}

// Merge loads every store's cleaned batch from the artifact store and writes the master table
func (s *PipelineService) Merge(ctx context.Context) (*MergeResult, error) {
	inputs := make([]MergeInput, 0, len(s.registry.Stores()))
	for _, profile := range s.registry.Ordered() {
		in := MergeInput{Store: profile.Store, Schema: profile.Schema}
		table, err := s.artifacts.LoadStoreBatch(ctx, profile.Store, domain.StageCleaned)
		switch {
		case err == nil:
			in.Table = &table
		case errors.Is(err, domain.ErrMissingBatch):
		default:
			return nil, fmt.Errorf("failed to load cleaned batch for %s: %w", profile.Store, err)
		}
		inputs = append(inputs, in)
	}
	return s.mergeAndSave(ctx, inputs)
}

func (s *PipelineService) mergeAndSave(ctx context.Context, inputs []MergeInput) (*MergeResult, error) {
	merged, err := s.aggregator.Merge(inputs)
	if err != nil {
		return nil, err
	}
	if len(merged.Missing) > 0 {
		s.logger.Warn("merged without some stores", "missing", merged.Missing)
	}
	if err := s.artifacts.SaveMaster(ctx, s.projector.MasterTable(merged.Records)); err != nil {
		return nil, fmt.Errorf("failed to save master table: %w", err)
	}
	s.logger.Info("master merged", "total", len(merged.Records), "counts", merged.Counts)
	return &merged, nil
}

// Publish reads the master table and hands it to the publisher
func (s *PipelineService) Publish(ctx context.Context, report *domain.RunReport) (*domain.Dataset, error) {
	if s.publisher == nil {
		return nil, errors.New("no publisher configured")
	}
	table, err := s.artifacts.LoadMaster(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load master table: %w", err)
	}
	records, err := s.projector.MasterRecords(table)
	if err != nil {
		return nil, err
	}

	runID := ""
	if report != nil {
		runID = report.RunID
	}
	ds := NewDataset(records, runID, s.now())
	if err := s.publisher.Publish(ctx, ds, NewMetadata(ds, report)); err != nil {
		return nil, fmt.Errorf("failed to publish dataset: %w", err)
	}
	return ds, nil
}

// storeOutcome is what one store worker hands back to Run
type storeOutcome struct {
	report domain.StoreReport
	table  *domain.Table
}

// Run executes the whole pipeline. Stores run concurrently and share nothing;
// the merge waits for all of them and keeps the configured store order.
func (s *PipelineService) Run(ctx context.Context) (*domain.RunReport, error) {
	report := &domain.RunReport{RunID: s.newRunID(), StartedAt: s.now()}
	log := s.logger.With("run_id", report.RunID)
	log.Info("run started", "stores", s.registry.Stores())

	profiles := s.registry.Ordered()
	outcomes := make([]storeOutcome, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i, profile := range profiles {
		g.Go(func() error {
			out, err := s.runStore(gctx, profile)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	inputs := make([]MergeInput, len(profiles))
	for i, profile := range profiles {
		inputs[i] = MergeInput{Store: profile.Store, Schema: profile.Schema, Table: outcomes[i].table}
		report.Stores = append(report.Stores, outcomes[i].report)
	}

	merged, err := s.mergeAndSave(ctx, inputs)
	if err != nil {
		return nil, err
	}
	report.Counts = merged.Counts
	report.Missing = merged.Missing
	report.Total = len(merged.Records)
	report.FinishedAt = s.now()

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, report, merged.Records); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	if s.publisher != nil {
		ds := NewDataset(merged.Records, report.RunID, report.FinishedAt)
		if err := s.publisher.Publish(ctx, ds, NewMetadata(ds, report)); err != nil {
			return nil, fmt.Errorf("failed to publish dataset: %w", err)
		}
	}

	log.Info("run finished", "total", report.Total, "missing", report.Missing, "duration", report.FinishedAt.Sub(report.StartedAt))
	return report, nil
}

func (s *PipelineService) runStore(ctx context.Context, profile *domain.Profile) (storeOutcome, error) {
	out := storeOutcome{report: domain.StoreReport{Store: profile.Store}}

	scraped, err := s.Scrape(ctx, profile.Store)
	if err != nil {
		return out, err
	}
	out.report.Extraction = scraped.Batch.Stats
	if scraped.FetchErr != nil {
		out.report.FetchError = scraped.FetchErr.Error()
	}
	if scraped.Missing {
		out.report.Missing = true
		return out, s.dropStoreBatches(ctx, profile.Store)
	}

	raw := s.projector.Table(scraped.Batch.Records, profile)
	if err := s.artifacts.SaveStoreBatch(ctx, profile.Store, domain.StageRaw, raw); err != nil {
		return out, fmt.Errorf("failed to save raw batch for %s: %w", profile.Store, err)
	}

	cleaned, err := s.cleanAndSave(ctx, scraped.Batch.Records, profile)
	if err != nil {
		return out, err
	}
	out.report.Cleanup = cleaned.Stats

	table := s.projector.Table(cleaned.Records, profile)
	out.table = &table
	return out, nil
}

func (s *PipelineService) logExtraction(log *slog.Logger, stats domain.ExtractionStats) {
	attrs := []any{
		"pages", stats.Pages,
		"cards", stats.Cards,
		"accepted", stats.Accepted,
		"rejected", stats.RejectedTotal(),
	}
	for _, reason := range stats.Reasons() {
		attrs = append(attrs, "rejected_"+reason, stats.Rejected[reason])
	}
	log.Info("store extracted", attrs...)

	if rate := stats.RejectionRate(); rate > s.config.RejectionWarnRate {
		log.Warn("high card rejection rate, markup may have changed", "rate", strconv.FormatFloat(rate, 'f', 2, 64))
	}
}

// PageURL sets the page parameter on a store's base URL
func PageURL(rules domain.FetchRules, page int) (string, error) {
	u, err := url.Parse(rules.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", rules.BaseURL, err)
	}
	if rules.PageParam != "" {
		q := u.Query()
		q.Set(rules.PageParam, strconv.Itoa(page))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
