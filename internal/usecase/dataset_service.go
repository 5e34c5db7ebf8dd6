package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/churbro/backend/internal/domain"
)

const (
	datasetCacheKey  = "dataset:latest"
	metadataCacheKey = "dataset:metadata"
)

// DatasetServiceConfig holds configuration for the dataset service
type DatasetServiceConfig struct {
	CacheTTL time.Duration
}

// ProductFilter narrows the product listing
type ProductFilter struct {
	Store    string // display name or store key, case-insensitive
	DealOnly bool
	Query    string // case-insensitive substring of the name
}

// StoreCount is one row of the per-store summary
type StoreCount struct {
	Store string `json:"store"`
	Count int    `json:"count"`
}

// DatasetService serves the published dataset with caching
type DatasetService struct {
	reader   domain.DatasetReader
	cache    domain.CacheRepository
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewDatasetService creates a new dataset service with dependencies
func NewDatasetService(reader domain.DatasetReader, cache domain.CacheRepository, config DatasetServiceConfig, logger *slog.Logger) *DatasetService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		reader:   reader,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With("component", "dataset"),
	}
}

// Latest returns the published dataset.
// Flow: check cache -> read artifact -> cache -> return
func (s *DatasetService) Latest(ctx context.Context) (*domain.Dataset, error) {
	var cached domain.Dataset
	if err := s.cache.Get(ctx, datasetCacheKey, &cached); err == nil {
		return &cached, nil
	}

	ds, err := s.reader.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, datasetCacheKey, ds, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dataset", "error", err)
	}
	return ds, nil
}

// Metadata returns the metadata of the published dataset
func (s *DatasetService) Metadata(ctx context.Context) (*domain.Metadata, error) {
	var cached domain.Metadata
	if err := s.cache.Get(ctx, metadataCacheKey, &cached); err == nil {
		return &cached, nil
	}

	meta, err := s.reader.Metadata(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, metadataCacheKey, meta, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache metadata", "error", err)
	}
	return meta, nil
}

// Products lists the dataset's products matching the filter, in dataset order
func (s *DatasetService) Products(ctx context.Context, filter ProductFilter) ([]domain.MasterRecord, error) {
	ds, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}

	store := normalizeStoreKey(filter.Store)
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	out := make([]domain.MasterRecord, 0, len(ds.Products))
	for _, p := range ds.Products {
		if store != "" && normalizeStoreKey(p.Store) != store {
			continue
		}
		if filter.DealOnly && (p.DealType == nil || *p.DealType == "") {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Stores returns per-store product counts sorted by store name
func (s *DatasetService) Stores(ctx context.Context) ([]StoreCount, error) {
	ds, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]StoreCount, 0, len(ds.Stores))
	for name, n := range ds.Stores {
		out = append(out, StoreCount{Store: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Store < out[j].Store })
	return out, nil
}

// Invalidate drops cached copies after a new publish
func (s *DatasetService) Invalidate(ctx context.Context) error {
	if err := s.cache.Delete(ctx, datasetCacheKey); err != nil {
		return err
	}
	return s.cache.Delete(ctx, metadataCacheKey)
}

// normalizeStoreKey folds "PAK'nSAVE", "paknsave" and "Pak n Save" together
func normalizeStoreKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
