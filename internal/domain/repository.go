package domain

import (
	"context"
	"time"
)

// Element is a single node inside a card: rendered text plus attribute access
type Element interface {
	Text() string
	Attr(name string) (string, bool)
}

// Card is the opaque, queryable handle over one listing snippet.
// Locator syntax is owned by the implementation.
type Card interface {
	Element
	// First returns the first element matching any of the locators, tried in order
	First(locators ...string) (Element, bool)
	// All returns every element matching the locator, in document order
	All(locator string) []Element
}

// PageFetcher retrieves one rendered listing page
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) ([]byte, error)
}

// CardSplitter cuts a rendered page into listing cards
type CardSplitter interface {
	Split(page []byte, selector string) ([]Card, error)
}

// Stage names a persisted pipeline boundary
type Stage string

const (
	StageRaw     Stage = "raw"
	StageCleaned Stage = "cleaned"
)

// Table is a header plus rows in one tabular schema
type Table struct {
	Header []string
	Rows   []Row
}

// ArtifactStore persists the tabular artifact written at each stage boundary
type ArtifactStore interface {
	SaveStoreBatch(ctx context.Context, store string, stage Stage, table Table) error
	LoadStoreBatch(ctx context.Context, store string, stage Stage) (Table, error)
	// DeleteStoreBatch removes a batch; deleting an absent batch is not an error
	DeleteStoreBatch(ctx context.Context, store string, stage Stage) error
	SaveMaster(ctx context.Context, table Table) error
	LoadMaster(ctx context.Context) (Table, error)
}

// RunRepository stores merged datasets together with their run statistics
type RunRepository interface {
	SaveRun(ctx context.Context, report *RunReport, records []MasterRecord) error
}

// Publisher hands the final dataset to the presentation layer
type Publisher interface {
	Publish(ctx context.Context, dataset *Dataset, meta *Metadata) error
}

// DatasetReader loads the most recently published dataset
type DatasetReader interface {
	Latest(ctx context.Context) (*Dataset, error)
	Metadata(ctx context.Context) (*Metadata, error)
}

// CacheRepository defines the interface for caching operations.
// Values are stored serialized; Get decodes into dest.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
