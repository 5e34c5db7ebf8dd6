package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	finished_at    TEXT NOT NULL,
	total_products INTEGER NOT NULL,
	missing_stores TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS run_stats (
	run_id          TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	store           TEXT NOT NULL,
	pages           INTEGER NOT NULL,
	cards           INTEGER NOT NULL,
	accepted        INTEGER NOT NULL,
	rejected        TEXT NOT NULL,
	cleanup_input   INTEGER NOT NULL,
	below_min_price INTEGER NOT NULL,
	invalid_name    INTEGER NOT NULL,
	kept            INTEGER NOT NULL,
	fetch_error     TEXT,
	missing         INTEGER NOT NULL,
	PRIMARY KEY (run_id, store)
);
CREATE TABLE IF NOT EXISTS products (
	run_id         TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	store          TEXT NOT NULL,
	sku            TEXT,
	name           TEXT NOT NULL,
	brand          TEXT,
	price          REAL NOT NULL,
	original_price REAL,
	price_per_kg   REAL,
	unit_type      TEXT,
	saving         REAL,
	percent_off    REAL,
	deal_type      TEXT,
	scraped_at     TEXT,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_products_store ON products(store);
CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
`

// Store records runs, their per-store statistics and merged products in SQLite
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path; ":memory:" works for tests
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	// one connection keeps ":memory:" databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun implements domain.RunRepository. A run is written in one transaction.
func (s *Store) SaveRun(ctx context.Context, report *domain.RunReport, records []domain.MasterRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	missing, _ := json.Marshal(nonNil(report.Missing))
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, started_at, finished_at, total_products, missing_stores) VALUES (?, ?, ?, ?, ?)`,
		report.RunID, formatTime(report.StartedAt), formatTime(report.FinishedAt), report.Total, string(missing),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, st := range report.Stores {
		rejected, _ := json.Marshal(st.Extraction.Rejected)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_stats (run_id, store, pages, cards, accepted, rejected, cleanup_input, below_min_price, invalid_name, kept, fetch_error, missing)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			report.RunID, st.Store, st.Extraction.Pages, st.Extraction.Cards, st.Extraction.Accepted, string(rejected),
			st.Cleanup.Input, st.Cleanup.BelowMinPrice, st.Cleanup.InvalidName, st.Cleanup.Kept,
			nullString(st.FetchError), boolInt(st.Missing),
		); err != nil {
			return fmt.Errorf("failed to insert stats for %s: %w", st.Store, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO products (run_id, position, store, sku, name, brand, price, original_price, price_per_kg, unit_type, saving, percent_off, deal_type, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range records {
		var scraped any
		if r.ScrapedAt != nil {
			scraped = formatTime(*r.ScrapedAt)
		}
		if _, err := stmt.ExecContext(ctx,
			report.RunID, i, r.Store, derefAny(r.SKU), r.Name, derefAny(r.Brand), r.Price.InexactFloat64(),
			nullFloat(r.OriginalPrice), nullFloat(r.PricePerKg), derefAny(r.UnitType),
			nullFloat(r.Saving), nullFloat(r.PercentOff), derefAny(r.DealType), scraped,
		); err != nil {
			return fmt.Errorf("failed to insert product %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// RunSummary is one row of the run history
type RunSummary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Missing    []string
}

// Runs lists the most recent runs, newest first
func (s *Store) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started_at, finished_at, total_products, missing_stores FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r                 RunSummary
			started, finished string
			missing           string
		)
		if err := rows.Scan(&r.RunID, &started, &finished, &r.Total, &missing); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		if err := json.Unmarshal([]byte(missing), &r.Missing); err != nil {
			return nil, fmt.Errorf("run %s: bad missing_stores: %w", r.RunID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// StoreStats returns the per-store statistics of one run in store order of insertion
func (s *Store) StoreStats(ctx context.Context, runID string) ([]domain.StoreReport, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT store, pages, cards, accepted, rejected, cleanup_input, below_min_price, invalid_name, kept, fetch_error, missing
		 FROM run_stats WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.StoreReport
	for rows.Next() {
		var (
			r        domain.StoreReport
			rejected string
			fetchErr sql.NullString
			missing  int
		)
		if err := rows.Scan(&r.Store, &r.Extraction.Pages, &r.Extraction.Cards, &r.Extraction.Accepted, &rejected,
			&r.Cleanup.Input, &r.Cleanup.BelowMinPrice, &r.Cleanup.InvalidName, &r.Cleanup.Kept, &fetchErr, &missing); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rejected), &r.Extraction.Rejected); err != nil {
			return nil, fmt.Errorf("store %s: bad rejected counts: %w", r.Store, err)
		}
		r.FetchError = fetchErr.String
		r.Missing = missing != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// PriceHistory returns the prices a product name had across runs, oldest first
func (s *Store) PriceHistory(ctx context.Context, store, name string) ([]PricePoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.started_at, p.price FROM products p JOIN runs r ON r.run_id = p.run_id
		 WHERE p.store = ? AND lower(p.name) = ? ORDER BY r.started_at`, store, strings.ToLower(name))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PricePoint
	for rows.Next() {
		var (
			at    string
			price float64
		)
		if err := rows.Scan(&at, &price); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, at)
		out = append(out, PricePoint{At: ts, Price: decimal.NewFromFloat(price).Round(2)})
	}
	return out, rows.Err()
}

// PricePoint is one observation of a product's price
type PricePoint struct {
	At    time.Time
	Price decimal.Decimal
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullFloat(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func derefAny(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
