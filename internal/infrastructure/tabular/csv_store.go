package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/churbro/backend/internal/domain"
)

// CSVStore keeps every stage artifact as a CSV file under one directory:
//
//	<dir>/raw/<store>.csv
//	<dir>/cleaned/<store>.csv
//	<dir>/master.csv
type CSVStore struct {
	dir string
}

// NewCSVStore creates a CSV artifact store rooted at dir
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

// StorePath is where a store batch of the given stage lives
func (s *CSVStore) StorePath(store string, stage domain.Stage) string {
	return filepath.Join(s.dir, string(stage), store+".csv")
}

// MasterPath is where the merged table lives
func (s *CSVStore) MasterPath() string {
	return filepath.Join(s.dir, "master.csv")
}

// SaveStoreBatch implements domain.ArtifactStore
func (s *CSVStore) SaveStoreBatch(ctx context.Context, store string, stage domain.Stage, table domain.Table) error {
	return WriteFile(s.StorePath(store, stage), table)
}

// LoadStoreBatch implements domain.ArtifactStore; an absent file is ErrMissingBatch
func (s *CSVStore) LoadStoreBatch(ctx context.Context, store string, stage domain.Stage) (domain.Table, error) {
	table, err := ReadFile(s.StorePath(store, stage))
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Table{}, fmt.Errorf("%w: %s %s", domain.ErrMissingBatch, stage, store)
	}
	return table, err
}

// DeleteStoreBatch implements domain.ArtifactStore
func (s *CSVStore) DeleteStoreBatch(ctx context.Context, store string, stage domain.Stage) error {
	err := os.Remove(s.StorePath(store, stage))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// SaveMaster implements domain.ArtifactStore
func (s *CSVStore) SaveMaster(ctx context.Context, table domain.Table) error {
	return WriteFile(s.MasterPath(), table)
}

// LoadMaster implements domain.ArtifactStore
func (s *CSVStore) LoadMaster(ctx context.Context) (domain.Table, error) {
	table, err := ReadFile(s.MasterPath())
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Table{}, fmt.Errorf("%w: master", domain.ErrMissingBatch)
	}
	return table, err
}

// WriteFile writes a table atomically: a temp file renamed into place
func WriteFile(path string, table domain.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, table); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Write encodes a table as CSV with a header row
func Write(w io.Writer, table domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header); err != nil {
		return err
	}

	record := make([]string, len(table.Header))
	for _, row := range table.Rows {
		for i, col := range table.Header {
			record[i] = row[col]
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile decodes a CSV file written by WriteFile
func ReadFile(path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes CSV with a header row into a table
func Read(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return domain.Table{}, nil
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("failed to read header: %w", err)
	}

	table := domain.Table{Header: header}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(record) != len(header) {
			return domain.Table{}, fmt.Errorf("%w: line %d has %d fields, header has %d", domain.ErrInvalidRow, line, len(record), len(header))
		}
		row := make(domain.Row, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
