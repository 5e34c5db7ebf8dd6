package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/churbro/backend/internal/domain"
	"github.com/churbro/backend/internal/infrastructure/tabular"
)

const (
	latestFile   = "latest.json"
	metadataFile = "metadata.json"
	csvFile      = "latest.csv"
)

// Dir publishes datasets as static files under <root>/api and reads them back
// for the HTTP layer:
//
//	<root>/api/latest.json
//	<root>/api/metadata.json
//	<root>/api/latest.csv
type Dir struct {
	root   string
	indent bool
	logger *slog.Logger
}

// NewDir creates a publisher rooted at root. indent pretty-prints the JSON files.
func NewDir(root string, indent bool, logger *slog.Logger) *Dir {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dir{root: root, indent: indent, logger: logger.With("component", "publish")}
}

// Path returns the location of one published file
func (d *Dir) Path(name string) string {
	return filepath.Join(d.root, "api", name)
}

// Publish implements domain.Publisher. Each file is replaced atomically.
func (d *Dir) Publish(ctx context.Context, dataset *domain.Dataset, meta *domain.Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.writeJSON(d.Path(latestFile), dataset); err != nil {
		return err
	}
	if err := d.writeJSON(d.Path(metadataFile), meta); err != nil {
		return err
	}
	if err := tabular.WriteFile(d.Path(csvFile), domain.MasterTable(dataset.Products)); err != nil {
		return fmt.Errorf("failed to publish csv: %w", err)
	}

	d.logger.Info("dataset published",
		"dir", filepath.Join(d.root, "api"),
		"products", dataset.TotalProducts,
		"stores", len(dataset.Stores),
	)
	return nil
}

// Latest implements domain.DatasetReader
func (d *Dir) Latest(ctx context.Context) (*domain.Dataset, error) {
	var ds domain.Dataset
	if err := readJSON(d.Path(latestFile), &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Metadata implements domain.DatasetReader
func (d *Dir) Metadata(ctx context.Context) (*domain.Metadata, error) {
	var meta domain.Metadata
	if err := readJSON(d.Path(metadataFile), &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (d *Dir) writeJSON(path string, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if d.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readJSON(path string, dest interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, filepath.Base(path))
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
