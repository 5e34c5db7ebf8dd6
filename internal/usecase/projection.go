package usecase

import (
	"fmt"
	"strconv"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Projector maps records onto a store's tabular schema and rows onto the master schema
type Projector struct{}

// NewProjector creates a new projector
func NewProjector() *Projector {
	return &Projector{}
}

// Table renders a batch in the store's schema
func (p *Projector) Table(records []domain.Record, profile *domain.Profile) domain.Table {
	table := domain.Table{Header: profile.Schema.Header(), Rows: make([]domain.Row, 0, len(records))}
	for _, r := range records {
		table.Rows = append(table.Rows, p.ToRow(r, profile))
	}
	return table
}

// ToRow renders one record in the store's schema
func (p *Projector) ToRow(r domain.Record, profile *domain.Profile) domain.Row {
	schema := profile.Schema
	row := make(domain.Row, len(schema.Columns)+len(schema.BadgeColumns))
	for _, col := range schema.Columns {
		row[col.Name] = recordField(r, col.Field, schema)
	}
	for _, col := range schema.BadgeColumns {
		row[col.Name] = strconv.FormatBool(r.HasBadge(col.Badge))
	}
	return row
}

func recordField(r domain.Record, f domain.Field, schema domain.StoreSchema) string {
	switch f {
	case domain.FieldStore:
		return schema.DisplayName
	case domain.FieldSKU:
		return r.SKU
	case domain.FieldName:
		return r.Name
	case domain.FieldBrand:
		return r.Brand
	case domain.FieldPrice:
		return r.SalePrice.StringFixed(2)
	case domain.FieldOriginalPrice:
		return r.OriginalPrice.StringFixed(2)
	case domain.FieldPricePerKg:
		if r.PricePerKg.Valid {
			return r.PricePerKg.Decimal.StringFixed(2)
		}
		return ""
	case domain.FieldUnitType:
		return string(r.UnitType)
	case domain.FieldSaving:
		return r.Saving.StringFixed(2)
	case domain.FieldPercentOff:
		return r.PercentOff.StringFixed(1)
	case domain.FieldDealType:
		return r.DealType
	case domain.FieldScrapedAt:
		if r.ScrapedAt.IsZero() {
			return ""
		}
		return r.ScrapedAt.UTC().Format(time.RFC3339)
	}
	return ""
}

// Records reads a store table back into records
func (p *Projector) Records(table domain.Table, profile *domain.Profile) ([]domain.Record, error) {
	records := make([]domain.Record, 0, len(table.Rows))
	for i, row := range table.Rows {
		r, err := p.FromRow(row, profile)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", profile.Store, i+1, err)
		}
		records = append(records, r)
	}
	return records, nil
}

// FromRow reads one row of the store's schema back into a record
func (p *Projector) FromRow(row domain.Row, profile *domain.Profile) (domain.Record, error) {
	schema := profile.Schema
	get := func(f domain.Field) (string, bool) { return fieldValue(row, schema, f) }

	r := domain.Record{Store: profile.Store}
	r.SKU, _ = get(domain.FieldSKU)
	r.Name, _ = get(domain.FieldName)
	r.Brand, _ = get(domain.FieldBrand)
	r.DealType, _ = get(domain.FieldDealType)

	raw, ok := get(domain.FieldPrice)
	if !ok {
		return domain.Record{}, fmt.Errorf("%w: missing price", domain.ErrInvalidRow)
	}
	sale, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.Record{}, fmt.Errorf("%w: price %q", domain.ErrInvalidRow, raw)
	}
	r.SalePrice = sale
	r.OriginalPrice = sale

	if raw, ok := get(domain.FieldOriginalPrice); ok {
		if r.OriginalPrice, err = decimal.NewFromString(raw); err != nil {
			return domain.Record{}, fmt.Errorf("%w: original price %q", domain.ErrInvalidRow, raw)
		}
	}
	if r.PricePerKg, err = nullDecimal(get(domain.FieldPricePerKg)); err != nil {
		return domain.Record{}, err
	}
	for _, f := range []domain.Field{domain.FieldSaving, domain.FieldPercentOff} {
		v, err := nullDecimal(get(f))
		if err != nil {
			return domain.Record{}, err
		}
		if f == domain.FieldSaving {
			r.Saving = v.Decimal
		} else {
			r.PercentOff = v.Decimal
		}
	}

	r.UnitType = domain.UnitEach
	if raw, ok := get(domain.FieldUnitType); ok {
		unit, valid := domain.ParseUnitType(raw)
		if !valid {
			return domain.Record{}, fmt.Errorf("%w: unit type %q", domain.ErrInvalidRow, raw)
		}
		r.UnitType = unit
	}

	if raw, ok := get(domain.FieldScrapedAt); ok {
		if r.ScrapedAt, err = time.Parse(time.RFC3339, raw); err != nil {
			return domain.Record{}, fmt.Errorf("%w: scraped_at %q", domain.ErrInvalidRow, raw)
		}
	}

	for _, col := range schema.BadgeColumns {
		if on, _ := strconv.ParseBool(row[col.Name]); on {
			r.Badges = append(r.Badges, col.Badge)
		}
	}
	return r, nil
}

// ToMaster reprojects one store row into the unified schema. Fields the
// store schema lacks become null; columns the unified schema lacks are dropped.
func (p *Projector) ToMaster(row domain.Row, schema domain.StoreSchema) (domain.MasterRecord, error) {
	get := func(f domain.Field) (string, bool) { return fieldValue(row, schema, f) }

	m := domain.MasterRecord{Store: schema.DisplayName}
	m.SKU = optional(get(domain.FieldSKU))
	m.Name, _ = get(domain.FieldName)
	m.Brand = optional(get(domain.FieldBrand))
	m.UnitType = optional(get(domain.FieldUnitType))
	m.DealType = optional(get(domain.FieldDealType))

	raw, ok := get(domain.FieldPrice)
	if !ok {
		return domain.MasterRecord{}, fmt.Errorf("%w: missing price", domain.ErrInvalidRow)
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.MasterRecord{}, fmt.Errorf("%w: price %q", domain.ErrInvalidRow, raw)
	}
	m.Price = price

	targets := map[domain.Field]*decimal.NullDecimal{
		domain.FieldOriginalPrice: &m.OriginalPrice,
		domain.FieldPricePerKg:    &m.PricePerKg,
		domain.FieldSaving:        &m.Saving,
		domain.FieldPercentOff:    &m.PercentOff,
	}
	for f, dst := range targets {
		if *dst, err = nullDecimal(get(f)); err != nil {
			return domain.MasterRecord{}, err
		}
	}

	if raw, ok := get(domain.FieldScrapedAt); ok {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return domain.MasterRecord{}, fmt.Errorf("%w: scraped_at %q", domain.ErrInvalidRow, raw)
		}
		m.ScrapedAt = &ts
	}
	return m, nil
}

// MasterTable renders unified records with the master header
func (p *Projector) MasterTable(records []domain.MasterRecord) domain.Table {
	return domain.MasterTable(records)
}

// MasterRecords reads a master table back; the store column is taken verbatim
func (p *Projector) MasterRecords(table domain.Table) ([]domain.MasterRecord, error) {
	records := make([]domain.MasterRecord, 0, len(table.Rows))
	for i, row := range table.Rows {
		m, err := p.ToMaster(row, masterSchema(row[string(domain.FieldStore)]))
		if err != nil {
			return nil, fmt.Errorf("master row %d: %w", i+1, err)
		}
		records = append(records, m)
	}
	return records, nil
}

// masterSchema is the identity schema of the unified table
func masterSchema(display string) domain.StoreSchema {
	cols := make([]domain.Column, 0, len(domain.MasterFields))
	for _, f := range domain.MasterFields {
		cols = append(cols, domain.Column{Name: string(f), Field: f})
	}
	return domain.StoreSchema{DisplayName: display, Columns: cols}
}

// fieldValue looks a field up through the schema, falling back to schema defaults.
// Empty cells count as absent.
func fieldValue(row domain.Row, schema domain.StoreSchema, f domain.Field) (string, bool) {
	if col, ok := schema.Column(f); ok {
		if v := row[col]; v != "" {
			return v, true
		}
	}
	if v, ok := schema.Defaults[f]; ok && v != "" {
		return v, true
	}
	return "", false
}

func nullDecimal(raw string, ok bool) (decimal.NullDecimal, error) {
	if !ok {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%w: amount %q", domain.ErrInvalidRow, raw)
	}
	return decimal.NewNullDecimal(d), nil
}

func optional(v string, ok bool) *string {
	if !ok {
		return nil
	}
	return &v
}
