package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one tabular record keyed by column name
type Row map[string]string

// Field is a canonical field of the cross-store schema
type Field string

const (
	FieldStore         Field = "store"
	FieldSKU           Field = "sku"
	FieldName          Field = "name"
	FieldBrand         Field = "brand"
	FieldPrice         Field = "price"
	FieldOriginalPrice Field = "original_price"
	FieldPricePerKg    Field = "price_per_kg"
	FieldUnitType      Field = "unit_type"
	FieldSaving        Field = "saving"
	FieldPercentOff    Field = "percent_off"
	FieldDealType      Field = "deal_type"
	FieldScrapedAt     Field = "scraped_at"
)

// MasterFields is the column order of the unified dataset
var MasterFields = []Field{
	FieldStore, FieldSKU, FieldName, FieldBrand, FieldPrice, FieldOriginalPrice,
	FieldPricePerKg, FieldUnitType, FieldSaving, FieldPercentOff, FieldDealType, FieldScrapedAt,
}

// MasterHeader returns the header row of the unified dataset
func MasterHeader() []string {
	header := make([]string, len(MasterFields))
	for i, f := range MasterFields {
		header[i] = string(f)
	}
	return header
}

// Column binds a store column name to a canonical field
type Column struct {
	Name  string
	Field Field
}

// BadgeColumn is a per-store boolean flag column for one tag
type BadgeColumn struct {
	Name  string
	Badge Badge
}

// StoreSchema is the tabular shape one store's batches are written in
type StoreSchema struct {
	DisplayName  string
	Columns      []Column
	BadgeColumns []BadgeColumn
	Defaults     map[Field]string // constants for fields the store never writes
}

// Header returns the column names in write order
func (s StoreSchema) Header() []string {
	header := make([]string, 0, len(s.Columns)+len(s.BadgeColumns))
	for _, c := range s.Columns {
		header = append(header, c.Name)
	}
	for _, b := range s.BadgeColumns {
		header = append(header, b.Name)
	}
	return header
}

// Column returns the store column name for a canonical field
func (s StoreSchema) Column(f Field) (string, bool) {
	for _, c := range s.Columns {
		if c.Field == f {
			return c.Name, true
		}
	}
	return "", false
}

// Row renders the record in the master schema; nulls become empty cells
func (m MasterRecord) Row() Row {
	row := Row{
		string(FieldStore):         m.Store,
		string(FieldSKU):           deref(m.SKU),
		string(FieldName):          m.Name,
		string(FieldBrand):         deref(m.Brand),
		string(FieldPrice):         m.Price.StringFixed(2),
		string(FieldOriginalPrice): nullString(m.OriginalPrice, 2),
		string(FieldPricePerKg):    nullString(m.PricePerKg, 2),
		string(FieldUnitType):      deref(m.UnitType),
		string(FieldSaving):        nullString(m.Saving, 2),
		string(FieldPercentOff):    nullString(m.PercentOff, 1),
		string(FieldDealType):      deref(m.DealType),
		string(FieldScrapedAt):     "",
	}
	if m.ScrapedAt != nil {
		row[string(FieldScrapedAt)] = m.ScrapedAt.UTC().Format(time.RFC3339)
	}
	return row
}

// MasterTable renders unified records under the master header
func MasterTable(records []MasterRecord) Table {
	table := Table{Header: MasterHeader(), Rows: make([]Row, 0, len(records))}
	for _, m := range records {
		table.Rows = append(table.Rows, m.Row())
	}
	return table
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(d decimal.NullDecimal, places int32) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(places)
}
