package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/churbro/backend/internal/domain"
	"github.com/churbro/backend/internal/infrastructure/sqlite"
	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(header)
	t.SetStyle(table.StyleRounded)
	return t
}

// renderRunReport prints per-store extraction and cleanup counts of one run
func renderRunReport(w io.Writer, report *domain.RunReport) {
	fmt.Fprintf(w, "run %s: %d products in %s\n", report.RunID, report.Total, report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	renderStoreReports(w, report.Stores)
	if len(report.Missing) > 0 {
		fmt.Fprintf(w, "missing stores: %s\n", strings.Join(report.Missing, ", "))
	}
}

func renderStoreReports(w io.Writer, stores []domain.StoreReport) {
	t := newTable(w, table.Row{"Store", "Pages", "Cards", "Accepted", "Rejected", "Below min", "Bad name", "Kept", "Status"})
	for _, st := range stores {
		status := "ok"
		switch {
		case st.Missing:
			status = "missing"
		case st.FetchError != "":
			status = "partial"
		}
		t.AppendRow(table.Row{
			st.Store, st.Extraction.Pages, st.Extraction.Cards, st.Extraction.Accepted,
			formatRejected(st.Extraction.Rejected),
			st.Cleanup.BelowMinPrice, st.Cleanup.InvalidName, st.Cleanup.Kept, status,
		})
	}
	t.Render()
}

// formatRejected renders rejection counts as "no_name=1 no_price=2"
func formatRejected(rejected map[string]int) string {
	if len(rejected) == 0 {
		return "-"
	}
	reasons := make([]string, 0, len(rejected))
	for reason := range rejected {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, rejected[reason]))
	}
	return strings.Join(parts, " ")
}

func renderProfiles(w io.Writer, profiles []*domain.Profile) {
	t := newTable(w, table.Row{"Key", "Store", "Base URL", "Max pages", "Price range", "Min price", "Badges"})
	for _, p := range profiles {
		labels := make([]string, 0, len(p.Badges))
		for _, tag := range p.BadgeOrder() {
			labels = append(labels, p.BadgeLabel(tag))
		}
		t.AppendRow(table.Row{
			p.Store, p.DisplayName, p.Fetch.BaseURL, p.Fetch.MaxPages,
			fmt.Sprintf("%s..%s", p.Price.MinPrice.StringFixed(2), p.Price.MaxPrice.StringFixed(2)),
			p.Cleanup.MinPrice.StringFixed(2),
			strings.Join(labels, ", "),
		})
	}
	t.Render()
}

func renderRuns(w io.Writer, runs []sqlite.RunSummary) {
	t := newTable(w, table.Row{"Run", "Started", "Duration", "Products", "Missing"})
	for _, r := range runs {
		missing := "-"
		if len(r.Missing) > 0 {
			missing = strings.Join(r.Missing, ", ")
		}
		t.AppendRow(table.Row{r.RunID, r.StartedAt.Format("2006-01-02 15:04"), r.FinishedAt.Sub(r.StartedAt).Round(time.Second), r.Total, missing})
	}
	t.Render()
}

func renderPriceHistory(w io.Writer, points []sqlite.PricePoint) {
	t := newTable(w, table.Row{"Run started", "Price"})
	for _, p := range points {
		t.AppendRow(table.Row{p.At.Format("2006-01-02 15:04"), "$" + p.Price.StringFixed(2)})
	}
	t.Render()
}

func renderCounts(w io.Writer, counts map[string]int, order []string) {
	t := newTable(w, table.Row{"Store", "Products"})
	total := 0
	for _, store := range order {
		n, ok := counts[store]
		if !ok {
			continue
		}
		t.AppendRow(table.Row{store, n})
		total += n
	}
	t.AppendFooter(table.Row{"Total", total})
	t.Render()
}

func renderRecords(w io.Writer, records []domain.Record) {
	t := newTable(w, table.Row{"SKU", "Name", "Price", "Was", "Unit", "Per kg", "Deal"})
	for _, r := range records {
		perKg := "-"
		if r.PricePerKg.Valid {
			perKg = r.PricePerKg.Decimal.StringFixed(2)
		}
		was := "-"
		if r.OriginalPrice.GreaterThan(r.SalePrice) {
			was = r.OriginalPrice.StringFixed(2)
		}
		t.AppendRow(table.Row{r.SKU, r.Name, r.SalePrice.StringFixed(2), was, r.UnitType, perKg, r.DealType})
	}
	t.Render()
}
