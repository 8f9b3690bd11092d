package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"fertpulse/pkg/contracts/domain"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename returns name with the format's extension.
func (f Format) Filename(name string) string {
	return name + "." + string(f)
}

// Table is one exportable sheet. Cells hold a string, an int, a float64
// or nil.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Column headers of the exported tables.
var (
	ProductHeaders = []string{"Product", "Requirement (MT)", "Availability (MT)", "Net Balance (MT)"}
	RecordHeaders  = []string{"ID", "Year", "Month", "State", "Product", "Requirement (MT)", "Availability (MT)"}
)

// ProductTable builds the per-product table with a trailing totals row.
func ProductTable(rows []domain.AggregateRow, totals domain.AggregateRow) Table {
	t := Table{Name: "Products", Headers: ProductHeaders, Rows: make([][]interface{}, 0, len(rows)+1)}
	for _, r := range rows {
		t.Rows = append(t.Rows, productRow(r))
	}
	t.Rows = append(t.Rows, productRow(totals))
	return t
}

func productRow(r domain.AggregateRow) []interface{} {
	return []interface{}{r.Key, r.Requirement, r.Availability, r.NetBalance()}
}

// RecordTable builds the raw record table. Quantities that parse are
// written as numbers, anything else as the text it arrived in.
func RecordTable(records []domain.Record) Table {
	t := Table{Name: "Records", Headers: RecordHeaders, Rows: make([][]interface{}, 0, len(records))}
	for _, r := range records {
		var year interface{}
		if r.Year != nil {
			year = *r.Year
		} else if r.RawYear != "" {
			year = r.RawYear
		}
		t.Rows = append(t.Rows, []interface{}{
			string(r.ID), year, r.Month, r.State, r.Product,
			quantityCell(r.Requirement), quantityCell(r.Availability),
		})
	}
	return t
}

func quantityCell(q domain.Quantity) interface{} {
	if !q.Present {
		return nil
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(q.Raw), 64); err == nil {
		return v
	}
	return q.Raw
}

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatCell renders one table cell as CSV text.
func formatCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case float64:
		return formatFloat(c)
	case int:
		return strconv.Itoa(c)
	case string:
		return c
	default:
		return fmt.Sprint(c)
	}
}
