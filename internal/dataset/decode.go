package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apierrors "fertpulse/internal/errors"
	"fertpulse/pkg/contracts/domain"
)

// Format is the encoding of a dataset source.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ErrUnsupportedFormat is returned for sources that are neither JSON nor CSV.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// Column names shared by the JSON keys and the CSV header.
const (
	ColumnYear         = "_year"
	ColumnMonth        = "month"
	ColumnState        = "state"
	ColumnProduct      = "product"
	ColumnRequirement  = "requirement_in_mt_"
	ColumnAvailability = "availability_in_mt_"
	ColumnID           = "id"
)

// Columns is the export column order.
var Columns = []string{
	ColumnYear, ColumnMonth, ColumnState, ColumnProduct,
	ColumnRequirement, ColumnAvailability, ColumnID,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FormatOf picks a format from the source extension. URLs without an
// extension are treated as JSON.
func FormatOf(source string) (Format, error) {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json", ".js", "":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, source)
}

// Decode reads every record from r.
func Decode(r io.Reader, format Format) ([]domain.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatCSV:
		return decodeCSV(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

func decodeJSON(data []byte) ([]domain.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []domain.Record{}, nil
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apierrors.NewParsingError("failed to decode JSON dataset", err)
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

func decodeCSV(data []byte) ([]domain.Record, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apierrors.NewParsingError("failed to read CSV dataset", err)
	}
	if len(rows) == 0 {
		return []domain.Record{}, nil
	}

	index := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		index[strings.TrimSpace(col)] = i
	}
	if _, ok := index[ColumnID]; !ok {
		return nil, apierrors.NewParsingError(fmt.Sprintf("CSV dataset has no %q column", ColumnID), nil).
			WithContext("header", rows[0])
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(name string) (string, bool) {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return "", false
			}
			return strings.TrimSpace(row[i]), true
		}

		var r domain.Record
		if v, ok := cell(ColumnYear); ok {
			r.SetYear(v)
		}
		r.Month, _ = cell(ColumnMonth)
		r.State, _ = cell(ColumnState)
		r.Product, _ = cell(ColumnProduct)
		if v, ok := cell(ColumnRequirement); ok {
			r.Requirement = domain.NewQuantity(v)
		}
		if v, ok := cell(ColumnAvailability); ok {
			r.Availability = domain.NewQuantity(v)
		}
		id, _ := cell(ColumnID)
		r.ID = domain.RecordID(id)

		records = append(records, r)
	}
	return records, nil
}
