package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"fertpulse/internal/config"
)

// Built-in excelize number format "0.00".
const twoDecimals = 2

// XLSXWriter writes tables as sheets of one workbook.
type XLSXWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewXLSXWriter creates an XLSX writer. Relative file paths are resolved
// under the reports directory.
func NewXLSXWriter(paths *config.Paths, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{paths: paths, logger: logger.With(slog.String("component", "xlsx_writer"))}
}

// Encode writes a workbook with one sheet per table. The header row is
// bold and frozen; numbers are stored as numeric cells.
func (w *XLSXWriter) Encode(out io.Writer, tables ...Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: twoDecimals})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	for i, t := range tables {
		sheet := t.Name
		if sheet == "" {
			sheet = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			err = f.SetSheetName("Sheet1", sheet)
		} else {
			_, err = f.NewSheet(sheet)
		}
		if err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}

		if err := writeSheet(f, sheet, t, headerStyle, numberStyle); err != nil {
			return fmt.Errorf("sheet %q: %w", sheet, err)
		}
	}
	f.SetActiveSheet(0)

	return f.Write(out)
}

func writeSheet(f *excelize.File, sheet string, t Table, headerStyle, numberStyle int) error {
	if len(t.Headers) > 0 {
		headers := make([]interface{}, len(t.Headers))
		for i, h := range t.Headers {
			headers[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
			return err
		}
		last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", columnName(len(t.Headers)), 18); err != nil {
			return err
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, value := range row {
			if value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
			if _, ok := value.(float64); ok {
				if err := f.SetCellStyle(sheet, cell, cell, numberStyle); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func columnName(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}

// WriteFile writes the workbook to filePath and returns the resolved path.
func (w *XLSXWriter) WriteFile(filePath string, tables ...Table) (string, error) {
	fullPath := resolvePath(w.paths, filePath)

	rows := 0
	for _, t := range tables {
		rows += len(t.Rows)
	}
	w.logger.Info("Writing XLSX file",
		slog.String("full_path", fullPath),
		slog.Int("sheets", len(tables)),
		slog.Int("record_count", rows))

	err := writeFile(fullPath, func(out io.Writer) error {
		return w.Encode(out, tables...)
	})
	return fullPath, err
}
