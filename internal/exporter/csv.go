package exporter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"fertpulse/internal/config"
)

// ErrUnknownFormat is returned for an export format other than csv or xlsx.
var ErrUnknownFormat = errors.New("unknown export format")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. Relative file paths are
// resolved under the reports directory.
func NewCSVWriter(paths *config.Paths, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{paths: paths, logger: logger.With(slog.String("component", "csv_writer"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// Encode writes the table as CSV: header row, then one line per row.
func (w *CSVWriter) Encode(out io.Writer, t Table, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if len(t.Headers) > 0 {
		if err := writer.Write(t.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	line := make([]string, 0, len(t.Headers))
	for i, row := range t.Rows {
		line = line[:0]
		for _, cell := range row {
			line = append(line, formatCell(cell))
		}
		if err := writer.Write(line); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the table to filePath and returns the resolved path.
func (w *CSVWriter) WriteFile(filePath string, t Table, options WriteOptions) (string, error) {
	fullPath := resolvePath(w.paths, filePath)

	w.logger.Info("Writing CSV file",
		slog.String("table", t.Name),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(t.Rows)))

	err := writeFile(fullPath, func(f io.Writer) error {
		return w.Encode(f, t, options)
	})
	return fullPath, err
}

// writeFile creates fullPath with its directory and hands it to encode.
func writeFile(fullPath string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// resolvePath keeps absolute paths and places relative ones in the reports
// directory.
func resolvePath(paths *config.Paths, filePath string) string {
	if filepath.IsAbs(filePath) || paths == nil {
		return filePath
	}
	return paths.GetReportPath(filePath)
}
