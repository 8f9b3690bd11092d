package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fertpulse/internal/config"
	"fertpulse/internal/exporter"
	"fertpulse/internal/shared/testutil"
)

const datasetCSV = `_year,month,state,product,requirement_in_mt_,availability_in_mt_,id
2023,April,Bihar,DAP,100,85,1
2023,April,Bihar,Urea,200,210,2
2023,May,Punjab,DAP,50,40,3
2023,May,Punjab,MOP,n/a,5,4
`

func newReporter(t *testing.T) (*reporter, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	var stdout bytes.Buffer
	return &reporter{
		paths:     config.NewPaths(dir, config.PathsConfig{}),
		dashboard: config.Default().Dashboard,
		logger:    logger,
		stdout:    &stdout,
	}, &stdout, dir
}

func writeDataset(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(datasetCSV), 0644))
	return path
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-data", "x.json", "-state", "Bihar", "-sort", "requirement", "-direction", "descending"})
	require.NoError(t, err)
	assert.Equal(t, "x.json", opts.Data)
	assert.Equal(t, "Bihar", opts.State)
	assert.Equal(t, "requirement", opts.Sort)
	assert.Equal(t, "descending", opts.Direction)
	assert.Equal(t, formatBoth, opts.Format)
	assert.False(t, opts.Version)

	opts, err = parseFlags([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, opts.Version)

	_, err = parseFlags([]string{"-bogus"})
	assert.Error(t, err)
}

func TestFormats(t *testing.T) {
	tests := []struct {
		value    string
		expected []exporter.Format
		wantErr  bool
	}{
		{"both", []exporter.Format{exporter.FormatCSV, exporter.FormatXLSX}, false},
		{"BOTH", []exporter.Format{exporter.FormatCSV, exporter.FormatXLSX}, false},
		{"csv", []exporter.Format{exporter.FormatCSV}, false},
		{"xlsx", []exporter.Format{exporter.FormatXLSX}, false},
		{"pdf", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := formats(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, exporter.ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestReporter_Run(t *testing.T) {
	r, stdout, dir := newReporter(t)
	out := filepath.Join(dir, "out")

	err := r.run(context.Background(), options{
		Data:   writeDataset(t, dir),
		Out:    out,
		Sort:   "product",
		Format: formatBoth,
	})
	require.NoError(t, err)

	products := readCSV(t, filepath.Join(out, "fertilizer-products.csv"))
	require.Len(t, products, 5)
	assert.Equal(t, exporter.ProductHeaders, products[0])
	assert.Equal(t, []string{"DAP", "150.00", "125.00", "-25.00"}, products[1])
	assert.Equal(t, "MOP", products[2][0])
	assert.Equal(t, "Urea", products[3][0])
	assert.Equal(t, []string{"Total", "350.00", "340.00", "-10.00"}, products[4])

	records := readCSV(t, filepath.Join(out, "fertilizer-records.csv"))
	assert.Len(t, records, 5)
	assert.Equal(t, exporter.RecordHeaders, records[0])

	f, err := excelize.OpenFile(filepath.Join(out, "fertilizer.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Products", "Records"}, f.GetSheetList())

	assert.Contains(t, stdout.String(), "Records: 4")
	assert.Contains(t, stdout.String(), filepath.Join(out, "fertilizer.xlsx"))
}

func TestReporter_RunFiltered(t *testing.T) {
	r, _, dir := newReporter(t)
	out := filepath.Join(dir, "out")

	err := r.run(context.Background(), options{
		Data:   writeDataset(t, dir),
		Out:    out,
		State:  "Punjab",
		Format: "csv",
	})
	require.NoError(t, err)

	records := readCSV(t, filepath.Join(out, "fertilizer-records.csv"))
	require.Len(t, records, 3)
	for _, row := range records[1:] {
		assert.Equal(t, "Punjab", row[3])
	}

	_, err = os.Stat(filepath.Join(out, "fertilizer.xlsx"))
	assert.True(t, os.IsNotExist(err), "xlsx not requested")
}

func TestReporter_RunErrors(t *testing.T) {
	tests := []struct {
		name     string
		opts     func(dir string) options
		contains string
	}{
		{
			name: "unknown format",
			opts: func(dir string) options {
				return options{Data: filepath.Join(dir, "data.csv"), Out: dir, Format: "pdf"}
			},
			contains: "unknown export format",
		},
		{
			name: "missing dataset",
			opts: func(dir string) options {
				return options{Data: filepath.Join(dir, "missing.json"), Out: dir, Format: "csv"}
			},
			contains: "failed to resolve dataset",
		},
		{
			name: "bad sort direction",
			opts: func(dir string) options {
				return options{Data: filepath.Join(dir, "data.csv"), Out: dir, Direction: "sideways", Format: "csv"}
			},
			contains: "sideways",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, dir := newReporter(t)
			writeDataset(t, dir)

			err := r.run(context.Background(), tt.opts(dir))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.contains), err.Error())
		})
	}
}
