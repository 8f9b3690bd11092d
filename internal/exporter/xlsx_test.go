package exporter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"fertpulse/internal/config"
	"fertpulse/internal/shared/testutil"
	"fertpulse/pkg/contracts/domain"
)

func TestXLSXWriter_Encode(t *testing.T) {
	products := ProductTable([]domain.AggregateRow{
		{Key: "DAP", Requirement: 100, Availability: 85},
	}, domain.AggregateRow{Key: "Total", Requirement: 100, Availability: 85})
	records := RecordTable(testutil.Records())

	var buf bytes.Buffer
	require.NoError(t, NewXLSXWriter(nil, nil).Encode(&buf, products, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Products", "Records"}, f.GetSheetList())

	rows, err := f.GetRows("Products", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, ProductHeaders, rows[0])
	assert.Equal(t, []string{"DAP", "100", "85", "-15"}, rows[1])

	styleID, err := f.GetCellStyle("Products", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	styleID, err = f.GetCellStyle("Products", "B2")
	require.NoError(t, err)
	style, err = f.GetStyle(styleID)
	require.NoError(t, err)
	assert.Equal(t, twoDecimals, style.NumFmt)

	// unparseable quantities stay text
	value, err := f.GetCellValue("Records", "G7")
	require.NoError(t, err)
	assert.Equal(t, "n/a", value)
}

func TestXLSXWriter_NoTables(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewXLSXWriter(nil, nil).Encode(&buf))
}

func TestXLSXWriter_WriteFile(t *testing.T) {
	paths := config.NewPaths(t.TempDir(), config.PathsConfig{})
	logger, logs := testutil.NewTestLogger(t)

	fullPath, err := NewXLSXWriter(paths, logger).WriteFile("fertilizer.xlsx", RecordTable(testutil.Records()))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.ReportsDir, "fertilizer.xlsx"), fullPath)

	f, err := excelize.OpenFile(fullPath)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Records"}, f.GetSheetList())
	assert.True(t, logs.ContainsAttr("sheets", int64(1)))
}
