// Package exporter writes dashboard tables as CSV or XLSX files.
//
// A Table is a header row plus typed cells. ProductTable and RecordTable
// build the two exportable views; CSVWriter and XLSXWriter encode them to
// any io.Writer or to a file under the reports directory.
//
//	w := exporter.NewXLSXWriter(paths, logger)
//	path, err := w.WriteFile("fertilizer.xlsx",
//		exporter.ProductTable(rows, totals),
//		exporter.RecordTable(records))
//
// CSV floats are written with two decimals. XLSX numbers are numeric cells
// with a two-decimal number format, so spreadsheets can sum them.
package exporter
