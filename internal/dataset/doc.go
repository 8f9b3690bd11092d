// Package dataset loads the fertilizer record set and holds it for the life
// of the process.
//
// The source is a JSON array of records or a CSV file with the same column
// names (_year, month, state, product, requirement_in_mt_,
// availability_in_mt_, id). It is read once; the resulting slice is shared
// read-only by every view and is never modified after load.
package dataset
