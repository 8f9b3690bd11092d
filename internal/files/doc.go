// Package files locates and opens the inputs the dashboard is built from.
//
// Discovery resolves a configured dataset source: a URL, a file, or a
// directory whose newest .json/.csv file is used.
//
// Opener reads a source from disk or over HTTP.
//
// Loader runs a one-shot load and tracks it through loading, ready and
// failed. A failed load is terminal for the life of the process.
//
//	loader := files.NewLoader("dataset", src, loadFn, logger)
//	loader.Start(ctx)
//	records, err := loader.Get() // ErrNotReady until the load finishes
package files
