// Package shared holds code used across packages that belongs to no single
// layer.
//
// The testutil subpackage provides a buffered slog handler for asserting
// on log output and a small fertilizer dataset with matching map
// boundaries:
//
//	logger, logs := testutil.NewTestLogger(t)
//	store := dataset.NewStaticStore(testutil.Records())
//	// ...
//	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Dataset ready")
package shared
