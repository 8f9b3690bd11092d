// Package services computes the dashboard views and the health reports
// served by the HTTP layer.
//
// DashboardService reads the immutable dataset through a RecordSource and
// derives every view with the aggregation engine on each call. Nothing is
// cached: the dataset is small and a view is a handful of passes over it.
// Each view runs in its own span and is counted in the dashboard view
// metrics.
//
// Query problems (an unknown month, a value field that is not a quantity)
// come back as validation AppErrors wrapping one of the sentinel errors in
// this package, so handlers can pass them straight to the error handler.
// While the dataset is still loading every view fails with
// files.ErrNotReady.
//
// HealthService reports liveness and readiness. The service is ready once
// the dataset is; a failed boundary load only degrades the map.
package services
