// Package config provides centralized configuration management.
//
// # Configuration Sources
//
// Configuration is built in layers, later ones winning:
//
//	1. Default() values
//	2. The first config.yaml found in ., configs/, ../configs/ or ../../configs/
//	3. Environment variables
//
// # Environment Variables
//
// Variables use the FERT prefix and the section name:
//
//	FERT_SERVER_PORT=8080
//	FERT_DATA_SOURCE=https://example.org/result.json
//	FERT_DATA_BOUNDARY_SOURCE=web/india.json
//	FERT_LOGGING_LEVEL=debug
//	FERT_DASHBOARD_THEME=dark
//	FERT_TELEMETRY_TRACE_EXPORTER=none
//
// # Path Management
//
// Paths resolves every directory relative to the executable, never the
// working directory:
//
//	paths, err := cfg.ResolvePaths()
//	report := paths.GetReportPath("products.xlsx")
//	source := paths.Resolve(cfg.Data.Source)
package config
