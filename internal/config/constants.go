package config

import "time"

// Application constants
const (
	AppName   = "Fertilizer Pulse"
	EnvPrefix = "FERT"

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"
	DefaultReportsDir = "data/reports"

	DefaultDataSource     = "data/result.json"
	DefaultBoundarySource = "web/india.json"

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultFetchTimeout = 30 * time.Second

	// Rate Limiting
	DefaultRateLimit = 100 // requests per second
	DefaultBurstSize = 50

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Dashboard
	DefaultTheme        = "light"
	DefaultParentState  = "Uttar Pradesh"
	DefaultTopN         = 5
	AllProductsOption   = "All Products"
	MatchAllFilterValue = "All"
)

// API paths
const (
	APIBasePath     = "/api"
	HealthEndpoint  = "/api/health"
	MetricsEndpoint = "/metrics"
)

// Themes the dashboard understands.
var Themes = []string{"light", "dark"}
