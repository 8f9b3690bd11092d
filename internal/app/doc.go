// Package app provides application initialization and lifecycle management
// for the fertilizer dashboard server. It wires configuration, logging,
// telemetry, the dataset and boundary stores, the services and the HTTP
// router together.
//
// # Initialization Flow
//
//	1. Load configuration from the YAML file and FERT_* environment variables
//	2. Initialize logging and OpenTelemetry
//	3. Resolve paths and the dataset source (a directory picks its newest file)
//	4. Create the dataset and boundary stores
//	5. Initialize services with their dependencies
//	6. Start the WebSocket hub
//	7. Set up HTTP handlers and middleware
//
// Loads begin in Start, so the server answers health checks while the
// dataset is still arriving. Views return 503 until it is ready. Each
// finished load is announced to /ws clients.
//
// # Usage
//
//	application, err := app.NewApplication(webFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. WebSocket clients are disconnected first,
// then in-flight requests complete within the shutdown timeout, telemetry is
// flushed and the log file is closed.
// Errors are returned to the caller; the package never calls os.Exit.
package app
