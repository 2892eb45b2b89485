// Package app wires the demand forecast server together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (defaults, config.yaml, .env, DEMAND_* variables)
//	2. Initialize the slog logger and OpenTelemetry providers
//	3. Create the in-memory dataset store and the forecast metrics
//	4. Build the dataset, forecast and health services
//	5. Mount handlers behind the middleware chain
//	6. Create the HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// # Graceful Shutdown
//
// Run returns on SIGINT, SIGTERM or context cancellation. Stop lets in-flight
// requests finish within Server.ShutdownTimeout, halts the expiry sweep and
// flushes telemetry. Uploaded datasets live only in memory and are dropped.
//
// The package never calls os.Exit; errors are returned to main.
package app
