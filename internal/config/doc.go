// Package config provides configuration loading for the demand forecast server.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources, later sources
// overriding earlier ones:
//
//	1. Default values (see Default)
//	2. A YAML file: DEMAND_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//	3. Environment variables, optionally seeded from a .env file
//
// # Environment Variables
//
// Variables follow the pattern DEMAND_<SECTION>_<FIELD>:
//
//	DEMAND_SERVER_PORT=8080
//	DEMAND_LOGGING_LEVEL=debug
//	DEMAND_UPLOAD_MAX_BYTES=33554432
//	DEMAND_FORECAST_INTERVAL_WIDTH=0.8
//	DEMAND_TELEMETRY_TRACE_EXPORTER=stdout
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := &http.Server{Addr: cfg.Addr()}
package config
