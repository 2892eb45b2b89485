// Package services implements the application layer between the HTTP
// handlers and the domain packages.
//
// # Available Services
//
//	- DatasetService: accepts CSV uploads and serves their rows, SKUs and
//	  daily history from the in-memory store
//	- ForecastService: aggregates one SKU, runs the forecast pipeline and
//	  selects the display window
//	- HealthService: health, readiness, liveness and version reporting
//
// # Error Handling
//
// Services return sentinel errors that handlers map to problem responses:
//
//	- ErrDatasetNotFound, ErrSKUNotFound for unknown resources
//	- ErrInvalidFileType for uploads that are not CSV
//	- sales parse errors (*sales.RowError, *sales.MissingColumnsError) as is
//	- forecast.ErrInsufficientHistory and forecast.ErrFitFailed from the pipeline
//
// # Concurrency
//
// Identical concurrent forecast requests for the same dataset and SKU are
// coalesced with singleflight. Results are never cached.
package services
