// Package http implements the HTTP handlers of the demand forecast server.
// Handlers are a thin layer between HTTP transport and the services: they
// parse and validate the request, call a service and format the response.
//
// # Routes
//
//	GET    /                                          dashboard page
//	POST   /api/datasets                              multipart CSV upload (field "file")
//	GET    /api/datasets                              live datasets
//	GET    /api/datasets/{id}                         dataset summary
//	DELETE /api/datasets/{id}                         drop a dataset
//	GET    /api/datasets/{id}/records?limit=          raw row preview
//	GET    /api/datasets/{id}/skus                    distinct SKUs
//	GET    /api/datasets/{id}/skus/{sku}/history      daily series and summary
//	GET    /api/datasets/{id}/skus/{sku}/forecast     forecast result
//	GET    /api/datasets/{id}/skus/{sku}/forecast.csv download, ?scope=all|tail
//	GET    /api/datasets/{id}/skus/{sku}/forecast.xlsx
//	GET    /api/datasets/{id}/skus/{sku}/charts/history.png
//	GET    /api/datasets/{id}/skus/{sku}/charts/forecast.png
//
// # Error Handling
//
// Service errors are translated by mapServiceError into API errors and
// written by the shared ErrorHandler as RFC 7807 problem documents:
//
//	{
//	    "type": "/errors/forecast/insufficient-history",
//	    "title": "Unprocessable Entity",
//	    "status": 422,
//	    "detail": "not enough data for this SKU",
//	    "instance": "/api/datasets/.../skus/A1/forecast",
//	    "error_code": "INSUFFICIENT_HISTORY",
//	    "trace_id": "..."
//	}
//
// # Testing
//
// Handlers depend on DatasetServiceInterface and ForecastServiceInterface and
// are tested with testify mocks and httptest.
package http
