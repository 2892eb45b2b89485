package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/marwannelsayed/spare-demand-forecast/internal/charts"
	apierrors "github.com/marwannelsayed/spare-demand-forecast/internal/errors"
	"github.com/marwannelsayed/spare-demand-forecast/internal/exporter"
	"github.com/marwannelsayed/spare-demand-forecast/internal/middleware"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

var scopes = []string{string(exporter.ScopeAll), string(exporter.ScopeTail)}

// ForecastHandler serves forecasts for one SKU of a dataset as JSON, file
// downloads and charts. Its routes expect DatasetCtx and SKUCtx upstream.
type ForecastHandler struct {
	service      ForecastServiceInterface
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(service ForecastServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ForecastHandler {
	return &ForecastHandler{
		service:      service,
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "forecast_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes adds the forecast routes to a SKU-scoped router
func (h *ForecastHandler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast", h.GetForecast)
	r.Get("/forecast.csv", h.Download(exporter.FormatCSV))
	r.Get("/forecast.xlsx", h.Download(exporter.FormatXLSX))
	r.Get("/charts/forecast.png", h.GetForecastChart)
}

// forecast runs the forecast for the SKU in context, answering with a
// problem on failure
func (h *ForecastHandler) forecast(w http.ResponseWriter, r *http.Request) (*domain.ForecastResult, bool) {
	id, sku := datasetIDFrom(r.Context()), skuFrom(r.Context())

	result, err := h.service.ForecastDataset(r.Context(), id, sku)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err, id, sku))
		return nil, false
	}
	return result, true
}

// GetForecast handles GET /api/datasets/{id}/skus/{sku}/forecast
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	result, ok := h.forecast(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, result)
}

// Download returns the handler for GET .../forecast.csv and .../forecast.xlsx.
// ?scope=all (default) exports the whole forecast, ?scope=tail the rows shown
// in the dashboard table.
func (h *ForecastHandler) Download(format exporter.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, ok := h.query.ValidateEnum(w, r, "scope", scopes, string(exporter.ScopeAll))
		if !ok {
			return
		}

		result, ok := h.forecast(w, r)
		if !ok {
			return
		}

		rows := exporter.SelectRows(result.Forecast, exporter.Scope(scope), h.service.TailRows())

		var buf bytes.Buffer
		var err error
		switch format {
		case exporter.FormatXLSX:
			err = exporter.WriteForecastXLSX(&buf, rows, result.History)
		default:
			err = exporter.WriteForecastCSV(&buf, rows)
		}
		if err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		h.logger.DebugContext(r.Context(), "forecast exported",
			slog.String("sku", result.SKU),
			slog.String("format", string(format)),
			slog.String("scope", scope),
			slog.Int("rows", len(rows)))

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
		w.Header().Set("Cache-Control", "no-store")
		_, _ = buf.WriteTo(w)
	}
}

// GetForecastChart handles GET .../charts/forecast.png
func (h *ForecastHandler) GetForecastChart(w http.ResponseWriter, r *http.Request) {
	opts, ok := chartOptions(w, r, h.query, "Forecast: "+skuFrom(r.Context()))
	if !ok {
		return
	}

	result, ok := h.forecast(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderForecast(&buf, result.Window, opts); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	writePNG(w, &buf)
}
