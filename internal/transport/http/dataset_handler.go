package http

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/marwannelsayed/spare-demand-forecast/internal/charts"
	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	apierrors "github.com/marwannelsayed/spare-demand-forecast/internal/errors"
	"github.com/marwannelsayed/spare-demand-forecast/internal/middleware"
	"github.com/marwannelsayed/spare-demand-forecast/internal/services"
	api "github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/api/v1"
)

const (
	uploadField    = "file"
	maxPreviewRows = 5000
	maxChartSide   = 2400
)

// DatasetHandler handles sales history uploads and their inspection
type DatasetHandler struct {
	service      DatasetServiceInterface
	maxBytes     int64
	validator    *middleware.ValidationMiddleware
	query        *middleware.QueryParamValidator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(service DatasetServiceInterface, cfg config.UploadConfig, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		maxBytes:     cfg.MaxBytes,
		validator:    middleware.NewValidationMiddleware(logger, errorHandler),
		query:        middleware.NewQueryParamValidator(logger, errorHandler),
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes. SKU-scoped forecast routes are added
// when forecasts is not nil.
func (h *DatasetHandler) Routes(forecasts *ForecastHandler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListDatasets)
	r.With(middleware.ContentTypeValidator("multipart/form-data")).Post("/", h.Upload)

	r.Route("/{id}", func(r chi.Router) {
		r.Use(DatasetCtx(h.validator, h.errorHandler))
		r.Get("/", h.GetDataset)
		r.Delete("/", h.DeleteDataset)
		r.Get("/records", h.GetRecords)
		r.Get("/skus", h.GetSKUs)

		r.Route("/skus/{sku}", func(r chi.Router) {
			r.Use(SKUCtx(h.validator, h.errorHandler))
			r.Get("/history", h.GetHistory)
			r.Get("/charts/history.png", h.GetHistoryChart)

			if forecasts != nil {
				forecasts.RegisterRoutes(r)
			}
		})
	})

	return r
}

// Upload handles POST /api/datasets. The multipart body is streamed; the
// "file" part goes straight to the CSV parser.
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField, "a multipart/form-data body with a file field is required"))
		return
	}

	var part io.ReadCloser
	var name string
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation(uploadField, "file is required"))
			return
		}
		if err != nil {
			h.handleUploadError(w, r, name, err)
			return
		}
		if p.FormName() == uploadField {
			part, name = p, p.FileName()
			break
		}
		_ = p.Close()
	}
	defer part.Close()

	info, err := h.service.Upload(r.Context(), name, part)
	if err != nil {
		h.handleUploadError(w, r, name, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, info)
}

func (h *DatasetHandler) handleUploadError(w http.ResponseWriter, r *http.Request, name string, err error) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		h.errorHandler.HandleError(w, r, err)
	case errors.Is(err, services.ErrInvalidFileType):
		h.errorHandler.HandleError(w, r, apierrors.InvalidFileType(name))
	default:
		mapped := mapServiceError(err, "", "")
		var apiErr *apierrors.APIError
		if !errors.As(mapped, &apiErr) && r.Context().Err() == nil {
			// anything else wrong with the body is the client's
			mapped = apierrors.InvalidRequestWithError(err)
		}
		h.errorHandler.HandleError(w, r, mapped)
	}
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	list := h.service.List(r.Context())
	render.JSON(w, r, api.NewListResponse(list, len(list)))
}

// GetDataset handles GET /api/datasets/{id}
func (h *DatasetHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	id := datasetIDFrom(r.Context())
	info, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err, id, ""))
		return
	}
	render.JSON(w, r, info)
}

// DeleteDataset handles DELETE /api/datasets/{id}
func (h *DatasetHandler) DeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := datasetIDFrom(r.Context())
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err, id, ""))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRecords handles GET /api/datasets/{id}/records?limit=
func (h *DatasetHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.query.ValidateInt(w, r, "limit", 1, maxPreviewRows, 0)
	if !ok {
		return
	}

	id := datasetIDFrom(r.Context())
	page, err := h.service.Records(r.Context(), id, limit)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err, id, ""))
		return
	}
	render.JSON(w, r, page)
}

// GetSKUs handles GET /api/datasets/{id}/skus
func (h *DatasetHandler) GetSKUs(w http.ResponseWriter, r *http.Request) {
	id := datasetIDFrom(r.Context())
	skus, err := h.service.SKUs(r.Context(), id)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err, id, ""))
		return
	}
	render.JSON(w, r, api.NewListResponse(skus, len(skus)))
}

// GetHistory handles GET /api/datasets/{id}/skus/{sku}/history
func (h *DatasetHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	id, sku := datasetIDFrom(r.Context()), skuFrom(r.Context())
	history, err := h.service.History(r.Context(), id, sku)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err, id, sku))
		return
	}
	render.JSON(w, r, history)
}

// GetHistoryChart handles GET /api/datasets/{id}/skus/{sku}/charts/history.png
func (h *DatasetHandler) GetHistoryChart(w http.ResponseWriter, r *http.Request) {
	opts, ok := chartOptions(w, r, h.query, "Daily demand: "+skuFrom(r.Context()))
	if !ok {
		return
	}

	id, sku := datasetIDFrom(r.Context()), skuFrom(r.Context())
	history, err := h.service.History(r.Context(), id, sku)
	if err != nil {
		h.errorHandler.HandleError(w, r, mapServiceError(err, id, sku))
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderHistory(&buf, history.Series, opts); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	writePNG(w, &buf)
}

// chartOptions reads the optional width and height query parameters
func chartOptions(w http.ResponseWriter, r *http.Request, query *middleware.QueryParamValidator, title string) (charts.Options, bool) {
	opts := charts.DefaultOptions()
	opts.Title = title

	width, ok := query.ValidateInt(w, r, "width", charts.MinWidth, maxChartSide, opts.Width)
	if !ok {
		return opts, false
	}
	height, ok := query.ValidateInt(w, r, "height", charts.MinHeight, maxChartSide, opts.Height)
	if !ok {
		return opts, false
	}

	opts.Width, opts.Height = width, height
	return opts, true
}

func writePNG(w http.ResponseWriter, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}
