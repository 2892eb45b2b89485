package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/internal/dataprocessing"
	"github.com/marwannelsayed/spare-demand-forecast/internal/forecast"
	"github.com/marwannelsayed/spare-demand-forecast/internal/infrastructure"
	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

const tracerName = "github.com/marwannelsayed/spare-demand-forecast/internal/services"

// DatasetSource looks up stored uploads
type DatasetSource interface {
	Dataset(ctx context.Context, id string) (*sales.Dataset, error)
}

// ForecastService runs the forecast pipeline for one SKU at a time
type ForecastService struct {
	datasets   DatasetSource
	pipeline   *forecast.Pipeline
	windowDays int
	tailRows   int
	metrics    *infrastructure.ForecastMetrics
	logger     *slog.Logger
	tracer     trace.Tracer
	group      singleflight.Group
	now        func() time.Time
}

// NewForecastService creates a forecast service. datasets and metrics may be
// nil when only Forecast is used.
func NewForecastService(datasets DatasetSource, pipeline *forecast.Pipeline, cfg config.ForecastConfig, metrics *infrastructure.ForecastMetrics, logger *slog.Logger) *ForecastService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.WindowDays < 0 {
		cfg.WindowDays = forecast.DefaultWindowDays
	}
	if cfg.TailRows <= 0 {
		cfg.TailRows = config.DefaultTailRows
	}
	return &ForecastService{
		datasets:   datasets,
		pipeline:   pipeline,
		windowDays: cfg.WindowDays,
		tailRows:   cfg.TailRows,
		metrics:    metrics,
		logger:     infrastructure.WithComponent(logger, "forecast_service"),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

// NewPipelineFromConfig builds the default additive pipeline
func NewPipelineFromConfig(cfg config.ForecastConfig, logger *slog.Logger) *forecast.Pipeline {
	backend := forecast.NewAdditiveBackend(forecast.AdditiveConfig{IntervalWidth: cfg.IntervalWidth})
	return forecast.NewPipeline(backend, cfg.HorizonDays, logger)
}

// ForecastDataset forecasts sku from a stored dataset. Identical concurrent
// calls share one run; nothing is kept once it completes.
func (s *ForecastService) ForecastDataset(ctx context.Context, datasetID, sku string) (*domain.ForecastResult, error) {
	if s.datasets == nil {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, datasetID)
	}
	ds, err := s.datasets.Dataset(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if !ds.Set.HasSKU(sku) {
		return nil, fmt.Errorf("%w: %q", ErrSKUNotFound, sku)
	}

	key := datasetID + "|" + sku
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		// one waiter going away must not fail the others
		return s.run(context.WithoutCancel(ctx), ds.Set.Records(), ds.Set.LastDate(), sku)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.DebugContext(ctx, "forecast shared between requests",
			slog.String("dataset_id", datasetID),
			slog.String("sku", sku))
	}

	result := *v.(*domain.ForecastResult)
	result.DatasetID = datasetID
	return &result, nil
}

// Forecast runs the pipeline over records for sku. The display window is
// centred on the latest date across all records, not only those of sku.
func (s *ForecastService) Forecast(ctx context.Context, records []domain.SalesRecord, sku string) (*domain.ForecastResult, error) {
	var last time.Time
	for _, r := range records {
		if r.Date.After(last) {
			last = r.Date
		}
	}
	return s.run(ctx, records, domain.CalendarDate(last), sku)
}

func (s *ForecastService) run(ctx context.Context, records []domain.SalesRecord, last time.Time, sku string) (*domain.ForecastResult, error) {
	start := s.now()
	logger := s.logger.With(slog.String("sku", sku))

	_, span := s.tracer.Start(ctx, "forecast.aggregate", trace.WithAttributes(
		attribute.String("forecast.sku", sku),
		attribute.Int("forecast.records", len(records)),
	))
	series := dataprocessing.AggregateRecords(records, sku)
	span.SetAttributes(attribute.Int("forecast.days", len(series)))
	span.End()

	points, diag, err := s.pipeline.Run(ctx, series)
	if err != nil {
		outcome := infrastructure.OutcomeFailed
		if errors.Is(err, forecast.ErrInsufficientHistory) {
			outcome = infrastructure.OutcomeInsufficient
			logger.InfoContext(ctx, "not enough history to forecast",
				slog.Int("days", len(series)),
				slog.Int("need", s.pipeline.MinObservations()))
		} else {
			logServiceError(ctx, logger, "forecast", "forecast failed", err,
				slog.Int("days", len(series)))
		}
		infrastructure.RecordError(ctx, err)
		s.metrics.RecordForecast(ctx, outcome, s.now().Sub(start), 0)
		return nil, err
	}

	_, span = s.tracer.Start(ctx, "forecast.window", trace.WithAttributes(
		attribute.Int("forecast.window_days", s.windowDays),
	))
	window := forecast.SelectWindow(points, series, last, s.windowDays)
	span.End()

	result := &domain.ForecastResult{
		SKU:         sku,
		History:     series,
		Summary:     dataprocessing.Summarize(series),
		Forecast:    points,
		Window:      window,
		Tail:        forecast.Tail(points, s.tailRows),
		Diagnostics: diag,
		Accuracy:    forecast.Accuracy(series, points),
		GeneratedAt: s.now().UTC(),
	}

	elapsed := s.now().Sub(start)
	s.metrics.RecordForecast(ctx, infrastructure.OutcomeSuccess, elapsed, len(points))
	logger.InfoContext(ctx, "forecast completed",
		slog.Int("days", len(series)),
		slog.Int("points", len(points)),
		slog.Int("window_points", len(window.Forecast)),
		slog.Duration("duration", elapsed))

	return result, nil
}

// HorizonDays returns how many days past the last observation are forecast
func (s *ForecastService) HorizonDays() int {
	return s.pipeline.HorizonDays()
}

// TailRows returns the size of the table preview
func (s *ForecastService) TailRows() int {
	return s.tailRows
}
