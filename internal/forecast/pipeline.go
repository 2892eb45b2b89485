package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

const tracerName = "github.com/marwannelsayed/spare-demand-forecast/internal/forecast"

// DefaultHorizonDays is the number of days forecast past the last observation
const DefaultHorizonDays = 30

// minFittedQuantity is the floor applied before taking the log
const minFittedQuantity = 1.0

// Pipeline runs clamp, log, fit, predict and exp over one daily series
type Pipeline struct {
	backend     Backend
	horizonDays int
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewPipeline creates a pipeline around backend
func NewPipeline(backend Backend, horizonDays int, logger *slog.Logger) *Pipeline {
	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		backend:     backend,
		horizonDays: horizonDays,
		logger:      logger.With(slog.String("component", "forecast_pipeline")),
		tracer:      otel.Tracer(tracerName),
	}
}

// HorizonDays returns the number of future days each run produces
func (p *Pipeline) HorizonDays() int {
	return p.horizonDays
}

// BackendName reports which model backs the pipeline
func (p *Pipeline) BackendName() string {
	return p.backend.Name()
}

// MinObservations returns the fewest distinct dates a run accepts
func (p *Pipeline) MinObservations() int {
	return p.backend.MinObservations()
}

// Run forecasts series, which must be ascending with distinct dates. The
// result covers every historical date plus HorizonDays days after the last
// one, in the original quantity scale.
func (p *Pipeline) Run(ctx context.Context, series domain.DailySeries) ([]domain.ForecastPoint, domain.FitDiagnostics, error) {
	need := p.backend.MinObservations()
	if len(series) < need {
		return nil, domain.FitDiagnostics{}, &InsufficientHistoryError{Have: len(series), Need: need}
	}

	dates := series.Dates()
	values := make([]float64, len(series))
	for i, q := range series.Quantities() {
		values[i] = math.Log(math.Max(q, minFittedQuantity))
	}

	fitCtx, fitSpan := p.tracer.Start(ctx, "forecast.fit", trace.WithAttributes(
		attribute.String("forecast.backend", p.backend.Name()),
		attribute.Int("forecast.observations", len(dates)),
	))
	model, err := p.backend.Fit(fitCtx, dates, values)
	fitSpan.End()
	if err != nil {
		return nil, domain.FitDiagnostics{}, fmt.Errorf("%w: %w", ErrFitFailed, err)
	}

	horizon := Horizon(dates, p.horizonDays)

	predictCtx, predictSpan := p.tracer.Start(ctx, "forecast.predict", trace.WithAttributes(
		attribute.Int("forecast.points", len(horizon)),
	))
	preds, err := model.Predict(predictCtx, horizon)
	predictSpan.End()
	if err != nil {
		return nil, domain.FitDiagnostics{}, fmt.Errorf("%w: %w", ErrFitFailed, err)
	}

	points := make([]domain.ForecastPoint, len(preds))
	for i, pr := range preds {
		pt := domain.ForecastPoint{
			Date:      pr.Date,
			Yhat:      math.Exp(pr.Yhat),
			YhatLower: math.Exp(pr.Lower),
			YhatUpper: math.Exp(pr.Upper),
		}
		if !positiveFinite(pt.Yhat) || !positiveFinite(pt.YhatLower) || !positiveFinite(pt.YhatUpper) {
			return nil, domain.FitDiagnostics{}, fmt.Errorf("%w: non-finite prediction on %s",
				ErrFitFailed, pr.Date.Format(domain.DateLayout))
		}
		points[i] = pt
	}

	diag := model.Diagnostics()
	p.logger.DebugContext(ctx, "forecast computed",
		slog.String("backend", diag.Backend),
		slog.Int("observations", diag.Observations),
		slog.Int("points", len(points)),
		slog.Float64("residual_std_dev", diag.ResidualStdDev))

	return points, diag, nil
}

// Horizon returns the historical dates followed by days calendar days after
// the last one. Gaps in the history are not filled.
func Horizon(dates []time.Time, days int) []time.Time {
	out := make([]time.Time, 0, len(dates)+days)
	out = append(out, dates...)
	if len(dates) == 0 {
		return out
	}
	last := dates[len(dates)-1]
	for i := 1; i <= days; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
