package forecast

import (
	"context"
	"time"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// Prediction is one model output in the fitted (log) scale
type Prediction struct {
	Date  time.Time
	Yhat  float64
	Lower float64
	Upper float64
}

// Backend fits a Model to an ascending series of distinct dates
type Backend interface {
	Fit(ctx context.Context, dates []time.Time, values []float64) (Model, error)
	MinObservations() int
	Name() string
}

// Model predicts values and uncertainty intervals for arbitrary dates
type Model interface {
	Predict(ctx context.Context, dates []time.Time) ([]Prediction, error)
	Diagnostics() domain.FitDiagnostics
}
