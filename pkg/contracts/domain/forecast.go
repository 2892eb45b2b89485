package domain

import (
	"time"
)

// ForecastPoint is one day of model output in the original quantity scale
type ForecastPoint struct {
	Date      time.Time `json:"ds"`
	Yhat      float64   `json:"yhat"`
	YhatLower float64   `json:"yhat_lower"`
	YhatUpper float64   `json:"yhat_upper"`
}

// DisplayWindow is the slice of forecast and actuals shown around the last observed date.
// Forecast is bounded on both sides, Actuals only from below.
type DisplayWindow struct {
	LastObserved time.Time       `json:"last_observed"`
	Start        time.Time       `json:"start"`
	End          time.Time       `json:"end"`
	Forecast     []ForecastPoint `json:"forecast"`
	Actuals      []DailyPoint    `json:"actuals"`
}

// FitDiagnostics describes the fitted model
type FitDiagnostics struct {
	Backend           string  `json:"backend"`
	Observations      int     `json:"observations"`
	Parameters        int     `json:"parameters"`
	WeeklySeasonality bool    `json:"weekly_seasonality"`
	YearlySeasonality bool    `json:"yearly_seasonality"`
	ResidualStdDev    float64 `json:"residual_std_dev"`
	IntervalWidth     float64 `json:"interval_width"`
}

// ErrorMetrics contains in-sample accuracy of the forecast against actuals
type ErrorMetrics struct {
	Points int     `json:"points"`
	MAE    float64 `json:"mae"`
	RMSE   float64 `json:"rmse"`
	MAPE   float64 `json:"mape"`
}

// ForecastResult is everything the dashboard renders for one SKU
type ForecastResult struct {
	DatasetID   string          `json:"dataset_id,omitempty"`
	SKU         string          `json:"sku"`
	History     DailySeries     `json:"history"`
	Summary     SeriesSummary   `json:"summary"`
	Forecast    []ForecastPoint `json:"forecast"`
	Window      DisplayWindow   `json:"window"`
	Tail        []ForecastPoint `json:"tail"`
	Diagnostics FitDiagnostics  `json:"diagnostics"`
	Accuracy    ErrorMetrics    `json:"accuracy"`
	GeneratedAt time.Time       `json:"generated_at"`
}
