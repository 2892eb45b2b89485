package forecast

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func dailyDates(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestAdditiveSeasonalityToggles(t *testing.T) {
	tests := []struct {
		name       string
		days       int
		wantWeekly bool
		wantYearly bool
		wantParams int
	}{
		{name: "under two weeks", days: 14, wantParams: 2},
		{name: "two weeks", days: 15, wantWeekly: true, wantParams: 8},
		{name: "just under two years", days: 730, wantWeekly: true, wantParams: 8},
		{name: "two years", days: 731, wantWeekly: true, wantYearly: true, wantParams: 28},
	}

	b := NewAdditiveBackend(DefaultAdditiveConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := dailyDates(tt.days)
			values := make([]float64, len(dates))
			for i := range values {
				values[i] = 2 + 0.1*math.Sin(float64(i))
			}

			m, err := b.Fit(context.Background(), dates, values)
			require.NoError(t, err)

			d := m.Diagnostics()
			assert.Equal(t, BackendAdditive, d.Backend)
			assert.Equal(t, tt.days, d.Observations)
			assert.Equal(t, tt.wantWeekly, d.WeeklySeasonality)
			assert.Equal(t, tt.wantYearly, d.YearlySeasonality)
			assert.Equal(t, tt.wantParams, d.Parameters)
			assert.InDelta(t, 0.80, d.IntervalWidth, 1e-12)
		})
	}
}

func TestAdditiveExactLine(t *testing.T) {
	// Short span keeps the model to intercept and trend
	dates := dailyDates(10)
	values := make([]float64, len(dates))
	for i := range values {
		values[i] = 1 + 0.5*float64(i)
	}

	m, err := NewAdditiveBackend(AdditiveConfig{}).Fit(context.Background(), dates, values)
	require.NoError(t, err)

	future := []time.Time{start.AddDate(0, 0, 12)}
	preds, err := m.Predict(context.Background(), future)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.InDelta(t, 7, preds[0].Yhat, 1e-9)
	assert.InDelta(t, preds[0].Yhat, preds[0].Lower, 1e-6)
	assert.InDelta(t, preds[0].Yhat, preds[0].Upper, 1e-6)
	assert.Equal(t, future[0], preds[0].Date)
}

func TestAdditiveFitErrors(t *testing.T) {
	b := NewAdditiveBackend(DefaultAdditiveConfig())

	t.Run("length mismatch", func(t *testing.T) {
		_, err := b.Fit(context.Background(), dailyDates(3), []float64{1, 2})
		assert.Error(t, err)
	})

	t.Run("too few observations", func(t *testing.T) {
		_, err := b.Fit(context.Background(), dailyDates(1), []float64{1})
		assert.ErrorIs(t, err, ErrInsufficientHistory)
	})

	t.Run("non-finite value", func(t *testing.T) {
		_, err := b.Fit(context.Background(), dailyDates(3), []float64{1, math.NaN(), 2})
		assert.Error(t, err)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := b.Fit(ctx, dailyDates(3), []float64{1, 2, 3})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("duplicate dates are singular", func(t *testing.T) {
		dates := []time.Time{start, start}
		_, err := b.Fit(context.Background(), dates, []float64{1, 2})
		assert.ErrorIs(t, err, errSingular)
	})
}

func TestAdditivePredictCanceled(t *testing.T) {
	m, err := NewAdditiveBackend(DefaultAdditiveConfig()).Fit(context.Background(), dailyDates(5), []float64{1, 2, 1, 2, 1})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Predict(ctx, dailyDates(5))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdditiveIntervalWidthConfig(t *testing.T) {
	dates := dailyDates(10)
	values := []float64{1, 3, 2, 4, 2, 5, 3, 4, 2, 3}

	narrow, err := NewAdditiveBackend(AdditiveConfig{IntervalWidth: 0.5}).Fit(context.Background(), dates, values)
	require.NoError(t, err)
	wide, err := NewAdditiveBackend(AdditiveConfig{IntervalWidth: 0.95}).Fit(context.Background(), dates, values)
	require.NoError(t, err)

	pn, err := narrow.Predict(context.Background(), dates[:1])
	require.NoError(t, err)
	pw, err := wide.Predict(context.Background(), dates[:1])
	require.NoError(t, err)

	assert.InDelta(t, pn[0].Yhat, pw[0].Yhat, 1e-12)
	assert.Less(t, pn[0].Upper-pn[0].Lower, pw[0].Upper-pw[0].Lower)
}

func TestNormalQuantile(t *testing.T) {
	assert.InDelta(t, 1.2815516, normalQuantile(0.80), 1e-6)
	assert.InDelta(t, 1.9599640, normalQuantile(0.95), 1e-6)
	assert.InDelta(t, 0.6744898, normalQuantile(0.50), 1e-6)
}

func TestRidgeFit(t *testing.T) {
	// y = 1 + 2x on x = 0, 1, 2
	x := mat.NewDense(3, 2, []float64{1, 0, 1, 1, 1, 2})
	y := mat.NewVecDense(3, []float64{1, 3, 5})

	beta, chol, err := ridgeFit(x, y, 2, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 1, beta.AtVec(0), 1e-9)
	assert.InDelta(t, 2, beta.AtVec(1), 1e-9)

	// (XᵀX)⁻¹ = 1/6 [[5, -3], [-3, 3]]
	assert.InDelta(t, 5.0/6, leverage(chol, mat.NewVecDense(2, []float64{1, 0})), 1e-9)
	assert.InDelta(t, 0.5, leverage(chol, mat.NewVecDense(2, []float64{0, 1})), 1e-9)

	shrunk, _, err := ridgeFit(x, y, 1, 10)
	require.NoError(t, err)
	assert.Less(t, shrunk.AtVec(1), 2.0)
	assert.Greater(t, shrunk.AtVec(1), 0.0)

	_, _, err = ridgeFit(mat.NewDense(2, 2, []float64{1, 0, 1, 0}), mat.NewVecDense(2, []float64{1, 2}), 2, 0.1)
	assert.ErrorIs(t, err, errSingular)
}
