package forecast

import (
	"math"
	"time"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// Accuracy compares in-sample predictions with the actual daily quantities.
// MAPE skips days with zero demand and is expressed in percent.
func Accuracy(history domain.DailySeries, forecast []domain.ForecastPoint) domain.ErrorMetrics {
	predicted := make(map[time.Time]float64, len(forecast))
	for _, p := range forecast {
		predicted[p.Date] = p.Yhat
	}

	var m domain.ErrorMetrics
	var absSum, sqSum, pctSum float64
	pctN := 0
	for _, a := range history {
		yhat, ok := predicted[a.Date]
		if !ok {
			continue
		}
		diff := a.Quantity - yhat
		absSum += math.Abs(diff)
		sqSum += diff * diff
		if a.Quantity != 0 {
			pctSum += math.Abs(diff / a.Quantity)
			pctN++
		}
		m.Points++
	}

	if m.Points == 0 {
		return m
	}
	m.MAE = absSum / float64(m.Points)
	m.RMSE = math.Sqrt(sqSum / float64(m.Points))
	if pctN > 0 {
		m.MAPE = 100 * pctSum / float64(pctN)
	}
	return m
}
