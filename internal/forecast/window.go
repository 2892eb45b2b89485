package forecast

import (
	"time"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// DefaultWindowDays is the half-width of the display window
const DefaultWindowDays = 30

// SelectWindow keeps forecast points dated within days of last on either
// side, and actual points dated no earlier than days before last. Actuals
// have no upper bound.
func SelectWindow(forecast []domain.ForecastPoint, actuals domain.DailySeries, last time.Time, days int) domain.DisplayWindow {
	start := last.AddDate(0, 0, -days)
	end := last.AddDate(0, 0, days)

	w := domain.DisplayWindow{
		LastObserved: last,
		Start:        start,
		End:          end,
		Forecast:     []domain.ForecastPoint{},
		Actuals:      []domain.DailyPoint{},
	}
	for _, p := range forecast {
		if !p.Date.Before(start) && !p.Date.After(end) {
			w.Forecast = append(w.Forecast, p)
		}
	}
	for _, a := range actuals {
		if !a.Date.Before(start) {
			w.Actuals = append(w.Actuals, a)
		}
	}
	return w
}

// Tail returns the last n points
func Tail(points []domain.ForecastPoint, n int) []domain.ForecastPoint {
	if n <= 0 {
		return []domain.ForecastPoint{}
	}
	if n > len(points) {
		n = len(points)
	}
	out := make([]domain.ForecastPoint, n)
	copy(out, points[len(points)-n:])
	return out
}
