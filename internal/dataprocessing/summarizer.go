package dataprocessing

import (
	"github.com/shopspring/decimal"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// Summarize computes the header figures shown above the history chart
func Summarize(series domain.DailySeries) domain.SeriesSummary {
	if len(series) == 0 {
		return domain.SeriesSummary{}
	}

	first, last := series[0], series[len(series)-1]
	summary := domain.SeriesSummary{
		Days:     len(series),
		SpanDays: int(last.Date.Sub(first.Date).Hours()/24) + 1,
		Min:      first.Quantity,
		Max:      first.Quantity,
		First:    first.Date,
		Last:     last.Date,
	}

	total := decimal.Zero
	for _, p := range series {
		total = total.Add(decimal.NewFromFloat(p.Quantity))
		if p.Quantity < summary.Min {
			summary.Min = p.Quantity
		}
		if p.Quantity > summary.Max {
			summary.Max = p.Quantity
		}
	}

	summary.Total = total.InexactFloat64()
	summary.Mean = total.Div(decimal.NewFromInt(int64(len(series)))).Round(4).InexactFloat64()
	return summary
}
