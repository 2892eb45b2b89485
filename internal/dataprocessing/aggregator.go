package dataprocessing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// Aggregate returns the daily demand series of one SKU. An unknown SKU
// yields an empty series.
func Aggregate(set *sales.RecordSet, sku string) domain.DailySeries {
	if set == nil {
		return domain.DailySeries{}
	}
	return AggregateRecords(set.Records(), sku)
}

// AggregateRecords groups the records of sku by calendar date and sums the
// quantities of each date. Sums are exact for decimal CSV input.
func AggregateRecords(records []domain.SalesRecord, sku string) domain.DailySeries {
	sums := make(map[time.Time]decimal.Decimal)
	for _, rec := range records {
		if rec.SKU != sku {
			continue
		}
		date := domain.CalendarDate(rec.Date)
		sums[date] = sums[date].Add(decimal.NewFromFloat(rec.Quantity))
	}

	dates := make([]time.Time, 0, len(sums))
	for d := range sums {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	series := make(domain.DailySeries, len(dates))
	for i, d := range dates {
		series[i] = domain.DailyPoint{Date: d, Quantity: sums[d].InexactFloat64()}
	}
	return series
}
