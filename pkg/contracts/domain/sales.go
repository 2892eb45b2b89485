package domain

import (
	"time"
)

// DateLayout is the calendar-date layout used on every wire format (JSON, CSV, XLSX)
const DateLayout = "2006-01-02"

// CalendarDate returns the calendar date t names, as UTC midnight
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SalesRecord represents one uploaded sales row
type SalesRecord struct {
	Date     time.Time `json:"date" validate:"required"`
	SKU      string    `json:"sku" validate:"required"`
	Quantity float64   `json:"quantity"`
}

// DailyPoint is the summed quantity of one SKU on one calendar date
type DailyPoint struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// DailySeries is ordered by date ascending, one entry per distinct date.
// Dates absent from the upload are absent here as well.
type DailySeries []DailyPoint

// Dates returns the dates of the series in order
func (s DailySeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, p := range s {
		dates[i] = p.Date
	}
	return dates
}

// Quantities returns the quantities of the series in order
func (s DailySeries) Quantities() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Quantity
	}
	return values
}

// Last returns the last point of the series
func (s DailySeries) Last() (DailyPoint, bool) {
	if len(s) == 0 {
		return DailyPoint{}, false
	}
	return s[len(s)-1], true
}

// SeriesSummary describes a DailySeries for display
type SeriesSummary struct {
	Days     int       `json:"days"`
	SpanDays int       `json:"span_days"`
	Total    float64   `json:"total"`
	Mean     float64   `json:"mean"`
	Min      float64   `json:"min"`
	Max      float64   `json:"max"`
	First    time.Time `json:"first,omitempty"`
	Last     time.Time `json:"last,omitempty"`
}

// DatasetInfo summarizes an uploaded file
type DatasetInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Rows       int       `json:"rows"`
	SKUs       []string  `json:"skus"`
	Columns    []string  `json:"columns"`
	FirstDate  time.Time `json:"first_date"`
	LastDate   time.Time `json:"last_date"`
	UploadedAt time.Time `json:"uploaded_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}
