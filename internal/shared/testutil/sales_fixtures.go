package testutil

import (
	"fmt"
	"strings"
	"time"
)

// FixtureStart is the first date used by generated sales fixtures
var FixtureStart = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// SalesCSV builds upload bodies for tests
type SalesCSV struct {
	b strings.Builder
}

// NewSalesCSV starts a CSV with the given header columns
func NewSalesCSV(header ...string) *SalesCSV {
	c := &SalesCSV{}
	c.b.WriteString(strings.Join(header, ","))
	c.b.WriteByte('\n')
	return c
}

// Row appends a raw row
func (c *SalesCSV) Row(fields ...string) *SalesCSV {
	c.b.WriteString(strings.Join(fields, ","))
	c.b.WriteByte('\n')
	return c
}

// Daily appends one row per day for sku starting at start; qty returns the
// quantity for day i.
func (c *SalesCSV) Daily(sku string, start time.Time, days int, qty func(i int) float64) *SalesCSV {
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		c.Row(d.Format("2006-01-02"), sku, fmt.Sprintf("%g", qty(i)))
	}
	return c
}

// String returns the accumulated CSV
func (c *SalesCSV) String() string {
	return c.b.String()
}

// Constant returns a quantity function that always yields q
func Constant(q float64) func(int) float64 {
	return func(int) float64 { return q }
}

// Weekly returns a quantity function with a seven-day pattern on top of base
func Weekly(base float64, pattern [7]float64) func(int) float64 {
	return func(i int) float64 { return base + pattern[i%7] }
}

// FlatSeriesCSV is a standard single-SKU upload with constant demand
func FlatSeriesCSV(sku string, days int, qty float64) string {
	return NewSalesCSV("date", "sku", "quantity").
		Daily(sku, FixtureStart, days, Constant(qty)).
		String()
}
