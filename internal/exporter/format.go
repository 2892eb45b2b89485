package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// Format is a download file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ContentType returns the MIME type served for the format
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Filename returns the attachment name for a forecast download
func (f Format) Filename() string {
	return "forecast." + string(f)
}

// ParseFormat accepts csv or xlsx, case-insensitively. Empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown format %q (want csv or xlsx)", s)
}

// Scope selects which forecast rows are exported
type Scope string

const (
	// ScopeAll exports every historical and future date
	ScopeAll Scope = "all"
	// ScopeTail exports only the last rows, as shown in the dashboard table
	ScopeTail Scope = "tail"
)

// ParseScope accepts all or tail. Empty means all.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeTail:
		return ScopeTail, nil
	}
	return "", fmt.Errorf("unknown scope %q (want all or tail)", s)
}

// SelectRows applies scope to points. tailRows applies to ScopeTail only.
func SelectRows(points []domain.ForecastPoint, scope Scope, tailRows int) []domain.ForecastPoint {
	if scope != ScopeTail || tailRows >= len(points) {
		return points
	}
	if tailRows <= 0 {
		return []domain.ForecastPoint{}
	}
	return points[len(points)-tailRows:]
}

// formatFloat formats a float64 with the fewest digits that round-trip
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatDate(t time.Time) string {
	return t.Format(domain.DateLayout)
}
