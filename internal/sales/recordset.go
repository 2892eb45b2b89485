package sales

import (
	"strconv"
	"time"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// RecordSet is an immutable, parsed upload. Slices returned by its methods
// must not be modified by callers.
type RecordSet struct {
	records   []domain.SalesRecord
	columns   []string
	raw       [][]string
	skus      []string
	skuSeen   map[string]struct{}
	firstDate time.Time
	lastDate  time.Time
}

// NewRecordSet builds a RecordSet from already parsed records
func NewRecordSet(records []domain.SalesRecord) *RecordSet {
	set := &RecordSet{
		columns: []string{config.ColumnDate, config.ColumnSKU, config.ColumnQuantity},
	}
	for _, rec := range records {
		rec.Date = domain.CalendarDate(rec.Date)
		set.raw = append(set.raw, []string{
			rec.Date.Format(domain.DateLayout),
			rec.SKU,
			formatQuantity(rec.Quantity),
		})
		set.add(rec)
	}
	return set
}

func (s *RecordSet) add(rec domain.SalesRecord) {
	if s.skuSeen == nil {
		s.skuSeen = make(map[string]struct{})
	}
	if _, ok := s.skuSeen[rec.SKU]; !ok {
		s.skuSeen[rec.SKU] = struct{}{}
		s.skus = append(s.skus, rec.SKU)
	}
	if s.firstDate.IsZero() || rec.Date.Before(s.firstDate) {
		s.firstDate = rec.Date
	}
	if rec.Date.After(s.lastDate) {
		s.lastDate = rec.Date
	}
	s.records = append(s.records, rec)
}

// Len returns the number of records
func (s *RecordSet) Len() int {
	return len(s.records)
}

// Records returns all records in file order
func (s *RecordSet) Records() []domain.SalesRecord {
	return s.records
}

// Columns returns the header as uploaded
func (s *RecordSet) Columns() []string {
	return s.columns
}

// SKUs returns the distinct SKUs in order of first appearance
func (s *RecordSet) SKUs() []string {
	return s.skus
}

// HasSKU reports whether sku appears in the upload
func (s *RecordSet) HasSKU(sku string) bool {
	_, ok := s.skuSeen[sku]
	return ok
}

// FilterSKU returns the records of one SKU in file order
func (s *RecordSet) FilterSKU(sku string) []domain.SalesRecord {
	var out []domain.SalesRecord
	for _, rec := range s.records {
		if rec.SKU == sku {
			out = append(out, rec)
		}
	}
	return out
}

// FirstDate returns the earliest date in the upload
func (s *RecordSet) FirstDate() time.Time {
	return s.firstDate
}

// LastDate returns the latest date across the whole upload, regardless of SKU.
// The display window is centred on it.
func (s *RecordSet) LastDate() time.Time {
	return s.lastDate
}

// Preview returns up to limit raw rows. A non-positive limit returns all rows.
func (s *RecordSet) Preview(limit int) [][]string {
	if limit <= 0 || limit > len(s.raw) {
		limit = len(s.raw)
	}
	return s.raw[:limit]
}

func formatQuantity(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
