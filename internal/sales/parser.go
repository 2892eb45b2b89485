package sales

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// dateLayouts are tried in order; the first match wins
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"02-Jan-2006",
}

var requiredColumns = []string{config.ColumnDate, config.ColumnSKU, config.ColumnQuantity}

// ParseCSV reads a sales history upload. The header row must name the date,
// sku and quantity columns; any other columns are kept for the raw preview.
func ParseCSV(r io.Reader) (*RecordSet, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = strings.TrimSpace(name)
	}

	index, err := locateColumns(columns)
	if err != nil {
		return nil, err
	}

	set := &RecordSet{columns: columns}

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := reader.FieldPos(0)
		rec, err := parseRow(row, index, line)
		if err != nil {
			return nil, err
		}

		set.raw = append(set.raw, row)
		set.add(rec)
	}

	if set.Len() == 0 {
		return nil, ErrEmptyFile
	}

	return set, nil
}

// locateColumns maps each required column to its position in the header
func locateColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(requiredColumns))
	for i, name := range header {
		key := strings.ToLower(name)
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}

	return index, nil
}

func parseRow(row []string, index map[string]int, line int) (domain.SalesRecord, error) {
	field := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	rawDate := field(config.ColumnDate)
	date, err := ParseDate(rawDate)
	if err != nil {
		return domain.SalesRecord{}, &RowError{Row: line, Column: config.ColumnDate, Value: rawDate, Err: err}
	}

	sku := field(config.ColumnSKU)
	if sku == "" {
		return domain.SalesRecord{}, &RowError{Row: line, Column: config.ColumnSKU, Value: sku, Err: ErrEmptySKU}
	}

	rawQty := field(config.ColumnQuantity)
	qty, err := strconv.ParseFloat(rawQty, 64)
	if err != nil || math.IsNaN(qty) || math.IsInf(qty, 0) {
		return domain.SalesRecord{}, &RowError{Row: line, Column: config.ColumnQuantity, Value: rawQty, Err: ErrInvalidQuantity}
	}

	return domain.SalesRecord{Date: date, SKU: sku, Quantity: qty}, nil
}

// ParseDate parses s with the accepted layouts and truncates it to the
// calendar date it names, returned as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return domain.CalendarDate(t), nil
		}
	}
	return time.Time{}, ErrInvalidDate
}
