package sales

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for upload parsing and the dataset store
var (
	ErrEmptyFile       = errors.New("file contains no data rows")
	ErrMissingColumns  = errors.New("missing required columns")
	ErrInvalidDate     = errors.New("unrecognized date")
	ErrInvalidQuantity = errors.New("quantity is not a number")
	ErrEmptySKU        = errors.New("sku is empty")
	ErrDatasetNotFound = errors.New("dataset not found")
)

// MissingColumnsError lists the required columns absent from the header
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingColumns, strings.Join(e.Missing, ", "))
}

func (e *MissingColumnsError) Unwrap() error {
	return ErrMissingColumns
}

// RowError reports a value that could not be parsed. Row is the 1-based line
// in the file, the header being line 1.
type RowError struct {
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %v (%q)", e.Row, e.Column, e.Err, e.Value)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
