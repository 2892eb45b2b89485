package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// ForecastHeaders is the header row of every forecast CSV
var ForecastHeaders = []string{"ds", "yhat", "yhat_lower", "yhat_upper"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ForecastRecords converts points to CSV records without the header
func ForecastRecords(points []domain.ForecastPoint) [][]string {
	records := make([][]string, len(points))
	for i, p := range points {
		records[i] = []string{
			formatDate(p.Date),
			formatFloat(p.Yhat),
			formatFloat(p.YhatLower),
			formatFloat(p.YhatUpper),
		}
	}
	return records
}

// WriteForecastCSV writes the header and one row per point to w
func WriteForecastCSV(w io.Writer, points []domain.ForecastPoint) error {
	sw, err := NewStreamWriter(w, ForecastHeaders)
	if err != nil {
		return err
	}
	for i, record := range ForecastRecords(points) {
		if err := sw.WriteRecord(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return sw.Flush()
}

// CSVWriter provides CSV file export
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer. Bare file names are placed in the
// exports directory of paths; with nil paths every name is used as given.
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file and returns the path written
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.ResolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if dir := filepath.Dir(fullPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	sw, err := NewStreamWriter(file, options.Headers)
	if err != nil {
		return "", err
	}
	for i, record := range options.Records {
		if err := sw.WriteRecord(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return "", err
	}
	return fullPath, file.Close()
}

// WriteForecast writes points to filePath with the forecast header
func (w *CSVWriter) WriteForecast(filePath string, points []domain.ForecastPoint) (string, error) {
	return w.WriteCSV(filePath, WriteOptions{
		Headers: ForecastHeaders,
		Records: ForecastRecords(points),
	})
}

// ResolvePath maps a bare file name into the exports directory
func (w *CSVWriter) ResolvePath(filePath string) string {
	if w.paths == nil || filepath.IsAbs(filePath) || filepath.Base(filePath) != filePath {
		return filePath
	}
	return w.paths.ExportPath(filePath)
}

// StreamWriter writes CSV records to an io.Writer
type StreamWriter struct {
	writer *csv.Writer
}

// NewStreamWriter creates a stream writer and writes headers, if any
func NewStreamWriter(w io.Writer, headers []string) (*StreamWriter, error) {
	writer := csv.NewWriter(w)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return &StreamWriter{writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Flush flushes buffered records and reports any write error
func (s *StreamWriter) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}
