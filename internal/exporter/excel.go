package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// Workbook sheet names
const (
	SheetForecast = "Forecast"
	SheetHistory  = "History"
)

var historyHeaders = []string{"date", "quantity"}

// WriteForecastXLSX writes a workbook with the forecast rows and the daily
// history they were fitted on
func WriteForecastXLSX(w io.Writer, points []domain.ForecastPoint, history domain.DailySeries) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetForecast); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetHistory); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := setRow(f, SheetForecast, 1, toRow(ForecastHeaders)); err != nil {
		return err
	}
	for i, p := range points {
		row := []interface{}{formatDate(p.Date), p.Yhat, p.YhatLower, p.YhatUpper}
		if err := setRow(f, SheetForecast, i+2, row); err != nil {
			return err
		}
	}

	if err := setRow(f, SheetHistory, 1, toRow(historyHeaders)); err != nil {
		return err
	}
	for i, p := range history {
		if err := setRow(f, SheetHistory, i+2, []interface{}{formatDate(p.Date), p.Quantity}); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetForecast, "A", "D", 14); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	if err := f.SetColWidth(SheetHistory, "A", "B", 14); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(headers []string) []interface{} {
	row := make([]interface{}, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	return row
}
