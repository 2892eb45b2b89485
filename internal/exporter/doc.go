// Package exporter writes forecasts as downloadable files.
//
// CSVWriter handles file output for the command line tool, with optional
// UTF-8 BOM for Excel. WriteForecastCSV streams the ds,yhat,yhat_lower,yhat_upper
// table to any io.Writer, which is what the HTTP download uses.
// WriteForecastXLSX produces a workbook with a Forecast sheet and a History sheet.
//
// Example usage:
//
//	rows := exporter.SelectRows(result.Forecast, exporter.ScopeTail, 30)
//	if err := exporter.WriteForecastCSV(w, rows); err != nil {
//	    return err
//	}
package exporter
