package http

import (
	"encoding/csv"
	"errors"

	apierrors "github.com/marwannelsayed/spare-demand-forecast/internal/errors"
	"github.com/marwannelsayed/spare-demand-forecast/internal/forecast"
	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
	"github.com/marwannelsayed/spare-demand-forecast/internal/services"
)

// mapServiceError translates domain and service errors into API errors.
// Errors it does not recognise are returned unchanged for the ErrorHandler,
// which answers context and size errors itself and everything else with 500.
func mapServiceError(err error, datasetID, sku string) error {
	var (
		missing  *sales.MissingColumnsError
		rowErr   *sales.RowError
		parseErr *csv.ParseError
		short    *forecast.InsufficientHistoryError
	)

	switch {
	case errors.As(err, &missing):
		return apierrors.MissingColumns(missing.Missing)
	case errors.As(err, &rowErr):
		return apierrors.InvalidRow(rowErr.Row, rowErr.Column, rowErr.Value, rowErr.Err.Error())
	case errors.As(err, &parseErr):
		return apierrors.InvalidRow(parseErr.Line, "", "", parseErr.Err.Error())
	case errors.Is(err, sales.ErrEmptyFile):
		return apierrors.ErrEmptyFile
	case errors.Is(err, services.ErrDatasetNotFound):
		return apierrors.DatasetNotFound(datasetID)
	case errors.Is(err, services.ErrSKUNotFound):
		return apierrors.SKUNotFound(sku)
	case errors.As(err, &short):
		return apierrors.InsufficientHistory(short.Have, short.Need)
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return apierrors.InsufficientHistory(0, 0)
	case errors.Is(err, forecast.ErrFitFailed):
		return apierrors.ForecastFailed(err)
	}
	return err
}
