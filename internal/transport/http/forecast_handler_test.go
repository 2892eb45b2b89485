package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/marwannelsayed/spare-demand-forecast/internal/exporter"
	"github.com/marwannelsayed/spare-demand-forecast/internal/forecast"
	"github.com/marwannelsayed/spare-demand-forecast/internal/services"
)

const skuPath = "/api/datasets/" + testDatasetID + "/skus/A1"

func TestForecastHandler_GetForecast(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
	}{
		{name: "success", expectedStatus: http.StatusOK},
		{
			name:           "insufficient history",
			err:            fmt.Errorf("forecast A1: %w", &forecast.InsufficientHistoryError{Have: 1, Need: 2}),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "INSUFFICIENT_HISTORY",
		},
		{
			name:           "fit failed",
			err:            fmt.Errorf("%w: normal equations are singular", forecast.ErrFitFailed),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "FORECAST_FAILED",
		},
		{
			name:           "unknown sku",
			err:            fmt.Errorf("%w: %q", services.ErrSKUNotFound, "A1"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   "SKU_NOT_FOUND",
		},
		{
			name:           "expired dataset",
			err:            services.ErrDatasetNotFound,
			expectedStatus: http.StatusNotFound,
			expectedCode:   "DATASET_NOT_FOUND",
		},
		{
			name:           "deadline",
			err:            fmt.Errorf("fit: %w", context.DeadlineExceeded),
			expectedStatus: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecasts := new(MockForecastService)
			if tt.err != nil {
				forecasts.On("ForecastDataset", testDatasetID, "A1").Return(nil, tt.err)
			} else {
				forecasts.On("ForecastDataset", testDatasetID, "A1").Return(sampleResult(), nil)
			}
			router := newTestRouter(new(MockDatasetService), forecasts, 0)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, skuPath+"/forecast", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
			got := decodeBody(t, rec)
			switch {
			case tt.expectedCode != "":
				assert.Equal(t, tt.expectedCode, got["error_code"])
			case tt.err == nil:
				assert.Equal(t, "A1", got["sku"])
				assert.Len(t, got["forecast"], 5)
				assert.Len(t, got["tail"], 2)
			}
			forecasts.AssertExpectations(t)
		})
	}
}

func TestForecastHandler_InsufficientHistoryDetails(t *testing.T) {
	forecasts := new(MockForecastService)
	forecasts.On("ForecastDataset", testDatasetID, "A1").
		Return(nil, &forecast.InsufficientHistoryError{Have: 1, Need: 2})
	router := newTestRouter(new(MockDatasetService), forecasts, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, skuPath+"/forecast", nil))

	got := decodeBody(t, rec)
	assert.Equal(t, "not enough data for this SKU", got["detail"])
	assert.Equal(t, map[string]interface{}{"have": float64(1), "need": float64(2)}, got["details"])
}

func TestForecastHandler_DownloadCSV(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantRows int
		wantLast string
	}{
		{"default scope is the whole forecast", "", 5, "2024-03-05"},
		{"tail scope", "?scope=tail", 2, "2024-03-05"},
		{"explicit all", "?scope=all", 5, "2024-03-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecasts := &MockForecastService{tailRows: 2}
			forecasts.On("ForecastDataset", testDatasetID, "A1").Return(sampleResult(), nil)
			router := newTestRouter(new(MockDatasetService), forecasts, 0)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, skuPath+"/forecast.csv"+tt.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="forecast.csv"`, rec.Header().Get("Content-Disposition"))

			records, err := csv.NewReader(rec.Body).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, tt.wantRows+1)
			assert.Equal(t, exporter.ForecastHeaders, records[0])
			assert.Equal(t, tt.wantLast, records[len(records)-1][0])
		})
	}
}

func TestForecastHandler_DownloadRejectsUnknownScope(t *testing.T) {
	forecasts := new(MockForecastService)
	router := newTestRouter(new(MockDatasetService), forecasts, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, skuPath+"/forecast.csv?scope=head", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	forecasts.AssertNotCalled(t, "ForecastDataset", testDatasetID, "A1")
}

func TestForecastHandler_DownloadXLSX(t *testing.T) {
	forecasts := &MockForecastService{tailRows: 2}
	forecasts.On("ForecastDataset", testDatasetID, "A1").Return(sampleResult(), nil)
	router := newTestRouter(new(MockDatasetService), forecasts, 0)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, skuPath+"/forecast.xlsx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exporter.FormatXLSX.ContentType(), rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "forecast.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exporter.SheetForecast)
	require.NoError(t, err)
	assert.Len(t, rows, 6)

	history, err := f.GetRows(exporter.SheetHistory)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestForecastHandler_GetForecastChart(t *testing.T) {
	t.Run("renders the window", func(t *testing.T) {
		forecasts := new(MockForecastService)
		forecasts.On("ForecastDataset", testDatasetID, "A1").Return(sampleResult(), nil)
		router := newTestRouter(new(MockDatasetService), forecasts, 0)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, skuPath+"/charts/forecast.png", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		img, err := png.Decode(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, 900, img.Bounds().Dx())
	})

	t.Run("forecast failure is a problem, not an image", func(t *testing.T) {
		forecasts := new(MockForecastService)
		forecasts.On("ForecastDataset", testDatasetID, "A1").Return(nil, errors.New("boom"))
		router := newTestRouter(new(MockDatasetService), forecasts, 0)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, skuPath+"/charts/forecast.png", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotEqual(t, "image/png", rec.Header().Get("Content-Type"))
	})
}
