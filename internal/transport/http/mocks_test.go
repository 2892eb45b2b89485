package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	apierrors "github.com/marwannelsayed/spare-demand-forecast/internal/errors"
	"github.com/marwannelsayed/spare-demand-forecast/internal/services"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

const testDatasetID = "4a4c1e0e-3e1f-4f63-9d4e-2a4f0d1b9c11"

// MockDatasetService is a mock implementation of DatasetServiceInterface
type MockDatasetService struct {
	mock.Mock
}

// Upload reads the whole part so tests can match on its content
func (m *MockDatasetService) Upload(ctx context.Context, name string, r io.Reader) (domain.DatasetInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.DatasetInfo{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	args := m.Called(name, string(data))
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) Get(ctx context.Context, id string) (domain.DatasetInfo, error) {
	args := m.Called(id)
	return args.Get(0).(domain.DatasetInfo), args.Error(1)
}

func (m *MockDatasetService) List(ctx context.Context) []domain.DatasetInfo {
	args := m.Called()
	return args.Get(0).([]domain.DatasetInfo)
}

func (m *MockDatasetService) Delete(ctx context.Context, id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockDatasetService) Records(ctx context.Context, id string, limit int) (services.RecordsPage, error) {
	args := m.Called(id, limit)
	return args.Get(0).(services.RecordsPage), args.Error(1)
}

func (m *MockDatasetService) SKUs(ctx context.Context, id string) ([]string, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDatasetService) History(ctx context.Context, id, sku string) (services.HistoryResult, error) {
	args := m.Called(id, sku)
	return args.Get(0).(services.HistoryResult), args.Error(1)
}

// MockForecastService is a mock implementation of ForecastServiceInterface
type MockForecastService struct {
	mock.Mock
	tailRows int
}

func (m *MockForecastService) ForecastDataset(ctx context.Context, datasetID, sku string) (*domain.ForecastResult, error) {
	args := m.Called(datasetID, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ForecastResult), args.Error(1)
}

func (m *MockForecastService) TailRows() int {
	return m.tailRows
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestRouter mounts the dataset and forecast handlers the way the server does
func newTestRouter(datasets *MockDatasetService, forecasts *MockForecastService, maxBytes int64) http.Handler {
	logger := testLogger()
	errorHandler := apierrors.NewErrorHandler(logger, false)

	cfg := config.Default().Upload
	if maxBytes > 0 {
		cfg.MaxBytes = maxBytes
	}

	dh := NewDatasetHandler(datasets, cfg, logger, errorHandler)
	fh := NewForecastHandler(forecasts, logger, errorHandler)

	r := chi.NewRouter()
	r.Mount("/api/datasets", dh.Routes(fh))
	return r
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

// sampleResult is a five-day forecast over three days of history
func sampleResult() *domain.ForecastResult {
	history := domain.DailySeries{
		{Date: day(1), Quantity: 4},
		{Date: day(2), Quantity: 6},
		{Date: day(3), Quantity: 5},
	}
	forecast := make([]domain.ForecastPoint, 5)
	for i := range forecast {
		forecast[i] = domain.ForecastPoint{
			Date:      day(i + 1),
			Yhat:      5 + float64(i)/2,
			YhatLower: 4 + float64(i)/2,
			YhatUpper: 6 + float64(i)/2,
		}
	}
	return &domain.ForecastResult{
		DatasetID: testDatasetID,
		SKU:       "A1",
		History:   history,
		Forecast:  forecast,
		Window: domain.DisplayWindow{
			LastObserved: day(3),
			Start:        day(1),
			End:          day(5),
			Forecast:     forecast,
			Actuals:      []domain.DailyPoint(history),
		},
		Tail: forecast[3:],
	}
}
