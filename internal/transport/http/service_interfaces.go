package http

import (
	"context"
	"io"

	"github.com/marwannelsayed/spare-demand-forecast/internal/services"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// DatasetServiceInterface defines the dataset operations the handlers use
type DatasetServiceInterface interface {
	Upload(ctx context.Context, name string, r io.Reader) (domain.DatasetInfo, error)
	Get(ctx context.Context, id string) (domain.DatasetInfo, error)
	List(ctx context.Context) []domain.DatasetInfo
	Delete(ctx context.Context, id string) error
	Records(ctx context.Context, id string, limit int) (services.RecordsPage, error)
	SKUs(ctx context.Context, id string) ([]string, error)
	History(ctx context.Context, id, sku string) (services.HistoryResult, error)
}

// ForecastServiceInterface defines the forecast operations the handlers use
type ForecastServiceInterface interface {
	ForecastDataset(ctx context.Context, datasetID, sku string) (*domain.ForecastResult, error)
	TailRows() int
}
