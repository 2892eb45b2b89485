package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/internal/dataprocessing"
	"github.com/marwannelsayed/spare-demand-forecast/internal/infrastructure"
	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

// RecordsPage is a raw preview of an uploaded file
type RecordsPage struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Total   int        `json:"total"`
}

// HistoryResult is the aggregated daily history of one SKU
type HistoryResult struct {
	SKU     string               `json:"sku"`
	Series  domain.DailySeries   `json:"series"`
	Summary domain.SeriesSummary `json:"summary"`
}

// DatasetService accepts uploads and serves their contents
type DatasetService struct {
	store   *sales.Store
	cfg     config.UploadConfig
	metrics *infrastructure.ForecastMetrics
	logger  *slog.Logger
}

// NewDatasetService creates a dataset service. metrics may be nil.
func NewDatasetService(store *sales.Store, cfg config.UploadConfig, metrics *infrastructure.ForecastMetrics, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "dataset_service"),
	}
}

// Upload parses a CSV upload and stores it
func (s *DatasetService) Upload(ctx context.Context, name string, r io.Reader) (domain.DatasetInfo, error) {
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".csv" {
		return domain.DatasetInfo{}, fmt.Errorf("%w: %q", ErrInvalidFileType, name)
	}

	set, err := sales.ParseCSV(r)
	if err != nil {
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("file", name),
			slog.String("error", err.Error()))
		return domain.DatasetInfo{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	ds, err := s.store.Put(filepath.Base(name), set)
	if err != nil {
		logServiceError(ctx, s.logger, "upload", "failed to store dataset", err)
		return domain.DatasetInfo{}, err
	}

	s.metrics.RecordUpload(ctx, set.Len())
	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("dataset_id", ds.ID),
		slog.String("file", ds.Name),
		slog.Int("rows", set.Len()),
		slog.Int("skus", len(set.SKUs())))

	return ds.Info(), nil
}

// Dataset returns the stored dataset
func (s *DatasetService) Dataset(_ context.Context, id string) (*sales.Dataset, error) {
	return s.store.Get(id)
}

// Get returns the summary of a dataset
func (s *DatasetService) Get(ctx context.Context, id string) (domain.DatasetInfo, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return domain.DatasetInfo{}, err
	}
	return ds.Info(), nil
}

// List returns every live dataset, oldest first
func (s *DatasetService) List(_ context.Context) []domain.DatasetInfo {
	list := s.store.List()
	out := make([]domain.DatasetInfo, len(list))
	for i, ds := range list {
		out[i] = ds.Info()
	}
	return out
}

// Delete removes a dataset
func (s *DatasetService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "dataset deleted", slog.String("dataset_id", id))
	return nil
}

// Records returns up to limit raw rows. A non-positive limit uses the
// configured preview size.
func (s *DatasetService) Records(ctx context.Context, id string, limit int) (RecordsPage, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return RecordsPage{}, err
	}
	if limit <= 0 {
		limit = s.cfg.PreviewRows
	}
	return RecordsPage{
		Columns: ds.Set.Columns(),
		Rows:    ds.Set.Preview(limit),
		Total:   ds.Set.Len(),
	}, nil
}

// SKUs returns the distinct SKUs in upload order
func (s *DatasetService) SKUs(ctx context.Context, id string) ([]string, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return nil, err
	}
	return ds.Set.SKUs(), nil
}

// History aggregates the daily demand of one SKU
func (s *DatasetService) History(ctx context.Context, id, sku string) (HistoryResult, error) {
	ds, err := s.Dataset(ctx, id)
	if err != nil {
		return HistoryResult{}, err
	}
	if !ds.Set.HasSKU(sku) {
		return HistoryResult{}, fmt.Errorf("%w: %q", ErrSKUNotFound, sku)
	}

	series := dataprocessing.Aggregate(ds.Set, sku)
	return HistoryResult{
		SKU:     sku,
		Series:  series,
		Summary: dataprocessing.Summarize(series),
	}, nil
}

// CleanupExpired drops expired datasets and returns how many were removed
func (s *DatasetService) CleanupExpired(ctx context.Context) int {
	n := s.store.CleanupExpired()
	if n > 0 {
		s.logger.DebugContext(ctx, "expired datasets removed", slog.Int("count", n))
	}
	return n
}

// Stats returns store occupancy
func (s *DatasetService) Stats() map[string]int {
	return s.store.GetStats()
}
