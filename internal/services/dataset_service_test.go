package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
	"github.com/marwannelsayed/spare-demand-forecast/internal/shared/testutil"
)

func newDatasetService(t *testing.T) (*DatasetService, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.Default().Upload
	return NewDatasetService(sales.NewStore(cfg.DatasetTTL, cfg.MaxDatasets), cfg, nil, logger), handler
}

func TestDatasetServiceUpload(t *testing.T) {
	svc, handler := newDatasetService(t)
	body := testutil.NewSalesCSV("date", "sku", "quantity", "store").
		Row("2024-01-01", "A1", "3", "north").
		Row("2024-01-02", "B2", "4", "south").
		Row("2024-01-03", "A1", "5", "north").
		String()

	info, err := svc.Upload(context.Background(), "sales.csv", strings.NewReader(body))
	require.NoError(t, err)

	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "sales.csv", info.Name)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, []string{"A1", "B2"}, info.SKUs)
	assert.Equal(t, []string{"date", "sku", "quantity", "store"}, info.Columns)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), info.LastDate)

	testutil.AssertLogContains(t, handler, slog.LevelInfo, "dataset uploaded")
	assert.True(t, handler.ContainsAttr("dataset_id", info.ID))
}

func TestDatasetServiceUploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr error
	}{
		{name: "wrong extension", file: "sales.xlsx", body: testutil.FlatSeriesCSV("A1", 3, 1), wantErr: ErrInvalidFileType},
		{name: "no extension", file: "sales", body: testutil.FlatSeriesCSV("A1", 3, 1), wantErr: ErrInvalidFileType},
		{name: "header only", file: "sales.csv", body: "date,sku,quantity\n", wantErr: sales.ErrEmptyFile},
		{name: "missing column", file: "sales.csv", body: "date,sku\n2024-01-01,A1\n", wantErr: sales.ErrMissingColumns},
		{name: "bad quantity", file: "sales.csv", body: "date,sku,quantity\n2024-01-01,A1,lots\n", wantErr: sales.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newDatasetService(t)
			_, err := svc.Upload(context.Background(), tt.file, strings.NewReader(tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, svc.List(context.Background()))
		})
	}
}

func TestDatasetServiceUploadRowError(t *testing.T) {
	svc, _ := newDatasetService(t)
	_, err := svc.Upload(context.Background(), "s.csv", strings.NewReader("date,sku,quantity\n2024-01-01,A1,1\nnope,A1,2\n"))

	var rowErr *sales.RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 3, rowErr.Row)
	assert.Equal(t, "date", rowErr.Column)
	assert.Equal(t, "nope", rowErr.Value)
}

func TestDatasetServiceQueries(t *testing.T) {
	svc, _ := newDatasetService(t)
	ctx := context.Background()
	body := testutil.NewSalesCSV("date", "sku", "quantity").
		Daily("A1", testutil.FixtureStart, 5, testutil.Constant(2)).
		Row("2024-01-02", "A1", "3").
		Daily("B2", testutil.FixtureStart, 2, testutil.Constant(7)).
		String()

	info, err := svc.Upload(ctx, "multi.csv", strings.NewReader(body))
	require.NoError(t, err)

	got, err := svc.Get(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, info.ID, got.ID)

	skus, err := svc.SKUs(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, skus)

	page, err := svc.Records(ctx, info.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, page.Total)
	assert.Len(t, page.Rows, 3)
	assert.Equal(t, []string{"date", "sku", "quantity"}, page.Columns)

	page, err = svc.Records(ctx, info.ID, 0)
	require.NoError(t, err)
	assert.Len(t, page.Rows, 8)

	hist, err := svc.History(ctx, info.ID, "A1")
	require.NoError(t, err)
	require.Len(t, hist.Series, 5)
	assert.Equal(t, 5.0, hist.Series[1].Quantity, "duplicate dates are summed")
	assert.Equal(t, 5, hist.Summary.Days)
	assert.InDelta(t, 13.0, hist.Summary.Total, 1e-9)

	_, err = svc.History(ctx, info.ID, "ZZ")
	assert.ErrorIs(t, err, ErrSKUNotFound)

	assert.Len(t, svc.List(ctx), 1)
	assert.Equal(t, 8, svc.Stats()["rows"])

	require.NoError(t, svc.Delete(ctx, info.ID))
	_, err = svc.Get(ctx, info.ID)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, info.ID), ErrDatasetNotFound)
}

func TestDatasetServiceUnknownDataset(t *testing.T) {
	svc, _ := newDatasetService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	_, err = svc.SKUs(ctx, "missing")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	_, err = svc.Records(ctx, "missing", 10)
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	_, err = svc.History(ctx, "missing", "A1")
	assert.ErrorIs(t, err, ErrDatasetNotFound)
	assert.Zero(t, svc.CleanupExpired(ctx))
}
