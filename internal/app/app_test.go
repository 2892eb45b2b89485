package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/internal/shared/testutil"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testConfig listens on a random port with exporters and rate limiting off
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Telemetry.TraceExporter = "none"
	cfg.Telemetry.MetricExporter = "none"
	return cfg
}

func newTestApp(t *testing.T) (*Application, *httptest.Server) {
	t.Helper()
	app, err := New(testConfig(), createTestLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)
	return app, srv
}

func uploadCSV(t *testing.T, baseURL, filename, body string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(baseURL+"/api/datasets", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func getJSON(t *testing.T, url string, v interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestNew(t *testing.T) {
	t.Run("requires config", func(t *testing.T) {
		_, err := New(nil, createTestLogger())
		assert.Error(t, err)
	})

	t.Run("unsupported exporter", func(t *testing.T) {
		cfg := testConfig()
		cfg.Telemetry.MetricExporter = "statsd"
		_, err := New(cfg, createTestLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OpenTelemetry")
	})

	t.Run("wires every component", func(t *testing.T) {
		app, err := New(testConfig(), createTestLogger())
		require.NoError(t, err)

		assert.NotNil(t, app.Router)
		assert.NotNil(t, app.Server)
		assert.NotNil(t, app.Store)
		assert.NotNil(t, app.DatasetService)
		assert.NotNil(t, app.ForecastService)
		assert.NotNil(t, app.HealthService)
		assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
		assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	})
}

func TestApplication_Routes(t *testing.T) {
	_, srv := newTestApp(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/health/live", http.StatusOK},
		{http.MethodGet, "/api/health/ready", http.StatusOK},
		{http.MethodGet, "/api/version", http.StatusOK},
		{http.MethodGet, "/api/stats", http.StatusOK},
		{http.MethodGet, "/api/datasets", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodGet, "/api/datasets/not-a-uuid", http.StatusBadRequest},
		{http.MethodGet, "/api/datasets/4a4c1e0e-3e1f-4f63-9d4e-2a4f0d1b9c11", http.StatusNotFound},
		{http.MethodPut, "/api/datasets", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestApplication_MiddlewareHeaders(t *testing.T) {
	_, srv := newTestApp(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "req-123")
	req.Header.Set("Origin", "http://localhost:8080")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:8080", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestApplication_UploadAndForecast(t *testing.T) {
	_, srv := newTestApp(t)

	resp := uploadCSV(t, srv.URL, "sales.csv", testutil.FlatSeriesCSV("A1", 90, 10))
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var info domain.DatasetInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	require.NotEmpty(t, info.ID)
	assert.Equal(t, 90, info.Rows)
	assert.Equal(t, []string{"A1"}, info.SKUs)

	base := srv.URL + "/api/datasets/" + info.ID

	var skus struct {
		Data  []string `json:"data"`
		Count int      `json:"count"`
	}
	getJSON(t, base+"/skus", &skus)
	assert.Equal(t, []string{"A1"}, skus.Data)

	var result domain.ForecastResult
	r := getJSON(t, base+"/skus/A1/forecast", &result)
	require.Equal(t, http.StatusOK, r.StatusCode)

	assert.Len(t, result.History, 90)
	assert.Len(t, result.Forecast, 120)
	assert.Len(t, result.Tail, 30)
	assert.LessOrEqual(t, len(result.Window.Forecast), 61)
	assert.LessOrEqual(t, len(result.Window.Actuals), 31)
	for _, p := range result.Forecast {
		assert.InDelta(t, 10, p.Yhat, 1e-6)
	}

	t.Run("csv download", func(t *testing.T) {
		resp, err := http.Get(base + "/skus/A1/forecast.csv?scope=tail")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		records, err := csv.NewReader(resp.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 31)
		assert.Equal(t, []string{"ds", "yhat", "yhat_lower", "yhat_upper"}, records[0])
		assert.Equal(t, "2024-04-29", records[30][0])
	})

	t.Run("forecast chart", func(t *testing.T) {
		resp, err := http.Get(base + "/skus/A1/charts/forecast.png")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		_, err = png.Decode(resp.Body)
		assert.NoError(t, err)
	})

	t.Run("unknown sku", func(t *testing.T) {
		r := getJSON(t, base+"/skus/ZZ/forecast", nil)
		assert.Equal(t, http.StatusNotFound, r.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, base, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		r := getJSON(t, base, nil)
		assert.Equal(t, http.StatusNotFound, r.StatusCode)
	})
}

func TestApplication_ForecastSKUsWithReservedCharacters(t *testing.T) {
	_, srv := newTestApp(t)

	quantities := []struct {
		sku string
		qty float64
	}{
		{"100%", 4},
		{"A%41", 7},
		{"AA", 3},
		{"A/B", 5},
		{"X Y", 6},
	}
	body := testutil.NewSalesCSV("date", "sku", "quantity")
	for _, q := range quantities {
		body.Daily(q.sku, testutil.FixtureStart, 20, testutil.Constant(q.qty))
	}

	resp := uploadCSV(t, srv.URL, "sales.csv", body.String())
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var info domain.DatasetInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))

	for _, q := range quantities {
		t.Run(q.sku, func(t *testing.T) {
			var result domain.ForecastResult
			r := getJSON(t, srv.URL+"/api/datasets/"+info.ID+"/skus/"+url.PathEscape(q.sku)+"/forecast", &result)
			require.Equal(t, http.StatusOK, r.StatusCode)
			assert.Equal(t, q.sku, result.SKU)
			require.NotEmpty(t, result.Forecast)
			assert.InDelta(t, q.qty, result.Forecast[len(result.Forecast)-1].Yhat, 1e-6)
		})
	}
}

func TestApplication_UploadErrors(t *testing.T) {
	_, srv := newTestApp(t)

	tests := []struct {
		name     string
		filename string
		body     string
		status   int
		code     string
	}{
		{"missing column", "sales.csv", "date,sku\n2024-01-01,A1\n", http.StatusBadRequest, "MISSING_COLUMNS"},
		{"header only", "sales.csv", "date,sku,quantity\n", http.StatusBadRequest, "EMPTY_FILE"},
		{"bad date", "sales.csv", "date,sku,quantity\nyesterday,A1,3\n", http.StatusBadRequest, "INVALID_ROW"},
		{"wrong extension", "sales.txt", "date,sku,quantity\n2024-01-01,A1,3\n", http.StatusBadRequest, "INVALID_FILE_TYPE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := uploadCSV(t, srv.URL, tt.filename, tt.body)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			var problem map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
			assert.Equal(t, tt.code, problem["error_code"])
		})
	}
}

func TestApplication_InsufficientHistory(t *testing.T) {
	_, srv := newTestApp(t)

	resp := uploadCSV(t, srv.URL, "one.csv", "date,sku,quantity\n2024-01-01,A1,3\n")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var info domain.DatasetInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))

	var problem map[string]interface{}
	r := getJSON(t, srv.URL+"/api/datasets/"+info.ID+"/skus/A1/forecast", &problem)
	assert.Equal(t, http.StatusUnprocessableEntity, r.StatusCode)
	assert.Equal(t, "INSUFFICIENT_HISTORY", problem["error_code"])
}

func TestApplication_StartStop(t *testing.T) {
	app, err := New(testConfig(), createTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	require.NoError(t, app.WaitReady(ctx, 20, 50*time.Millisecond))

	resp, err := http.Get(app.URL() + "/api/version")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(ctx))

	select {
	case err, ok := <-app.Done():
		assert.False(t, ok, "unexpected serve error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestApplication_RunStopsOnCancel(t *testing.T) {
	app, err := New(testConfig(), createTestLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestCleanupInterval(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want time.Duration
	}{
		{0, minCleanupInterval},
		{2 * time.Second, minCleanupInterval},
		{2 * time.Minute, 30 * time.Second},
		{time.Hour, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.ttl.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, cleanupInterval(tt.ttl))
		})
	}
}

func TestBrowserCommand(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"windows", "rundll32"},
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"plan9", ""},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			name, args := browserCommand(tt.goos, "http://localhost:8080")
			assert.Equal(t, tt.want, name)
			if name != "" {
				assert.Equal(t, "http://localhost:8080", args[len(args)-1])
			}
		})
	}
}
