package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "default configuration with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.RequestTimeout)
				assert.Equal(t, 1048576, cfg.Server.MaxHeaderBytes)

				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.EnableCORS)
				assert.True(t, cfg.Security.RateLimit.Enabled)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)

				assert.Equal(t, int64(32<<20), cfg.Upload.MaxBytes)
				assert.Equal(t, time.Hour, cfg.Upload.DatasetTTL)

				assert.Equal(t, 30, cfg.Forecast.HorizonDays)
				assert.Equal(t, 30, cfg.Forecast.WindowDays)
				assert.Equal(t, 30, cfg.Forecast.TailRows)
				assert.InDelta(t, 0.80, cfg.Forecast.IntervalWidth, 1e-9)
			},
		},
		{
			name: "custom environment variables",
			env: map[string]string{
				"DEMAND_SERVER_PORT":              "9090",
				"DEMAND_SERVER_READ_TIMEOUT":      "30s",
				"DEMAND_SECURITY_ALLOWED_ORIGINS": "http://example.com,https://example.com",
				"DEMAND_SECURITY_ENABLE_CORS":     "false",
				"DEMAND_LOGGING_LEVEL":            "debug",
				"DEMAND_LOGGING_FORMAT":           "text",
				"DEMAND_FORECAST_INTERVAL_WIDTH":  "0.95",
				"DEMAND_UPLOAD_DATASET_TTL":       "10m",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://example.com", "https://example.com"}, cfg.Security.AllowedOrigins)
				assert.False(t, cfg.Security.EnableCORS)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format) // validate() forces json
				assert.InDelta(t, 0.95, cfg.Forecast.IntervalWidth, 1e-9)
				assert.Equal(t, 10*time.Minute, cfg.Upload.DatasetTTL)
			},
		},
		{
			name: "yaml file overlays defaults",
			file: "server:\n  port: 7070\nforecast:\n  horizon_days: 14\nlogging:\n  output: nowhere\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, 14, cfg.Forecast.HorizonDays)
				assert.Equal(t, 30, cfg.Forecast.WindowDays)
				assert.Equal(t, "console", cfg.Logging.Output) // unknown output falls back
			},
		},
		{
			name: "environment wins over yaml file",
			file: "server:\n  port: 7070\n",
			env:  map[string]string{"DEMAND_SERVER_PORT": "6060"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
			},
		},
		{
			name:    "invalid port number",
			env:     map[string]string{"DEMAND_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "malformed port number",
			env:     map[string]string{"DEMAND_SERVER_PORT": "eighty"},
			wantErr: true,
		},
		{
			name:    "interval width out of range",
			env:     map[string]string{"DEMAND_FORECAST_INTERVAL_WIDTH": "1.5"},
			wantErr: true,
		},
		{
			name:    "zero horizon",
			env:     map[string]string{"DEMAND_FORECAST_HORIZON_DAYS": "0"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [unterminated",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())

			if tt.file != "" {
				path := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(path, []byte(tt.file), 0o600))
				t.Setenv("DEMAND_CONFIG_FILE", path)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DEMAND_SERVER_PORT=5050\n"), 0o600))

	// godotenv never overrides variables already set, so register cleanup
	// for the one it will introduce.
	t.Setenv("DEMAND_SERVER_PORT", "")
	require.NoError(t, os.Unsetenv("DEMAND_SERVER_PORT"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Server.Port)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "cors without origins",
			mutate:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: "allowed origin",
		},
		{
			name:    "negative window",
			mutate:  func(c *Config) { c.Forecast.WindowDays = -1 },
			wantErr: "window",
		},
		{
			name:    "zero upload size",
			mutate:  func(c *Config) { c.Upload.MaxBytes = 0 },
			wantErr: "max bytes",
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *Config) { c.Server.RequestTimeout = 0 },
			wantErr: "request timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 9000
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
}
