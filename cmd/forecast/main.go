package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/marwannelsayed/spare-demand-forecast/internal/charts"
	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	"github.com/marwannelsayed/spare-demand-forecast/internal/exporter"
	"github.com/marwannelsayed/spare-demand-forecast/internal/infrastructure"
	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
	"github.com/marwannelsayed/spare-demand-forecast/internal/services"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts/domain"
)

type options struct {
	input   string
	sku     string
	output  string
	format  exporter.Format
	scope   exporter.Scope
	chart   string
	bom     bool
	list    bool
	verbose bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var (
		opts   options
		format string
		scope  string
	)

	fs := flag.NewFlagSet("forecast", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.input, "input", "", "sales history CSV with date, sku and quantity columns (required)")
	fs.StringVar(&opts.sku, "sku", "", "SKU to forecast (required unless -list)")
	fs.StringVar(&opts.output, "output", "", "output file (defaults to forecast.<format> in the exports directory)")
	fs.StringVar(&format, "format", "csv", "output format: csv or xlsx")
	fs.StringVar(&scope, "scope", "all", "rows to export: all or tail")
	fs.StringVar(&opts.chart, "chart", "", "also render the forecast window as a PNG to this path")
	fs.BoolVar(&opts.bom, "bom", false, "prefix CSV output with a UTF-8 BOM for Excel")
	fs.BoolVar(&opts.list, "list", false, "print the SKUs in the input and exit")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	var err error
	if opts.format, err = exporter.ParseFormat(format); err != nil {
		return opts, err
	}
	if opts.scope, err = exporter.ParseScope(scope); err != nil {
		return opts, err
	}

	if opts.input == "" {
		return opts, errors.New("-input is required")
	}
	if opts.sku == "" && !opts.list {
		return opts, errors.New("-sku is required")
	}
	if opts.output == "" {
		opts.output = opts.format.Filename()
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", slog.String("error", err.Error()))
		cfg = config.Default()
	}

	level := cfg.Logging.Level
	if opts.verbose {
		level = "debug"
	}
	logger := infrastructure.NewLogger(os.Stderr, level)

	paths, err := config.GetPaths()
	if err != nil {
		logger.Warn("Failed to resolve executable paths, writing relative to the working directory",
			slog.String("error", err.Error()))
	} else if err := paths.EnsureDirectories(); err != nil {
		logger.Warn("Failed to create output directories", slog.String("error", err.Error()))
	}

	ctx := infrastructure.EnsureTraceID(context.Background())
	if err := run(ctx, opts, cfg, paths, os.Stdout, logger); err != nil {
		logger.Error("Forecast failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// run parses the input, forecasts one SKU and writes the requested files
func run(ctx context.Context, opts options, cfg *config.Config, paths *config.Paths, stdout io.Writer, logger *slog.Logger) error {
	set, err := readInput(opts.input)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "Input parsed",
		slog.String("input", opts.input),
		slog.Int("rows", set.Len()),
		slog.Int("skus", len(set.SKUs())))

	if opts.list {
		for _, sku := range set.SKUs() {
			fmt.Fprintln(stdout, sku)
		}
		return nil
	}

	if !set.HasSKU(opts.sku) {
		return fmt.Errorf("%w: %q", services.ErrSKUNotFound, opts.sku)
	}
	logger.DebugContext(ctx, "SKU selected",
		slog.String("sku", opts.sku),
		slog.Int("rows", len(set.FilterSKU(opts.sku))))

	pipeline := services.NewPipelineFromConfig(cfg.Forecast, logger)
	svc := services.NewForecastService(nil, pipeline, cfg.Forecast, nil, logger)

	result, err := svc.Forecast(ctx, set.Records(), opts.sku)
	if err != nil {
		return err
	}

	rows := exporter.SelectRows(result.Forecast, opts.scope, svc.TailRows())
	writer := exporter.NewCSVWriter(paths)

	var written string
	switch opts.format {
	case exporter.FormatXLSX:
		written, err = writeXLSX(writer.ResolvePath(opts.output), rows, result)
	case exporter.FormatCSV:
		if !opts.bom {
			written, err = writer.WriteForecast(opts.output, rows)
			break
		}
		written, err = writer.WriteCSV(opts.output, exporter.WriteOptions{
			Headers:   exporter.ForecastHeaders,
			Records:   exporter.ForecastRecords(rows),
			BOMPrefix: opts.bom,
		})
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	fmt.Fprintf(stdout, "wrote %d rows for %s to %s\n", len(rows), opts.sku, written)

	if opts.chart != "" {
		chartPath := writer.ResolvePath(opts.chart)
		if err := writeChart(chartPath, result.Window, opts.sku); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote chart to %s\n", chartPath)
	}

	return nil
}

func readInput(path string) (*sales.RecordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	set, err := sales.ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return set, nil
}

func writeXLSX(path string, rows []domain.ForecastPoint, result *domain.ForecastResult) (string, error) {
	if err := ensureDir(path); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := exporter.WriteForecastXLSX(f, rows, result.History); err != nil {
		return "", err
	}
	return path, f.Close()
}

func writeChart(path string, window domain.DisplayWindow, sku string) error {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return fmt.Errorf("chart path %q must end in .png", path)
	}
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	defer f.Close()

	opts := charts.DefaultOptions()
	opts.Title = "Forecast: " + sku
	if err := charts.RenderForecast(f, window, opts); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return f.Close()
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return nil
}
