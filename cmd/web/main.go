package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/marwannelsayed/spare-demand-forecast/internal/app"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts"
)

type options struct {
	openBrowser bool
	showVersion bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&opts.openBrowser, "open", false, "open the dashboard in the default browser once the server is ready")
	fs.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
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

	if opts.showVersion {
		fmt.Printf("%s (commit %s, built %s)\n", contracts.GetVersionString(), contracts.GitCommit, contracts.BuildTime)
		return
	}

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if opts.openBrowser {
		go openWhenReady(ctx, application)
	}

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func openWhenReady(ctx context.Context, application *app.Application) {
	if err := application.WaitReady(ctx, 20, 250*time.Millisecond); err != nil {
		application.Logger.WarnContext(ctx, "Server did not become ready for browser opening",
			slog.String("error", err.Error()))
		return
	}

	url := application.URL()
	if err := app.OpenBrowser(url); err != nil {
		application.Logger.WarnContext(ctx, "Failed to open browser",
			slog.String("url", url),
			slog.String("error", err.Error()))
		fmt.Printf("\nDashboard running at %s\n\n", url)
		return
	}
	application.Logger.InfoContext(ctx, "Browser opened", slog.String("url", url))
}
