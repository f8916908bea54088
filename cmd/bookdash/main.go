// Package main is the entry point for bookdash, a terminal dashboard for a
// books catalog API. It loads configuration, starts services and runs the
// Bubble Tea program.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/j-veylop/bookdash-tui/internal/api"
	"github.com/j-veylop/bookdash-tui/internal/app"
	"github.com/j-veylop/bookdash-tui/internal/config"
	"github.com/j-veylop/bookdash-tui/internal/filter"
	"github.com/j-veylop/bookdash-tui/internal/logger"
	"github.com/j-veylop/bookdash-tui/internal/services"
	"github.com/j-veylop/bookdash-tui/internal/ui/tabs/analytics"
	"github.com/j-veylop/bookdash-tui/internal/ui/tabs/books"
	"github.com/j-veylop/bookdash-tui/internal/ui/tabs/history"
	"github.com/j-veylop/bookdash-tui/internal/ui/tabs/info"
	"github.com/j-veylop/bookdash-tui/internal/ui/tabs/views"
	"github.com/j-veylop/bookdash-tui/internal/version"
)

func main() {
	var link string
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "-v", "--version":
			fmt.Println(version.Info())
			os.Exit(0)
		case "-h", "--help":
			printUsage()
			os.Exit(0)
		default:
			link = os.Args[1]
		}
	}

	if err := run(link); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run(link string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logger.Setup(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	logger.Info("starting bookdash", "version", version.GetVersion(), "api", cfg.APIBaseURL)

	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	stopMetrics := serveMetrics(cfg.MetricsAddr, svcManager.Metrics())
	defer stopMetrics()

	model := app.NewModel(svcManager)

	state := model.GetState()
	state.SetCodec(filter.NewCodec(cfg.DefaultBucketSize))
	state.SetLinkBase(cfg.LinkBase)
	state.ApplyLink(link)

	client := svcManager.API()
	model.SetTabs([]app.Tab{
		books.New(state, client, cfg.SearchDebounce), // Tab 0: Books listing
		analytics.New(state, client, cfg.TopWords),   // Tab 1: Analytics panels
		history.New(state, svcManager),               // Tab 2: Catalog history
		views.New(state),                             // Tab 3: Saved views
		info.New(state, cfg, client),                 // Tab 4: Configuration and stats
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// serveMetrics exposes the client metrics registry over HTTP when addr is
// set. The returned func shuts the server down.
func serveMetrics(addr string, metrics *api.Metrics) func() {
	if addr == "" || metrics == nil {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`bookdash - terminal dashboard for a books catalog API

Usage:
  bookdash [flags] [link]

Arguments:
  link            Dashboard link or query string to open, e.g. "q=night&sort=price_asc"

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts:
  1-5             Switch between tabs (Books, Analytics, History, Views, Info)
  Tab/Shift+Tab   Navigate between tabs
  j/k, Up/Down    Navigate lists
  /               Search titles
  y               Copy the shareable link
  r               Refresh data
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  BOOKS_API_URL        Books API base URL (default: http://localhost:8000)
  API_TIMEOUT          Request timeout (default: 10s)
  LINK_BASE            Base of shareable links (default: http://localhost:5173/)
  SEARCH_DEBOUNCE      Delay before a search is applied (default: 300ms)
  DEFAULT_BUCKET_SIZE  Price histogram bucket width (default: 10)
  TOP_WORDS            Title words to show (default: 10)
  SNAPSHOT_INTERVAL    Catalog snapshot interval, 0 disables (default: 5m)
  DATABASE_PATH        SQLite snapshot database path
  VIEWS_PATH           Saved views JSON file path
  METRICS_ADDR         Serve Prometheus metrics on this address
  LOG_FILE             Log file path
  LOG_LEVEL            debug, info, warn or error (default: info)
  NOTIFY               Desktop notifications on catalog changes (default: true)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/bookdash/.env
  - ~/.bookdash/.env`)
}
