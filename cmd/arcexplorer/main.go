package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/engine"
	"github.com/joshuapare/arctree/internal/config"
	"github.com/joshuapare/arctree/internal/logger"
	"github.com/joshuapare/arctree/internal/metrics"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type options struct {
	debug       bool
	configPath  string
	baseURL     string
	repository  string
	open        string
	global      bool
	local       bool
	metricsAddr string
	showVersion bool
}

func parseFlags(args []string) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("arcexplorer", flag.ContinueOnError)
	fs.Usage = printHelp
	fs.BoolVarP(&o.debug, "debug", "d", false, "Enable debug logging")
	fs.StringVar(&o.configPath, "config", "", "Config file")
	fs.StringVar(&o.baseURL, "base-url", "", "Catalog API base URL")
	fs.StringVar(&o.repository, "repository", "", "Repository id")
	fs.StringVar(&o.open, "open", "", "Record URI to reveal once the collection loads")
	fs.BoolVar(&o.global, "global", false, "Search across the whole catalog")
	fs.BoolVar(&o.local, "local", false, "Search only the loaded tree, in memory")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.BoolVarP(&o.showVersion, "version", "v", false, "Show version information")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	return o, fs.Args(), nil
}

func main() {
	opts, args, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		printUsage()
		os.Exit(1)
	}
	if opts.showVersion {
		fmt.Printf("arcexplorer %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built: %s\n", date)
		os.Exit(0)
	}
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger (must be before any logging calls)
	lo := cfg.LoggerOptions()
	if opts.debug {
		lo.Enabled = true
		lo.Level = slog.LevelDebug
	}
	if err := logger.Init(lo); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to init logging: %v\n", err)
	}

	resource := args[0]
	logger.Info("starting arcexplorer", "resource", resource, "catalog", cfg.BaseURL, "debug", opts.debug)

	client, err := catalog.NewClient(cfg.ClientOptions())
	if err != nil {
		logger.Error("catalog client", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	stopMetrics := serveMetrics(cfg)
	defer stopMetrics()

	eo := cfg.EngineOptions()
	eo.Catalog = client
	eo.Router = engine.NewMemoryRouter(opts.open)
	eo.Global = opts.global
	eo.LocalSearch = opts.local
	m := NewModel(engine.New(eo), resource, cfg.Repository)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	finalModel, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
	if model, ok := finalModel.(Model); ok {
		model.Close()
	}

	logger.Info("arcexplorer exited normally")
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(o options) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	if o.repository != "" {
		cfg.Repository = o.repository
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = o.metricsAddr
	}
	return cfg, cfg.Validate()
}

// serveMetrics starts the Prometheus endpoint when enabled and returns a
// function that shuts it down.
func serveMetrics(cfg config.Config) func() {
	if !cfg.Metrics.Enabled {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", "addr", cfg.Metrics.Addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: arcexplorer [options] <resource>\n")
	fmt.Fprintf(os.Stderr, "Try 'arcexplorer --help' for more information.\n")
}

func printHelp() {
	fmt.Println("arcexplorer - Interactive TUI for archival finding aids")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  arcexplorer [options] <resource>")
	fmt.Println()
	fmt.Println("DESCRIPTION:")
	fmt.Println("  Browses one collection of a remote archival catalog. Children are loaded")
	fmt.Println("  page by page as you scroll; search results can be revealed in the tree.")
	fmt.Println()
	fmt.Println("  Navigation:")
	fmt.Println("    ↑/k, ↓/j    Move up/down")
	fmt.Println("    →/l, Enter  Expand record / load more")
	fmt.Println("    ←/h         Collapse record / go to parent")
	fmt.Println("    /           Search (tab cycles the field)")
	fmt.Println("    n/N         Next/previous match")
	fmt.Println("    space       Select record")
	fmt.Println("    c           Copy record URI")
	fmt.Println("    ?           Show help")
	fmt.Println("    q           Quit")
	fmt.Println()
	fmt.Println("OPTIONS:")
	fmt.Println("  -d, --debug             Enable debug logging")
	fmt.Println("      --config FILE       Config file (default $XDG_CONFIG_HOME/arctree/config.yaml)")
	fmt.Println("      --base-url URL      Catalog API base URL")
	fmt.Println("      --repository ID     Repository id")
	fmt.Println("      --open URI          Reveal a record once the collection loads")
	fmt.Println("      --global            Search across the whole catalog")
	fmt.Println("      --local             Search the loaded tree only")
	fmt.Println("      --metrics-addr ADDR Serve Prometheus metrics")
	fmt.Println("  -h, --help              Show this help message")
	fmt.Println("  -v, --version           Show version information")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  arcexplorer 42 --base-url https://catalog.example.org/api --repository 2")
	fmt.Println()
	fmt.Println("For scripting, use the 'arcctl' command instead.")
}
