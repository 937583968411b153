package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/joshuapare/arctree/catalog"
	"github.com/joshuapare/arctree/internal/config"
	"github.com/joshuapare/arctree/internal/logger"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	baseURL    string
	repository string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "arcctl",
	Short: "Browse and search archival finding aids from the command line",
	Long: `arcctl talks to a remote archival catalog. It loads collection trees page by
page, searches within a collection or across the catalog, reveals where a
record sits in its hierarchy, and exports the loaded tree.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVar(&baseURL, "base-url", "", "Catalog API base URL (overrides config and "+config.EnvBaseURL+")")
	rootCmd.PersistentFlags().
		StringVar(&repository, "repository", "", "Repository id (overrides config and "+config.EnvRepository+")")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/arctree/config.yaml)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, applies global flags on top and sets up
// logging. Verbose mode sends debug logs to stderr.
func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return cfg, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if repository != "" {
		cfg.Repository = repository
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	lo := cfg.LoggerOptions()
	if verbose && !quiet {
		lo.Enabled = true
		lo.Writer = os.Stderr
		lo.Level = slog.LevelDebug
	}
	if err := logger.Init(lo); err != nil {
		return cfg, fmt.Errorf("init logging: %w", err)
	}
	return cfg, nil
}

// newClient loads configuration and builds a catalog client.
func newClient() (*catalog.Client, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, cfg, err
	}
	c, err := catalog.NewClient(cfg.ClientOptions())
	if err != nil {
		return nil, cfg, err
	}
	printVerbose("Catalog: %s\n", cfg.BaseURL)
	return c, cfg, nil
}

// Helper functions for output

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
