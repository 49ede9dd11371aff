// Package main is the entry point for gridstorm, a virtualized data grid
// viewer for the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dshills/gridstorm/internal/app"
	"github.com/dshills/gridstorm/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// flags holds command line settings. Unset flags leave the config alone.
type flags struct {
	configPath string
	watch      bool
	dumpConfig bool
	snapshot   string
	width      int
	height     int

	set map[string]bool

	rows     int
	source   string
	columns  string
	database string
	table    string
	scripts  string
	logLevel string
	logFile  string
	freeze   int
}

func main() {
	os.Exit(run())
}

func run() int {
	f := parseFlags()

	cfg, err := config.LoadAll(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if f.dumpConfig {
		if err := cfg.Encode(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	logger, closeLog, err := app.OpenLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closeLog()
	app.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if f.snapshot != "" {
		stats, err := app.Snapshot(ctx, cfg, f.width, f.height, f.snapshot, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Printf("wrote %s (%s)\n", f.snapshot, stats.Total)
		return 0
	}

	// Stderr belongs to the terminal UI; only a log file receives output.
	if cfg.Logging.File == "" {
		logger.Disable()
	}

	application, err := app.New(ctx, app.Options{Config: cfg, Watch: f.watch, Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	snap := application.Metrics().Snapshot()
	logger.Info("exit after %s: %d frames, %.1f cells/frame, %.1f%% idle",
		snap.Uptime.Round(1e6), snap.FrameCount, snap.AvgCellsPerFrame(), snap.IdleRate())
	return 0
}

func parseFlags() *flags {
	f := &flags{}
	var showVersion, showHelp bool
	var size string

	flag.StringVar(&f.configPath, "config", "", "Path to TOML configuration file")
	flag.StringVar(&f.configPath, "c", "", "Path to TOML configuration file (shorthand)")
	flag.BoolVar(&f.watch, "watch", false, "Reload the configuration file when it changes")
	flag.BoolVar(&f.dumpConfig, "dump-config", false, "Print the effective configuration and exit")
	flag.StringVar(&f.snapshot, "snapshot", "", "Render the grid to a PNG file and exit")
	flag.StringVar(&size, "size", "1024x640", "Snapshot size in pixels (WIDTHxHEIGHT)")
	flag.IntVar(&f.rows, "rows", 0, "Number of rows for the synthetic source")
	flag.StringVar(&f.source, "source", "", "Data source (synthetic, postgres)")
	flag.StringVar(&f.columns, "columns", "", "Path to YAML column definitions")
	flag.StringVar(&f.database, "db", "", "PostgreSQL connection URL")
	flag.StringVar(&f.table, "table", "", "PostgreSQL table to display")
	flag.StringVar(&f.scripts, "scripts", "", "Directory of Lua cell renderer scripts")
	flag.IntVar(&f.freeze, "freeze", 0, "Number of leading sticky columns")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&f.logFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "gridstorm - virtualized data grid viewer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: gridstorm [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nKeys: arrows/hjkl move, shift extends, space selects row, c selects column, q quits\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  gridstorm -rows 1000000                      Browse synthetic data\n")
		fmt.Fprintf(os.Stderr, "  gridstorm -c grid.toml -watch                Live-reload theme changes\n")
		fmt.Fprintf(os.Stderr, "  gridstorm -source postgres -db $URL -table items -columns items.yaml\n")
		fmt.Fprintf(os.Stderr, "  gridstorm -snapshot grid.png -size 1280x720  Render a PNG\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("gridstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if _, err := fmt.Sscanf(strings.ToLower(size), "%dx%d", &f.width, &f.height); err != nil || f.width <= 0 || f.height <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid size %q (want WIDTHxHEIGHT)\n", size)
		os.Exit(1)
	}

	f.set = make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f
}

// apply copies explicitly set flags over cfg.
func (f *flags) apply(cfg *config.Config) {
	if f.set["rows"] {
		cfg.Data.Rows = f.rows
	}
	if f.set["source"] {
		cfg.Data.Source = f.source
	}
	if f.set["columns"] {
		cfg.Data.ColumnsFile = f.columns
	}
	if f.set["db"] {
		cfg.Data.DatabaseURL = f.database
	}
	if f.set["table"] {
		cfg.Data.Table = f.table
	}
	if f.set["scripts"] {
		cfg.Grid.ScriptsDir = f.scripts
	}
	if f.set["freeze"] {
		cfg.Grid.FreezeColumns = f.freeze
	}
	if f.set["log-level"] {
		cfg.Logging.Level = f.logLevel
	}
	if f.set["log-file"] {
		cfg.Logging.File = f.logFile
	}
}
