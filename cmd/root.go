package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "github.com/KaramelBytes/churnboard/internal/config"
	"github.com/KaramelBytes/churnboard/internal/dashboard"
	"github.com/KaramelBytes/churnboard/internal/dataset"
	"github.com/KaramelBytes/churnboard/internal/filter"
	"github.com/KaramelBytes/churnboard/internal/logging"
)

var (
	// Global flags
	cfgFile      string
	debug        bool
	flagDataPath string
	flagCategory string

	// Loaded configuration
	cfg *cfgpkg.Global
	log = logging.NewDefault()
)

var rootCmd = &cobra.Command{
	Use:   "churnboard",
	Short: "churnboard: filter-driven aggregates over telecom customer records",
	Long: `churnboard loads a telecom complaints/billing export once and recomputes chart-ready
aggregates (means, maxima, churn rate, grouped sums, correlations) whenever a filter changes.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.churnboard/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagDataPath, "data", "", "dataset path: .csv, .tsv or .xlsx (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagCategory, "category", "", "category column used as the identity filter (overrides config)")
}

func loadConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to read .env: %v\n", err)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("data") && flagDataPath != "" {
		cfg.DataPath = flagDataPath
	}
	if f.Changed("category") && flagCategory != "" {
		cfg.CategoryColumn = flagCategory
	}
	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = zap.DebugLevel
	}
	log = logging.New(os.Stderr, level)
}

func requireConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}

func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}

// loadTable reads the configured source once.
func loadTable() (*dataset.Table, error) {
	c, err := requireConfig()
	if err != nil {
		return nil, err
	}
	opt := dataset.DefaultOptions()
	if c.CategoryColumn != "" {
		opt.CategoryColumn = c.CategoryColumn
	}
	if opt.Delimiter, err = parseDelimiter(c.Delimiter); err != nil {
		return nil, err
	}
	opt.Sheet = c.Sheet
	tbl, err := dataset.LoadFile(c.DataPath, opt)
	if err != nil {
		return nil, err
	}
	log.Info("dataset loaded",
		zap.String("source", tbl.Name()),
		zap.Int("rows", tbl.Len()),
		zap.Int("dropped", tbl.Dropped()))
	return tbl, nil
}

// loadDashboard loads the table and wires configured defaults and limits.
func loadDashboard() (*dashboard.Dashboard, error) {
	tbl, err := loadTable()
	if err != nil {
		return nil, err
	}
	dims := dashboard.New(tbl).Dimensions()
	return dashboard.New(tbl,
		dashboard.WithLogger(log),
		dashboard.WithTimeout(cfg.ComputeTimeout()),
		dashboard.WithDefaults(canonicalSelection(cfg.DefaultSelection, dims)),
	), nil
}

// canonicalSelection maps keys case-insensitively onto known dimensions;
// viper lowercases nested map keys. Unknown keys are dropped.
func canonicalSelection(in map[string]string, dims []string) filter.Selection {
	out := filter.Selection{}
	for k, v := range in {
		for _, d := range dims {
			if strings.EqualFold(k, d) {
				out[d] = v
			}
		}
	}
	return out
}
