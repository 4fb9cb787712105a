package cmd

import (
	"fmt"
	"os"

	"github.com/apex/log"
	clihandler "github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"

	cfgpkg "github.com/clinistats/metaprop/internal/config"
)

var (
	// Global flags (wired to config in loadConfig)
	cfgFile string
	debug   bool
	// Analysis flags (override config if set)
	flagLevel     float64
	flagTransform string
	flagOut       string
	flagMarkdown  bool
	// Dataset loading flags
	flagSheetName  string
	flagSheetIndex int
	flagDelimiter  string
	flagCategory   string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "metaprop",
	Short: "metaprop: meta-analysis of proportions across clinical studies",
	Long: `metaprop pools event proportions across studies with a random-effects
model and produces forest plots, funnel plots and bias tests, influence
and outlier diagnostics, GOSH subset diagnostics, and subgroup
breakdowns from a single spreadsheet of study-level counts.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.metaprop/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().Float64Var(&flagLevel, "level", 0, "confidence level, e.g. 0.95 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagTransform, "transform", "", "pooling transform: 'ft' | 'logit' (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagOut, "out", "o", "", "output directory for plots and reports (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&flagMarkdown, "markdown", false, "render tables as Markdown instead of ASCII")
	rootCmd.PersistentFlags().StringVar(&flagCategory, "category", "all", "disease category: 'nd' | 'cjd' | 'aie' | 'all'")
	rootCmd.PersistentFlags().StringVar(&flagDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	rootCmd.PersistentFlags().StringVar(&flagSheetName, "sheet-name", "", "XLSX: sheet name to load")
	rootCmd.PersistentFlags().IntVar(&flagSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
}

func loadConfig() {
	log.SetHandler(clihandler.New(os.Stderr))
	if debug {
		log.SetLevel(log.DebugLevel)
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: run on built-in defaults; explicit flags below
		// still take precedence over them
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Default()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("level") && flagLevel > 0 {
		cfg.CILevel = flagLevel
	}
	if f.Changed("transform") && flagTransform != "" {
		cfg.Transform = flagTransform
	}
	if f.Changed("out") && flagOut != "" {
		cfg.OutputDir = flagOut
	}
	if f.Changed("markdown") {
		cfg.MarkdownTables = flagMarkdown
	}
	log.Debugf("config: out=%s level=%g transform=%s", cfg.OutputDir, cfg.CILevel, cfg.Transform)
}
