package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	OutputDir string  `mapstructure:"output_dir" yaml:"output_dir"`
	CILevel   float64 `mapstructure:"ci_level" yaml:"ci_level"`
	Transform string  `mapstructure:"transform" yaml:"transform"`

	PlotWidth  int `mapstructure:"plot_width" yaml:"plot_width"`
	PlotHeight int `mapstructure:"plot_height" yaml:"plot_height"`

	// GOSH subset reanalysis parameters.
	GoshSubsets  int     `mapstructure:"gosh_subsets" yaml:"gosh_subsets"`
	GoshSeed     int64   `mapstructure:"gosh_seed" yaml:"gosh_seed"`
	KMeansK      int     `mapstructure:"kmeans_k" yaml:"kmeans_k"`
	DBSCANEps    float64 `mapstructure:"dbscan_eps" yaml:"dbscan_eps"`
	DBSCANMinPts int     `mapstructure:"dbscan_min_pts" yaml:"dbscan_min_pts"`

	// MarkdownTables renders report tables as Markdown by default.
	MarkdownTables bool `mapstructure:"markdown_tables" yaml:"markdown_tables"`
}

// Default returns the built-in configuration, used when no config file
// can be loaded.
func Default() *Global {
	return &Global{
		OutputDir:    "metaprop-out",
		CILevel:      0.95,
		Transform:    "ft",
		PlotWidth:    1000,
		PlotHeight:   600,
		GoshSubsets:  10000,
		GoshSeed:     1,
		KMeansK:      2,
		DBSCANEps:    0.05,
		DBSCANMinPts: 8,
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile
// is empty, it writes to ~/.metaprop/config.yaml, creating the
// directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".metaprop")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("METAPROP")
	v.AutomaticEnv()

	v.SetDefault("output_dir", "metaprop-out")
	v.SetDefault("ci_level", 0.95)
	v.SetDefault("transform", "ft")
	v.SetDefault("plot_width", 1000)
	v.SetDefault("plot_height", 600)
	v.SetDefault("gosh_subsets", 10000)
	v.SetDefault("gosh_seed", 1)
	v.SetDefault("kmeans_k", 2)
	v.SetDefault("dbscan_eps", 0.05)
	v.SetDefault("dbscan_min_pts", 8)
	v.SetDefault("markdown_tables", false)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".metaprop")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
