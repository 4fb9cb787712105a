package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	cfgpkg "github.com/clinistats/metaprop/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set metaprop configuration",
}

// configKeys lists every key in show/get order.
var configKeys = []string{
	"output_dir", "ci_level", "transform",
	"plot_width", "plot_height",
	"gosh_subsets", "gosh_seed", "kmeans_k", "dbscan_eps", "dbscan_min_pts",
	"markdown_tables",
}

func configValue(c *cfgpkg.Global, key string) (string, error) {
	switch key {
	case "output_dir":
		return c.OutputDir, nil
	case "ci_level":
		return fmt.Sprintf("%.3f", c.CILevel), nil
	case "transform":
		return c.Transform, nil
	case "plot_width":
		return strconv.Itoa(c.PlotWidth), nil
	case "plot_height":
		return strconv.Itoa(c.PlotHeight), nil
	case "gosh_subsets":
		return strconv.Itoa(c.GoshSubsets), nil
	case "gosh_seed":
		return strconv.FormatInt(c.GoshSeed, 10), nil
	case "kmeans_k":
		return strconv.Itoa(c.KMeansK), nil
	case "dbscan_eps":
		return fmt.Sprintf("%.3f", c.DBSCANEps), nil
	case "dbscan_min_pts":
		return strconv.Itoa(c.DBSCANMinPts), nil
	case "markdown_tables":
		return strconv.FormatBool(c.MarkdownTables), nil
	}
	return "", fmt.Errorf("unknown config key: %s", key)
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		for _, k := range configKeys {
			v, err := configValue(cfg, k)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s\n", k, v)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		v, err := configValue(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "output_dir":
			cfg.OutputDir = val
		case "ci_level":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 || f >= 1 {
				return fmt.Errorf("invalid ci_level: %s (must be in (0, 1))", val)
			}
			cfg.CILevel = f
		case "transform":
			switch val {
			case "ft", "logit":
				cfg.Transform = val
			default:
				return fmt.Errorf("invalid transform: %s (use ft or logit)", val)
			}
		case "plot_width":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for plot_width: %v", val)
			}
			cfg.PlotWidth = i
		case "plot_height":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for plot_height: %v", val)
			}
			cfg.PlotHeight = i
		case "gosh_subsets":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for gosh_subsets: %v", val)
			}
			cfg.GoshSubsets = i
		case "gosh_seed":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for gosh_seed: %v", val)
			}
			cfg.GoshSeed = i
		case "kmeans_k":
			i, err := strconv.Atoi(val)
			if err != nil || i < 2 {
				return fmt.Errorf("invalid kmeans_k: %v (must be >= 2)", val)
			}
			cfg.KMeansK = i
		case "dbscan_eps":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid dbscan_eps: %v", val)
			}
			cfg.DBSCANEps = f
		case "dbscan_min_pts":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid int for dbscan_min_pts: %v", val)
			}
			cfg.DBSCANMinPts = i
		case "markdown_tables":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for markdown_tables: %v", val)
			}
			cfg.MarkdownTables = b
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Printf("✓ Saved %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}
