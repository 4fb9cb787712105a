package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinistats/metaprop/internal/meta"
	"github.com/clinistats/metaprop/internal/plot"
)

var influenceCmd = &cobra.Command{
	Use:   "influence <file>",
	Short: "Leave-one-out and outlier diagnostics with Baujat plots",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		opt, err := poolOptions()
		if err != nil {
			return err
		}
		cats, err := selectedCategories()
		if err != nil {
			return err
		}
		w := reportWriter()
		for _, cat := range cats {
			inf, err := meta.Influence(d.Studies, cat, opt)
			if err != nil {
				return err
			}
			fmt.Print(w.Section(cat.Label()))
			fmt.Println(w.LeaveOneOutTable(inf))
			fmt.Println(w.InfluenceTable(inf))

			path := outPath(fmt.Sprintf("baujat_%s.png", cat))
			title := fmt.Sprintf("Baujat plot — %s", cat.Label())
			if err := plot.Baujat(inf, title, path, plotOptions()); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote Baujat plot to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(influenceCmd)
}
