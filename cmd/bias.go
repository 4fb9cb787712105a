package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinistats/metaprop/internal/meta"
	"github.com/clinistats/metaprop/internal/plot"
)

var biasCmd = &cobra.Command{
	Use:   "bias <file>",
	Short: "Test for publication bias (Egger) and draw funnel plots",
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
			res, err := meta.Pool(d.Studies, cat, opt)
			if err != nil {
				return err
			}
			egger, err := meta.Egger(res)
			if err != nil {
				return err
			}
			fmt.Print(w.Section(cat.Label()))
			fmt.Println(w.EggerSummary(egger))

			path := outPath(fmt.Sprintf("funnel_%s.png", cat))
			title := fmt.Sprintf("Funnel plot — %s", cat.Label())
			if err := plot.Funnel(res, title, path, plotOptions()); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote funnel plot to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(biasCmd)
}
