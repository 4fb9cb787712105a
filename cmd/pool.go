package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinistats/metaprop/internal/meta"
	"github.com/clinistats/metaprop/internal/plot"
)

var poolCmd = &cobra.Command{
	Use:   "pool <file>",
	Short: "Pool proportions per disease category and draw forest plots",
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
			fmt.Print(w.Section(cat.Label()))
			fmt.Println(w.StudyTable(res))
			fmt.Println(w.PooledTable(res))

			path := outPath(fmt.Sprintf("forest_%s.png", cat))
			title := fmt.Sprintf("Forest plot — %s", cat.Label())
			if err := plot.Forest(res, title, path, plotOptions()); err != nil {
				return err
			}
			fmt.Printf("✓ Wrote forest plot to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(poolCmd)
}
