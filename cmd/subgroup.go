package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinistats/metaprop/internal/dataset"
	"github.com/clinistats/metaprop/internal/meta"
)

var subgroupBy string

var subgroupCmd = &cobra.Command{
	Use:   "subgroup <file>",
	Short: "Subgroup analysis (Latin America, case definition)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		by, err := dataset.ParseSubgroupBy(subgroupBy)
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
			sub, err := meta.Subgroups(d, by, cat, opt)
			if err != nil {
				return err
			}
			fmt.Print(w.Section(fmt.Sprintf("%s — by %s", cat.Label(), by)))
			fmt.Println(w.SubgroupTable(sub))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(subgroupCmd)
	subgroupCmd.Flags().StringVar(&subgroupBy, "by", "latam", "subgroup dimension: 'latam' | 'casedef'")
}
