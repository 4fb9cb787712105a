package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/clinistats/metaprop/internal/dataset"
	"github.com/clinistats/metaprop/internal/meta"
	"github.com/clinistats/metaprop/internal/plot"
	"github.com/clinistats/metaprop/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Run the full analysis catalog and write a Markdown report",
	Long: `Runs every analysis (pooling, bias, influence, GOSH, subgroups) for
every disease category, writes all plots, and assembles a single
Markdown report in the output directory.`,
	Args: cobra.ExactArgs(1),
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
		gopt := goshOptions()
		popt := plotOptions()
		w := report.Writer{Mode: report.Markdown}

		var b strings.Builder
		b.WriteString(w.RunHeader(d.Name))

		for _, cat := range cats {
			b.WriteString(w.CategorySection(cat))
			res, err := meta.Pool(d.Studies, cat, opt)
			if err != nil {
				return err
			}
			b.WriteString(w.StudyTable(res) + "\n\n")
			b.WriteString(w.PooledTable(res) + "\n")

			forest := outPath(fmt.Sprintf("forest_%s.png", cat))
			if err := plot.Forest(res, fmt.Sprintf("Forest plot — %s", cat.Label()), forest, popt); err != nil {
				return err
			}
			b.WriteString(fmt.Sprintf("![forest](forest_%s.png)\n", cat))

			// Publication bias
			b.WriteString(w.Section("Publication bias"))
			if egger, err := meta.Egger(res); err != nil {
				b.WriteString(skipped(err))
			} else {
				b.WriteString("```\n" + w.EggerSummary(egger) + "```\n")
				funnel := outPath(fmt.Sprintf("funnel_%s.png", cat))
				if err := plot.Funnel(res, fmt.Sprintf("Funnel plot — %s", cat.Label()), funnel, popt); err != nil {
					return err
				}
				b.WriteString(fmt.Sprintf("![funnel](funnel_%s.png)\n", cat))
			}

			// Influence diagnostics
			b.WriteString(w.Section("Influence diagnostics"))
			if inf, err := meta.Influence(d.Studies, cat, opt); err != nil {
				b.WriteString(skipped(err))
			} else {
				b.WriteString(w.LeaveOneOutTable(inf) + "\n\n")
				b.WriteString(w.InfluenceTable(inf) + "\n\n")
				baujat := outPath(fmt.Sprintf("baujat_%s.png", cat))
				if err := plot.Baujat(inf, fmt.Sprintf("Baujat plot — %s", cat.Label()), baujat, popt); err != nil {
					return err
				}
				b.WriteString(fmt.Sprintf("![baujat](baujat_%s.png)\n", cat))
			}

			// GOSH diagnostics
			b.WriteString(w.Section("GOSH diagnostics"))
			if gosh, err := meta.Gosh(d.Studies, cat, opt, gopt); err != nil {
				b.WriteString(skipped(err))
			} else {
				b.WriteString("```\n" + w.GoshSummary(gosh) + "```\n")
				gp := outPath(fmt.Sprintf("gosh_%s.png", cat))
				if err := plot.Gosh(gosh, fmt.Sprintf("GOSH plot — %s", cat.Label()), gp, popt); err != nil {
					return err
				}
				b.WriteString(fmt.Sprintf("![gosh](gosh_%s.png)\n", cat))
			}

			// Subgroups
			for _, by := range []dataset.SubgroupBy{dataset.ByLatAm, dataset.ByCaseDef} {
				b.WriteString(w.Section(fmt.Sprintf("Subgroups by %s", by)))
				if sub, err := meta.Subgroups(d, by, cat, opt); err != nil {
					b.WriteString(skipped(err))
				} else {
					b.WriteString(w.SubgroupTable(sub) + "\n")
				}
			}
		}

		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("mkdir output dir: %w", err)
		}
		path := outPath("report.md")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("✓ Wrote report and plots to %s\n", cfg.OutputDir)
		return nil
	},
}

func skipped(err error) string {
	log.Debugf("analysis skipped: %v", err)
	return fmt.Sprintf("_Skipped: %v_\n", err)
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
